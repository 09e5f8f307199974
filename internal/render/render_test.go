package render

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dyluth/roster/pkg/roster"
)

func marshal(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestParseProtocolVersion(t *testing.T) {
	v, err := ParseProtocolVersion("legacy")
	require.NoError(t, err)
	assert.Equal(t, ProtocolLegacy, v)

	v, err = ParseProtocolVersion("current")
	require.NoError(t, err)
	assert.Equal(t, ProtocolCurrent, v)

	for _, bad := range []string{"", "v2", "Legacy", "guide"} {
		_, err := ParseProtocolVersion(bad)
		var unsupported *UnsupportedProtocolVersionError
		require.ErrorAs(t, err, &unsupported, "version %q", bad)
		assert.Equal(t, bad, unsupported.Version)
	}
}

func TestRender_Examples(t *testing.T) {
	redacted := roster.Entry{Position: 5, Name: "", Status: roster.StatusRedacted}
	active := roster.Entry{Position: 2, Name: "Raymond", Status: roster.StatusActive}

	legacy, err := Render([]roster.Entry{redacted}, ProtocolLegacy)
	require.NoError(t, err)
	assert.Equal(t, `[{"guide":5,"redacted":true}]`, marshal(t, legacy))

	current, err := Render([]roster.Entry{redacted}, ProtocolCurrent)
	require.NoError(t, err)
	assert.Equal(t, `[{"v1":5,"redacted":true}]`, marshal(t, current))

	current, err = Render([]roster.Entry{active}, ProtocolCurrent)
	require.NoError(t, err)
	assert.Equal(t, `[{"v1":2,"name":"Raymond","status":"active"}]`, marshal(t, current))
}

func TestRender_RedactedNameNeverLeaks(t *testing.T) {
	entry := roster.Entry{Position: 9, Name: "Berlin", Status: roster.StatusRedacted}

	for _, v := range SupportedVersions() {
		item, err := RenderEntry(entry, v)
		require.NoError(t, err)

		assert.Empty(t, item.Name)
		assert.Empty(t, item.Status)
		assert.NotContains(t, marshal(t, item), "Berlin")
		assert.NotContains(t, item.String(), "Berlin")

		var buf bytes.Buffer
		slog.New(slog.NewJSONHandler(&buf, nil)).Info("rendered", "item", item)
		assert.NotContains(t, buf.String(), "Berlin")
		assert.NotContains(t, buf.String(), `"status"`)
	}
}

func TestRender_UnsupportedVersionFailsClosed(t *testing.T) {
	entries := []roster.Entry{{Position: 1, Name: "A", Status: roster.StatusActive}}

	items, err := Render(entries, ProtocolVersion("v2"))
	assert.Nil(t, items)
	var unsupported *UnsupportedProtocolVersionError
	assert.ErrorAs(t, err, &unsupported)

	_, err = RenderEntry(entries[0], ProtocolVersion(""))
	assert.ErrorAs(t, err, &unsupported)
}

func TestRender_EmptyRegistry(t *testing.T) {
	items, err := Render(nil, ProtocolCurrent)
	require.NoError(t, err)
	assert.Equal(t, "[]", marshal(t, items))
}

func TestItem_MarshalRequiresRender(t *testing.T) {
	_, err := json.Marshal(Item{Position: 1})
	assert.Error(t, err)
}

// genEntries draws a collection with unique positions, sorted as ListAll returns it.
func genEntries(t *rapid.T) []roster.Entry {
	positions := rapid.SliceOfDistinct(rapid.IntRange(-1000, 1000), rapid.ID[int]).Draw(t, "positions")
	sort.Ints(positions)

	entries := make([]roster.Entry, len(positions))
	for i, p := range positions {
		entries[i] = roster.Entry{
			Position: p,
			Name:     rapid.StringMatching(`[A-Za-z ]{0,12}`).Draw(t, "name"),
			Status:   rapid.SampledFrom(roster.Statuses()).Draw(t, "status"),
		}
	}
	return entries
}

func TestRender_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		entries := genEntries(t)
		version := rapid.SampledFrom(SupportedVersions()).Draw(t, "version")

		items, err := Render(entries, version)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if len(items) != len(entries) {
			t.Fatalf("rendered %d items for %d entries", len(items), len(entries))
		}

		wantField, _ := version.PositionField()
		for i, item := range items {
			// Ordering: strictly ascending and matching stored order.
			if item.Position != entries[i].Position {
				t.Fatalf("item %d has position %d, want %d", i, item.Position, entries[i].Position)
			}
			if i > 0 && items[i-1].Position >= item.Position {
				t.Fatalf("positions not strictly ascending at %d", i)
			}

			var fields map[string]any
			data, err := json.Marshal(item)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if err := json.Unmarshal(data, &fields); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if _, ok := fields[wantField]; !ok {
				t.Fatalf("item %s missing position field %q", data, wantField)
			}

			// Redaction: no name or status, under either version.
			if entries[i].Status == roster.StatusRedacted {
				if len(fields) != 2 || fields["redacted"] != true {
					t.Fatalf("redacted item leaked fields: %s", data)
				}
			} else if fields["name"] != entries[i].Name || fields["status"] != string(entries[i].Status) {
				t.Fatalf("item %s does not carry entry fields", data)
			}
		}
	})
}

func TestRender_VersionsDifferOnlyInPositionField(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		entries := genEntries(t)

		legacy, err := Render(entries, ProtocolLegacy)
		if err != nil {
			t.Fatalf("render legacy: %v", err)
		}
		current, err := Render(entries, ProtocolCurrent)
		if err != nil {
			t.Fatalf("render current: %v", err)
		}

		for i := range entries {
			var l, c map[string]any
			lb, _ := json.Marshal(legacy[i])
			cb, _ := json.Marshal(current[i])
			_ = json.Unmarshal(lb, &l)
			_ = json.Unmarshal(cb, &c)

			if l["guide"] != c["v1"] {
				t.Fatalf("position differs: %s vs %s", lb, cb)
			}
			delete(l, "guide")
			delete(c, "v1")
			if len(l) != len(c) {
				t.Fatalf("field sets differ: %s vs %s", lb, cb)
			}
			for k, v := range l {
				if c[k] != v {
					t.Fatalf("field %q differs: %s vs %s", k, lb, cb)
				}
			}
		}
	})
}
