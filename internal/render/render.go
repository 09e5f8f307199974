package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dyluth/roster/pkg/roster"
)

// Item is the client-visible projection of an entry.
// A redacted item carries only its position; Name and Status stay empty.
type Item struct {
	Version  ProtocolVersion
	Position int
	Name     string
	Status   roster.Status
	Redacted bool

	field string
}

// Render projects entries, in the order given, for a protocol version.
// Entries arrive already sorted by position; Render does not reorder them.
// An unknown version renders nothing and returns UnsupportedProtocolVersionError.
func Render(entries []roster.Entry, version ProtocolVersion) ([]Item, error) {
	field, err := version.PositionField()
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, project(e, version, field))
	}
	return items, nil
}

// RenderEntry projects a single entry.
func RenderEntry(e roster.Entry, version ProtocolVersion) (Item, error) {
	field, err := version.PositionField()
	if err != nil {
		return Item{}, err
	}
	return project(e, version, field), nil
}

func project(e roster.Entry, version ProtocolVersion, field string) Item {
	if e.IsRedacted() {
		return Item{Version: version, Position: e.Position, Redacted: true, field: field}
	}
	return Item{Version: version, Position: e.Position, Name: e.Name, Status: e.Status, field: field}
}

// PositionField returns the wire name used for position in this item.
func (i Item) PositionField() string {
	return i.field
}

// MarshalJSON writes the position under the protocol's field name, first.
// Redacted items emit exactly {"<field>": position, "redacted": true}.
func (i Item) MarshalJSON() ([]byte, error) {
	if i.field == "" {
		return nil, fmt.Errorf("render: item for position %d was not produced by Render", i.Position)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	writeField(&buf, i.field, i.Position)
	if i.Redacted {
		buf.WriteByte(',')
		writeField(&buf, "redacted", true)
	} else {
		buf.WriteByte(',')
		writeField(&buf, "name", i.Name)
		buf.WriteByte(',')
		writeField(&buf, "status", string(i.Status))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, value any) {
	k, _ := json.Marshal(key)
	v, _ := json.Marshal(value)
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
}

// String renders the item for debugging without ever exposing redacted fields.
func (i Item) String() string {
	if i.Redacted {
		return fmt.Sprintf("%s=%d [redacted]", i.field, i.Position)
	}
	return fmt.Sprintf("%s=%d %s (%s)", i.field, i.Position, i.Name, i.Status)
}

// LogValue implements slog.LogValuer.
func (i Item) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("protocol", i.Version.String()),
		slog.Int(i.field, i.Position),
	}
	if i.Redacted {
		attrs = append(attrs, slog.Bool("redacted", true))
	} else {
		attrs = append(attrs, slog.String("name", i.Name), slog.String("status", string(i.Status)))
	}
	return slog.GroupValue(attrs...)
}
