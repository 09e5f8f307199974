package audit

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/roster/internal/schema"
	"github.com/dyluth/roster/pkg/roster"
)

func lines(buf *bytes.Buffer) []string {
	out := strings.TrimRight(buf.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestRun_Valid(t *testing.T) {
	var buf bytes.Buffer
	report, err := New(schema.Default(), &buf).Run(strings.NewReader(`[
		{"position": 1, "name": "Raymond", "status": "active"},
		{"guide": 5, "status": "redacted"}
	]`))

	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 2, report.Entries)
	assert.NotEmpty(t, report.RunID)
	assert.Empty(t, buf.String())
}

func TestRun_OneLinePerViolation(t *testing.T) {
	var buf bytes.Buffer
	report, err := New(schema.Default(), &buf).Run(strings.NewReader(`[
		{"position": 1, "name": "A", "status": "active"},
		{"position": 2, "name": "B", "status": "missing"},
		{"position": 3, "name": "", "status": "active"},
		{"position": 2.5, "name": "D", "status": "captured"},
		{"position": 4, "name": "E", "status": "deceased", "alias": "x"}
	]`))

	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, 5, report.Entries)

	got := lines(&buf)
	require.Len(t, got, 4)
	assert.Equal(t, `/1/status must be one of active, deceased, incarcerated, captured, redacted, got "missing"`, got[0])
	assert.Equal(t, `/2/name must not be empty unless status is "redacted"`, got[1])
	assert.Equal(t, "/3/position must be an integer, got 2.5", got[2])
	assert.Equal(t, "/4/alias is not a recognised field", got[3])
	assert.Len(t, report.Violations, len(got))
}

func TestRun_NotAnArray(t *testing.T) {
	var buf bytes.Buffer
	report, err := New(schema.Default(), &buf).Run(strings.NewReader(`{"position": 1}`))

	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, []string{"(root) must be an array of entries"}, lines(&buf))
}

func TestRun_UnparseableInput(t *testing.T) {
	_, err := New(schema.Default(), &bytes.Buffer{}).Run(strings.NewReader(`[{"position": 1`))
	assert.ErrorContains(t, err, "failed to parse collection")

	_, err = New(schema.Default(), &bytes.Buffer{}).Run(strings.NewReader(`[] []`))
	assert.ErrorContains(t, err, "unexpected data")
}

func TestRunStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client, err := roster.NewClient(&redis.Options{Addr: mr.Addr()}, "audit")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Append(ctx, &roster.Entry{Position: 1, Name: "A", Status: roster.StatusActive}))
	require.NoError(t, client.Append(ctx, &roster.Entry{Position: 2, Name: "B", Status: roster.StatusActive}))
	require.NoError(t, client.Append(ctx, &roster.Entry{Position: 3, Name: "", Status: roster.StatusRedacted}))

	t.Run("clean store", func(t *testing.T) {
		var buf bytes.Buffer
		report, err := New(schema.Default(), &buf).RunStore(ctx, client)
		require.NoError(t, err)
		assert.True(t, report.OK())
		assert.Equal(t, 3, report.Entries)
	})

	t.Run("out-of-band corruption", func(t *testing.T) {
		mr.HSet(roster.EntryKey("audit", 2), "status", "missing")
		mr.HSet(roster.EntryKey("audit", 1), "rank", "7")

		var buf bytes.Buffer
		report, err := New(schema.Default(), &buf).RunStore(ctx, client)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"/0/rank is not a recognised field",
			`/1/status must be one of active, deceased, incarcerated, captured, redacted, got "missing"`,
		}, lines(&buf))
		assert.Len(t, report.Violations, 2)
	})

	t.Run("store unavailable", func(t *testing.T) {
		mr.Close()
		_, err := New(schema.Default(), &bytes.Buffer{}).RunStore(ctx, client)
		assert.ErrorIs(t, err, roster.ErrUnavailable)
	})
}
