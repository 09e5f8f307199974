package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	ctx := context.Background()

	t.Run("empty registry", func(t *testing.T) {
		client, _ := setupTestClient(t)

		hashes, err := client.Dump(ctx)
		require.NoError(t, err)
		assert.Empty(t, hashes)
	})

	t.Run("returns malformed hashes that ListAll rejects", func(t *testing.T) {
		client, mr := setupTestClient(t)

		require.NoError(t, client.Append(ctx, &Entry{Position: 1, Name: "A", Status: StatusActive}))
		require.NoError(t, client.Append(ctx, &Entry{Position: 2, Name: "B", Status: StatusActive}))
		mr.HSet(EntryKey("test-instance", 2), "status", "missing")
		_, err := mr.ZAdd(PositionsKey("test-instance"), 3, "3")
		require.NoError(t, err)

		hashes, err := client.Dump(ctx)
		require.NoError(t, err)
		require.Len(t, hashes, 3)
		assert.Equal(t, map[string]string{"position": "1", "name": "A", "status": "active"}, hashes[0])
		assert.Equal(t, "missing", hashes[1]["status"])
		assert.Empty(t, hashes[2])
	})

	t.Run("store unavailable", func(t *testing.T) {
		client, mr := setupTestClient(t)
		mr.Close()

		_, err := client.Dump(ctx)
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}
