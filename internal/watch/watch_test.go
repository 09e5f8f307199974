package watch

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/roster/internal/filter"
	"github.com/dyluth/roster/internal/listing"
	"github.com/dyluth/roster/internal/render"
	"github.com/dyluth/roster/pkg/roster"
)

// syncBuffer guards a buffer written by the stream goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func setupClient(t *testing.T) *roster.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := roster.NewClient(&redis.Options{Addr: mr.Addr()}, "test-instance")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// startStream runs Stream in the background and waits until it has subscribed.
func startStream(t *testing.T, client *roster.Client, opts Options, w *syncBuffer) <-chan error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() { done <- Stream(ctx, client, opts, w) }()

	require.Eventually(t, func() bool {
		n, err := client.RedisClient().PubSubNumSub(ctx, roster.EntryEventsChannel("test-instance")).Result()
		return err == nil && n[roster.EntryEventsChannel("test-instance")] > 0
	}, 2*time.Second, 10*time.Millisecond)

	return done
}

func TestStream_JSONL(t *testing.T) {
	ctx := context.Background()
	client := setupClient(t)
	var out syncBuffer

	done := startStream(t, client, Options{
		Version: render.ProtocolLegacy,
		Format:  listing.OutputFormatJSONL,
		Limit:   2,
	}, &out)

	require.NoError(t, client.Append(ctx, &roster.Entry{Position: 5, Name: "Berlin", Status: roster.StatusRedacted}))
	require.NoError(t, client.Append(ctx, &roster.Entry{Position: 2, Name: "Raymond", Status: roster.StatusActive}))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("stream did not stop after limit")
	}

	assert.Equal(t, `{"guide":5,"redacted":true}`+"\n"+`{"guide":2,"name":"Raymond","status":"active"}`+"\n", out.String())
}

func TestStream_FilterAndDefaultFormat(t *testing.T) {
	ctx := context.Background()
	client := setupClient(t)
	var out syncBuffer

	done := startStream(t, client, Options{
		Version: render.ProtocolCurrent,
		Filters: &filter.Criteria{Statuses: []roster.Status{roster.StatusCaptured}},
		Limit:   1,
	}, &out)

	require.NoError(t, client.Append(ctx, &roster.Entry{Position: 1, Name: "Liz", Status: roster.StatusActive}))
	require.NoError(t, client.Append(ctx, &roster.Entry{Position: 3, Name: "Dembe", Status: roster.StatusCaptured}))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("stream did not stop after limit")
	}

	line := out.String()
	assert.Contains(t, line, "appended")
	assert.Contains(t, line, "v1=3 Dembe (captured)")
	assert.NotContains(t, line, "Liz")
	assert.Equal(t, 1, strings.Count(line, "\n"))
}

func TestStream_UnsupportedVersion(t *testing.T) {
	client := setupClient(t)

	err := Stream(context.Background(), client, Options{Version: "v9"}, &syncBuffer{})
	var unsupported *render.UnsupportedProtocolVersionError
	assert.ErrorAs(t, err, &unsupported)
}

func TestStream_StopsOnCancel(t *testing.T) {
	client := setupClient(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Stream(ctx, client, Options{Version: render.ProtocolCurrent}, &syncBuffer{}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop on cancel")
	}
}
