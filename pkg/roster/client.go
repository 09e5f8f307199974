package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrInvalidEntry is returned when an entry fails the store-level guard.
var ErrInvalidEntry = errors.New("invalid entry")

// maxUpdateRetries bounds optimistic transaction retries in Update.
const maxUpdateRetries = 5

// appendScript writes the entry hash and index member in one atomic step.
// Returns 0 when the position is already in use.
//
// KEYS[1] = positions ZSET, KEYS[2] = entry hash
// ARGV[1] = position member, ARGV[2] = score, ARGV[3] = name, ARGV[4] = status
var appendScript = redis.NewScript(`
if redis.call('ZSCORE', KEYS[1], ARGV[1]) then
	return 0
end
if redis.call('EXISTS', KEYS[2]) == 1 then
	return 0
end
redis.call('HSET', KEYS[2], 'position', ARGV[1], 'name', ARGV[3], 'status', ARGV[4])
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[1])
return 1
`)

// Client provides instance-scoped Redis operations for the registry.
// All keys and channels are automatically namespaced with the instance name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb          *redis.Client
	instanceName string

	mu            sync.RWMutex
	onPublishFail func(error)
}

// NewClient creates a new registry client for the specified instance.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - instanceName: Roster instance identifier (must not be empty)
//
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// NewClientFromURL parses a redis:// URL and creates a client for the instance.
func NewClientFromURL(redisURL, instanceName string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return NewClient(opts, instanceName)
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return Unavailable("ping", err)
	}
	return nil
}

// InstanceName returns the namespace this client writes under.
func (c *Client) InstanceName() string {
	return c.instanceName
}

// RedisClient exposes the underlying go-redis client for diagnostics and tests.
func (c *Client) RedisClient() *redis.Client {
	return c.rdb
}

// OnPublishError registers a callback for event publish failures.
// Writes are committed before publishing, so a failed publish never fails the write.
func (c *Client) OnPublishError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPublishFail = fn
}

// Append persists a new entry and publishes an appended event.
// Returns ErrPositionTaken if the position is already in use; the stored
// state is unchanged in that case.
func (c *Client) Append(ctx context.Context, e *Entry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	keys := []string{PositionsKey(c.instanceName), EntryKey(c.instanceName, e.Position)}
	args := []interface{}{positionMember(e.Position), PositionScore(e.Position), e.Name, string(e.Status)}

	written, err := appendScript.Run(ctx, c.rdb, keys, args...).Int()
	if err != nil {
		return Unavailable("append", err)
	}
	if written == 0 {
		return fmt.Errorf("%w: %d", ErrPositionTaken, e.Position)
	}

	c.publish(ctx, EventAppended, *e)
	return nil
}

// Get retrieves the entry at a position.
// Returns ErrNotFound if no entry exists there.
func (c *Client) Get(ctx context.Context, position int) (*Entry, error) {
	hash, err := c.rdb.HGetAll(ctx, EntryKey(c.instanceName, position)).Result()
	if err != nil {
		return nil, Unavailable("get", err)
	}
	if len(hash) == 0 {
		return nil, fmt.Errorf("%w: position %d", ErrNotFound, position)
	}

	entry, err := HashToEntry(hash)
	if err != nil {
		return nil, Unavailable("get", fmt.Errorf("malformed entry at position %d: %w", position, err))
	}
	return entry, nil
}

// ListAll returns every stored entry sorted ascending by position.
//
// Two index members sharing a position yield a DuplicatePositionError. An
// index member without a readable entry hash is reported as unavailable,
// never skipped: callers must not mistake a partial read for the full registry.
func (c *Client) ListAll(ctx context.Context) ([]Entry, error) {
	members, err := c.rdb.ZRangeWithScores(ctx, PositionsKey(c.instanceName), 0, -1).Result()
	if err != nil {
		return nil, Unavailable("list", err)
	}
	if len(members) == 0 {
		return []Entry{}, nil
	}

	positions := make([]int, len(members))
	for i, z := range members {
		if z.Score != math.Trunc(z.Score) {
			return nil, Unavailable("list", fmt.Errorf("non-integer position score %v", z.Score))
		}
		positions[i] = PositionFromScore(z.Score)
		if i > 0 && positions[i] == positions[i-1] {
			return nil, &DuplicatePositionError{Position: positions[i]}
		}
	}

	pipe := c.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(positions))
	for i, position := range positions {
		cmds[i] = pipe.HGetAll(ctx, EntryKey(c.instanceName, position))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, Unavailable("list", err)
	}

	entries := make([]Entry, 0, len(positions))
	for i, cmd := range cmds {
		hash := cmd.Val()
		if len(hash) == 0 {
			return nil, Unavailable("list", fmt.Errorf("index references missing entry at position %d", positions[i]))
		}
		entry, err := HashToEntry(hash)
		if err != nil {
			return nil, Unavailable("list", fmt.Errorf("malformed entry at position %d: %w", positions[i], err))
		}
		if entry.Position != positions[i] {
			return nil, Unavailable("list", fmt.Errorf("entry hash position %d does not match index position %d", entry.Position, positions[i]))
		}
		entries = append(entries, *entry)
	}

	return entries, nil
}

// Update applies a patch to the entry at position and publishes an updated event.
// Returns ErrNotFound when the target does not exist. The merged entry must
// pass Validate. An empty patch returns the current entry without writing.
func (c *Client) Update(ctx context.Context, position int, patch Patch) (*Entry, error) {
	key := EntryKey(c.instanceName, position)
	var updated Entry

	txf := func(tx *redis.Tx) error {
		hash, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return Unavailable("update", err)
		}
		if len(hash) == 0 {
			return fmt.Errorf("%w: position %d", ErrNotFound, position)
		}

		current, err := HashToEntry(hash)
		if err != nil {
			return Unavailable("update", fmt.Errorf("malformed entry at position %d: %w", position, err))
		}

		updated = patch.Apply(*current)
		if patch.IsEmpty() {
			return nil
		}
		if err := updated.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, EntryToHash(&updated))
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := c.rdb.Watch(ctx, txf, key)
		if err == nil {
			if !patch.IsEmpty() {
				c.publish(ctx, EventUpdated, updated)
			}
			return &updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidEntry) {
			return nil, err
		}
		return nil, Unavailable("update", err)
	}

	return nil, Unavailable("update", fmt.Errorf("position %d changed concurrently %d times", position, maxUpdateRetries))
}

// publish sends an entry event. Failures are reported to the OnPublishError callback.
func (c *Client) publish(ctx context.Context, eventType EventType, e Entry) {
	event := EntryEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Entry:        e,
		OccurredAtMs: time.Now().UnixMilli(),
	}

	payload, err := json.Marshal(event)
	if err == nil {
		err = c.rdb.Publish(ctx, EntryEventsChannel(c.instanceName), payload).Err()
	}
	if err == nil {
		return
	}

	c.mu.RLock()
	fn := c.onPublishFail
	c.mu.RUnlock()
	if fn != nil {
		fn(fmt.Errorf("failed to publish %s event for position %d: %w", eventType, e.Position, err))
	}
}

// Subscription represents an active Pub/Sub subscription to entry events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *EntryEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of entry events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *EntryEvent {
	return s.events
}

// Errors returns the channel of subscription errors.
// The subscription continues after errors - malformed messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeEntryEvents subscribes to append and update events for this instance.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// Events are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once: a slow subscriber may miss events.
func (c *Client) SubscribeEntryEvents(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, EntryEventsChannel(c.instanceName))

	// Wait for the subscription confirmation so events published right after
	// this call returns are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, Unavailable("subscribe", err)
	}

	eventsChan := make(chan *EntryEvent, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event EntryEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal entry event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
