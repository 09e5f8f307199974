// Package watch streams registry changes, rendered for a protocol version.
package watch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/roster/internal/filter"
	"github.com/dyluth/roster/internal/listing"
	"github.com/dyluth/roster/internal/render"
	"github.com/dyluth/roster/pkg/roster"
)

// Subscriber opens a stream of entry events.
type Subscriber interface {
	SubscribeEntryEvents(ctx context.Context) (*roster.Subscription, error)
}

// Options controls a watch.
type Options struct {
	Version render.ProtocolVersion
	Format  listing.OutputFormat
	Filters *filter.Criteria

	// Limit stops the watch after this many events have been written. 0 = no limit.
	Limit int

	// OnError receives malformed-message errors. The stream continues after them.
	OnError func(error)
}

// Stream writes one line per matching event until ctx is cancelled, the
// subscription ends, or Limit is reached. The version is checked before
// subscribing so an unsupported version fails without waiting.
func Stream(ctx context.Context, src Subscriber, opts Options, w io.Writer) error {
	if _, err := opts.Version.PositionField(); err != nil {
		return err
	}

	sub, err := src.SubscribeEntryEvents(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe to entry events: %w", err)
	}
	defer sub.Close()

	written := 0
	events, errs := sub.Events(), sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if opts.OnError != nil {
				opts.OnError(err)
			}

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if opts.Filters != nil && !opts.Filters.Matches(event.Entry) {
				continue
			}
			if err := writeEvent(w, event, opts); err != nil {
				return err
			}
			written++
			if opts.Limit > 0 && written >= opts.Limit {
				return nil
			}
		}
	}
}

func writeEvent(w io.Writer, event *roster.EntryEvent, opts Options) error {
	item, err := render.RenderEntry(event.Entry, opts.Version)
	if err != nil {
		return err
	}

	if opts.Format == listing.OutputFormatJSONL || opts.Format == listing.OutputFormatJSON {
		return listing.FormatItemLine(w, item)
	}

	at := time.UnixMilli(event.OccurredAtMs).Format("15:04:05")
	if _, err := fmt.Fprintf(w, "[%s] %-8s %s\n", at, event.Type, item); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}
