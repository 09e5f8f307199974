// Package listing prints the rendered registry for the CLI.
package listing

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/roster/internal/config"
	"github.com/dyluth/roster/internal/filter"
	"github.com/dyluth/roster/internal/render"
	"github.com/dyluth/roster/pkg/roster"
)

// OutputFormat specifies how to format the registry listing.
type OutputFormat string

const (
	// OutputFormatDefault uses a table with display labels
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON outputs the rendered payload exactly as the HTTP read path serves it
	OutputFormatJSON OutputFormat = "json"

	// OutputFormatJSONL outputs one rendered item per line
	OutputFormatJSONL OutputFormat = "jsonl"
)

// ParseOutputFormat validates a --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputFormatDefault, OutputFormatJSON, OutputFormatJSONL:
		return f, nil
	case "":
		return OutputFormatDefault, nil
	default:
		return "", fmt.Errorf("unknown output format: %s (must be 'default', 'json' or 'jsonl')", s)
	}
}

// Fetcher serves the ordered registry.
type Fetcher interface {
	FetchRegistry(ctx context.Context) ([]roster.Entry, error)
}

// Options controls a listing.
type Options struct {
	Version  render.ProtocolVersion
	Format   OutputFormat
	Filters  *filter.Criteria
	Labels   *config.Labels
	Instance string
}

// List fetches, filters and renders the registry, then writes it to w.
// Nothing is written when the fetch or render fails.
func List(ctx context.Context, q Fetcher, opts Options, w io.Writer) error {
	entries, err := q.FetchRegistry(ctx)
	if err != nil {
		return err
	}

	items, err := render.Render(opts.Filters.Apply(entries), opts.Version)
	if err != nil {
		return err
	}

	switch opts.Format {
	case OutputFormatDefault, "":
		labels := opts.Labels
		if labels == nil {
			labels = config.DefaultLabels()
		}
		FormatTable(w, items, labels, opts.Instance)
	case OutputFormatJSON:
		if err := FormatJSON(w, items); err != nil {
			return fmt.Errorf("failed to format JSON output: %w", err)
		}
	case OutputFormatJSONL:
		if err := FormatJSONL(w, items); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", opts.Format)
	}

	return nil
}
