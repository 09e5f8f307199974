package listing

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/roster/internal/config"
	"github.com/dyluth/roster/internal/render"
)

// maxNameWidth bounds the NAME column.
const maxNameWidth = 32

// FormatTable writes items as a table. The position column is headed by the
// protocol's field name so the table matches what that client receives.
// Returns the number of items formatted.
func FormatTable(w io.Writer, items []render.Item, labels *config.Labels, instanceName string) int {
	if len(items) == 0 {
		fmt.Fprintf(w, "No entries found for instance '%s'\n", instanceName)
		return 0
	}

	fmt.Fprintf(w, "Registry for instance '%s':\n\n", instanceName)

	posHeader := strings.ToUpper(items[0].PositionField())
	fmt.Fprintf(w, "%-8s %-32s %s\n", posHeader, "NAME", "STATUS")
	fmt.Fprintf(w, "%-8s %-32s %s\n", "--------", strings.Repeat("-", maxNameWidth), "------------")

	for _, item := range items {
		name, status := formatName(item.Name), labels.Status(item.Status)
		if item.Redacted {
			name, status = labels.RedactionMarker(), labels.RedactionMarker()
		}
		fmt.Fprintf(w, "%-8d %-32s %s\n", item.Position, name, status)
	}

	noun := "entry"
	if len(items) != 1 {
		noun = "entries"
	}
	fmt.Fprintf(w, "\n%d %s\n", len(items), noun)

	return len(items)
}

// FormatJSON writes items as a single indented JSON array.
func FormatJSON(w io.Writer, items []render.Item) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal items to JSON: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}

// FormatJSONL writes items as line-delimited JSON, one item per line.
func FormatJSONL(w io.Writer, items []render.Item) error {
	for _, item := range items {
		if err := FormatItemLine(w, item); err != nil {
			return err
		}
	}
	return nil
}

// FormatItemLine writes one item as a compact JSON line.
func FormatItemLine(w io.Writer, item render.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item to JSON: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write JSONL output: %w", err)
	}
	return nil
}

// formatName truncates long names for table display. Empty names return "-".
func formatName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "-"
	}
	if runes := []rune(name); len(runes) > maxNameWidth {
		return string(runes[:maxNameWidth-3]) + "..."
	}
	return name
}
