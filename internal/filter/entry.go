// Package filter selects registry entries for CLI listing and watching.
package filter

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/dyluth/roster/pkg/roster"
)

// Criteria defines filtering criteria for entries.
// All filters are ANDed together - an entry must match ALL criteria to pass.
type Criteria struct {
	Statuses    []roster.Status // Any of these statuses, empty = no filter
	MinPosition *int            // Inclusive lower bound, nil = no filter
	MaxPosition *int            // Inclusive upper bound, nil = no filter
	NameGlob    string          // Glob pattern for name, empty = no filter
}

// Validate rejects unknown statuses, bad globs and inverted ranges.
func (c *Criteria) Validate() error {
	for _, s := range c.Statuses {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if c.NameGlob != "" {
		if _, err := filepath.Match(c.NameGlob, ""); err != nil {
			return fmt.Errorf("invalid name pattern %q: %w", c.NameGlob, err)
		}
	}
	if c.MinPosition != nil && c.MaxPosition != nil && *c.MinPosition > *c.MaxPosition {
		return fmt.Errorf("position range is empty: %d > %d", *c.MinPosition, *c.MaxPosition)
	}
	return nil
}

// Matches returns true if the entry matches all filter criteria.
// A redacted entry never matches a name pattern, so filtering cannot be
// used to probe a hidden name.
func (c *Criteria) Matches(e roster.Entry) bool {
	if len(c.Statuses) > 0 && !slices.Contains(c.Statuses, e.Status) {
		return false
	}

	if c.MinPosition != nil && e.Position < *c.MinPosition {
		return false
	}
	if c.MaxPosition != nil && e.Position > *c.MaxPosition {
		return false
	}

	if c.NameGlob != "" {
		if e.IsRedacted() {
			return false
		}
		matched, err := filepath.Match(c.NameGlob, e.Name)
		if err != nil || !matched {
			return false
		}
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return len(c.Statuses) > 0 || c.MinPosition != nil || c.MaxPosition != nil || c.NameGlob != ""
}

// Apply returns the entries that match, preserving order.
func (c *Criteria) Apply(entries []roster.Entry) []roster.Entry {
	if c == nil || !c.HasFilters() {
		return entries
	}
	out := make([]roster.Entry, 0, len(entries))
	for _, e := range entries {
		if c.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}
