package roster

import (
	"fmt"
	"log/slog"
	"strings"
)

// Entry is a single registry record.
// Position is the unique sort key; entries are immutable except through Update.
type Entry struct {
	Position int    `json:"position"` // Unique display order key (not necessarily contiguous)
	Name     string `json:"name"`     // Human-readable alias, may be empty when redacted
	Status   Status `json:"status"`   // Lifecycle status
}

// Status is the lifecycle state of an entry.
type Status string

const (
	// StatusActive marks an entry that is currently active
	StatusActive Status = "active"

	// StatusDeceased marks an entry whose subject has died
	StatusDeceased Status = "deceased"

	// StatusIncarcerated marks an entry whose subject is in custody
	StatusIncarcerated Status = "incarcerated"

	// StatusCaptured marks an entry whose subject has been captured
	StatusCaptured Status = "captured"

	// StatusRedacted marks an entry whose name and status must never be rendered
	StatusRedacted Status = "redacted"
)

// Statuses returns every valid status in declaration order.
func Statuses() []Status {
	return []Status{StatusActive, StatusDeceased, StatusIncarcerated, StatusCaptured, StatusRedacted}
}

// Validate checks if the Status is a valid enum value.
func (s Status) Validate() error {
	switch s {
	case StatusActive, StatusDeceased, StatusIncarcerated, StatusCaptured, StatusRedacted:
		return nil
	default:
		return fmt.Errorf("unknown status: %q", s)
	}
}

// IsRedacted reports whether the entry must be rendered without name and status.
func (e *Entry) IsRedacted() bool {
	return e.Status == StatusRedacted
}

// Validate checks if the Entry has valid field values.
// This is the store-level guard; request payloads are checked against the
// schema definition before they are converted to an Entry.
func (e *Entry) Validate() error {
	if err := e.Status.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}

	if e.Status != StatusRedacted && strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("name cannot be empty unless status is %q", StatusRedacted)
	}

	if e.Position > MaxPosition || e.Position < -MaxPosition {
		return fmt.Errorf("position %d out of range", e.Position)
	}

	return nil
}

// String renders the entry for debugging. Redacted entries only show their position.
func (e Entry) String() string {
	if e.IsRedacted() {
		return fmt.Sprintf("#%d [redacted]", e.Position)
	}
	return fmt.Sprintf("#%d %s (%s)", e.Position, e.Name, e.Status)
}

// LogValue implements slog.LogValuer so redacted names never reach log output.
func (e Entry) LogValue() slog.Value {
	if e.IsRedacted() {
		return slog.GroupValue(
			slog.Int("position", e.Position),
			slog.Bool("redacted", true),
		)
	}
	return slog.GroupValue(
		slog.Int("position", e.Position),
		slog.String("name", e.Name),
		slog.String("status", string(e.Status)),
	)
}

// Patch is a partial update to an existing entry. Nil fields are left untouched.
// Applying the same patch twice yields the same entry.
type Patch struct {
	Name   *string `json:"name,omitempty"`
	Status *Status `json:"status,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Status == nil
}

// Apply returns a copy of e with the patch applied. Position is never changed.
func (p Patch) Apply(e Entry) Entry {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	return e
}

// EventType identifies what happened to an entry.
type EventType string

const (
	// EventAppended is published after a successful Append
	EventAppended EventType = "appended"

	// EventUpdated is published after a successful Update
	EventUpdated EventType = "updated"
)

// EntryEvent is the payload published on the entry events channel.
type EntryEvent struct {
	ID           string    `json:"id"`             // UUID of this event
	Type         EventType `json:"type"`           // appended or updated
	Entry        Entry     `json:"entry"`          // Entry state after the change
	OccurredAtMs int64     `json:"occurred_at_ms"` // Unix timestamp in milliseconds
}
