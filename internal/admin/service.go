// Package admin is the write path: every candidate passes the schema gate
// before it reaches the store.
package admin

import (
	"context"
	"log/slog"

	"github.com/dyluth/roster/internal/schema"
	"github.com/dyluth/roster/pkg/roster"
)

// Store is the write side of the registry store.
type Store interface {
	Append(ctx context.Context, e *roster.Entry) error
	Get(ctx context.Context, position int) (*roster.Entry, error)
	Update(ctx context.Context, position int, patch roster.Patch) (*roster.Entry, error)
}

// Service validates and persists administrative changes.
type Service struct {
	def    *schema.Definition
	store  Store
	logger *slog.Logger
}

// NewService creates a write-path service.
func NewService(def *schema.Definition, store Store, logger *slog.Logger) *Service {
	return &Service{def: def, store: store, logger: logger}
}

// Append validates candidate and appends it.
//
// Returns *schema.ViolationError when validation fails, in which case the
// store is never called; roster.ErrPositionTaken when the position is in
// use; and a *roster.StoreUnavailableError for store failures.
func (s *Service) Append(ctx context.Context, candidate map[string]any) (*roster.Entry, error) {
	entry, err := s.def.Decode(candidate)
	if err != nil {
		return nil, err
	}

	if err := s.store.Append(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "entry appended", "entry", *entry)
	return entry, nil
}

// Update applies a partial change to the entry at position.
//
// The patch is checked field by field, then the merged entry is checked
// against the full schema before the store applies it.
func (s *Service) Update(ctx context.Context, position int, candidate map[string]any) (*roster.Entry, error) {
	patch, err := s.def.DecodePatch(candidate)
	if err != nil {
		return nil, err
	}

	current, err := s.store.Get(ctx, position)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	merged := patch.Apply(*current)
	if violations := s.def.ValidateEntry(schema.EntryFields(merged)); len(violations) > 0 {
		return nil, &schema.ViolationError{Violations: violations}
	}

	updated, err := s.store.Update(ctx, position, patch)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "entry updated", "entry", *updated)
	return updated, nil
}
