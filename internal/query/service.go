// Package query serves the ordered registry to callers. It applies neither
// redaction nor wire naming: callers render the result for their protocol.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/dyluth/roster/pkg/roster"
)

// Lister is the read side of the registry store.
type Lister interface {
	ListAll(ctx context.Context) ([]roster.Entry, error)
}

// Service fetches the registry from the store.
type Service struct {
	store Lister
}

// NewService creates a query service over a store.
func NewService(store Lister) *Service {
	return &Service{store: store}
}

// FetchRegistry returns the full collection sorted ascending by position.
//
// Failures come back as one of two kinds: a *roster.DuplicatePositionError
// for integrity faults, or a *roster.StoreUnavailableError for everything
// else. A partial collection is never returned.
func (s *Service) FetchRegistry(ctx context.Context) ([]roster.Entry, error) {
	entries, err := s.store.ListAll(ctx)
	if err != nil {
		var dup *roster.DuplicatePositionError
		if errors.As(err, &dup) {
			return nil, err
		}
		return nil, roster.Unavailable("fetch", err)
	}

	if entries == nil {
		entries = []roster.Entry{}
	}

	// The store contract promises strictly ascending positions. A store that
	// breaks it is reporting data we cannot serve as the registry.
	for i := 1; i < len(entries); i++ {
		switch {
		case entries[i].Position == entries[i-1].Position:
			return nil, &roster.DuplicatePositionError{Position: entries[i].Position}
		case entries[i].Position < entries[i-1].Position:
			return nil, roster.Unavailable("fetch", fmt.Errorf("store returned positions out of order at %d", entries[i].Position))
		}
	}

	return entries, nil
}
