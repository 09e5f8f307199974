package roster

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the registry store.
var (
	// ErrNotFound is returned when no entry exists at a position.
	ErrNotFound = errors.New("entry not found")

	// ErrPositionTaken is returned when appending at a position already in use.
	ErrPositionTaken = errors.New("position already taken")

	// ErrUnavailable matches every StoreUnavailableError.
	ErrUnavailable = errors.New("registry store unavailable")
)

// StoreUnavailableError reports that the store could not be reached or
// returned a response that could not be parsed.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("registry store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUnavailable) true for every StoreUnavailableError.
func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// Unavailable wraps err as a StoreUnavailableError unless it already is one.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var sue *StoreUnavailableError
	if errors.As(err, &sue) {
		return err
	}
	return &StoreUnavailableError{Op: op, Err: err}
}

// DuplicatePositionError is a data-integrity fault: two stored entries share
// a position. It is never resolved silently.
type DuplicatePositionError struct {
	Position int
}

func (e *DuplicatePositionError) Error() string {
	return fmt.Sprintf("registry integrity fault: duplicate position %d", e.Position)
}

// IsNotFound returns true if err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
