package forum

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Callers match with errors.Is.
var (
	// ErrUnauthorized is returned when an operation requires a caller
	// identity that is missing, or the caller does not own the entity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a referenced post or vote does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a concurrent mutation collides.
	ErrConflict = errors.New("conflict")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")
)

// StoreError wraps an underlying persistence failure. It is never produced
// for not-found conditions, only for real store faults; any such fault
// aborts the enclosing transaction.
type StoreError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure in %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying store error
func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	// The store layer reports vote-row collisions as ErrConflict; pass
	// those through untouched so callers can match them.
	if errors.Is(err, ErrConflict) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
