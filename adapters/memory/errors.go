package memory

import (
	"errors"
	"fmt"
)

// Sentinel errors for the memory adapter.
var (
	// ErrConcurrencyConflict is returned by Commit when a staged aggregate
	// was changed by another session since it was loaded.
	ErrConcurrencyConflict = errors.New("memory: concurrency conflict")

	// ErrUnknownField is returned when a query names a field the store does not index.
	ErrUnknownField = errors.New("memory: unknown query field")
)

// ConcurrencyError provides detailed information about a commit conflict.
type ConcurrencyError struct {
	AggregateType   string
	AggregateID     string
	ExpectedVersion int64
	ActualVersion   int64
}

// Error returns the error message.
func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("memory: concurrency conflict on %s %s: expected version %d, got %d",
		e.AggregateType, e.AggregateID, e.ExpectedVersion, e.ActualVersion)
}

// Is reports whether this error matches the target error.
func (e *ConcurrencyError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

// NewConcurrencyError creates a new ConcurrencyError.
func NewConcurrencyError(aggregateType, id string, expected, actual int64) *ConcurrencyError {
	return &ConcurrencyError{
		AggregateType:   aggregateType,
		AggregateID:     id,
		ExpectedVersion: expected,
		ActualVersion:   actual,
	}
}
