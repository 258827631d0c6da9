// Package apperr defines the application-level error taxonomy. All of
// these are recoverable by the caller; none are fatal to the process.
package apperr

import "errors"

var (
	// ErrValidation is returned when input fails a validation rule,
	// such as a duplicate login email or an out-of-range threshold.
	ErrValidation = errors.New("validation failed")

	// ErrPermissionDenied is returned when an actor attempts an action
	// their role or assignment does not allow.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when an operation references an expense
	// or user that is absent from the collections.
	ErrNotFound = errors.New("not found")

	// ErrStorage is returned when the persistence collaborator fails.
	// In-memory state is left as mutated; there is no rollback.
	ErrStorage = errors.New("storage failure")
)
