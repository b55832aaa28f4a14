package service

import (
	"errors"
	"fmt"
)

// Sentinel domain errors. Handlers map these onto HTTP statuses; anything not
// matching one of them is treated as an unexpected persistence failure (5xx).
var (
	// ErrValidation marks malformed input: empty item lists, unknown ids,
	// source == destination, non-positive quantities.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState marks an operation attempted from a lifecycle state
	// that does not permit it.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrInsufficientStock is returned when a strict deployment refuses to
	// drive available stock negative.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInsufficientAllocation is returned when a release exceeds the
	// current allocation.
	ErrInsufficientAllocation = errors.New("insufficient allocation")

	// ErrSessionAlreadyOpen is returned when a terminal already has an OPEN
	// cash session.
	ErrSessionAlreadyOpen = errors.New("session already open for terminal")

	// ErrIncompleteCount is returned when a stock count is posted while some
	// line has not reached a terminal review state.
	ErrIncompleteCount = errors.New("stock count has unreviewed items")

	// ErrConcurrencyConflict is surfaced after bounded retries on
	// transaction-level lock or serialization conflicts.
	ErrConcurrencyConflict = errors.New("concurrent modification conflict")
)

// validationf wraps ErrValidation with a caller-facing message.
func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// invalidStatef wraps ErrInvalidState with the offending state.
func invalidStatef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidState}, args...)...)
}

// incompleteCountf wraps ErrIncompleteCount with the lines still outstanding.
func incompleteCountf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrIncompleteCount}, args...)...)
}
