package domain

import "errors"

var (
	// ErrRunNotFound is returned when a delivery run cannot be found.
	ErrRunNotFound = errors.New("delivery run not found")

	// ErrRunAlreadyClaimed is returned when attempting to claim a run
	// that is not in the PENDING state.
	ErrRunAlreadyClaimed = errors.New("delivery run already claimed or not in PENDING state")

	// ErrInvalidMessage is returned when a queue message is malformed.
	ErrInvalidMessage = errors.New("invalid run message")
)

// RetryableError wraps transient errors that should trigger a requeue.
// Only failures that happen before a run is claimed may be retryable; once
// a run has started its outcome is terminal.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error.
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
