package booking

import (
	"fmt"
	"time"
)

// Kind is the closed enumeration of booking failure categories surfaced to
// callers. Every failure carries a kind plus a human-readable reason; none is
// raised as an uncontrolled fault.
type Kind string

const (
	KindInvalidRequest       Kind = "invalid_request"
	KindEventNotFound        Kind = "event_not_found"
	KindVenueInactive        Kind = "venue_inactive"
	KindEventNotOpen         Kind = "event_not_open"
	KindInsufficientCapacity Kind = "insufficient_capacity"
	KindStorageFailure       Kind = "storage_failure"
)

// Error is a structured booking failure. Remaining is populated for
// KindInsufficientCapacity so the caller can adjust and resubmit.
type Error struct {
	Kind      Kind
	Message   string
	Remaining int64
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Retriable reports whether resubmitting the same request may succeed
// without any change on the caller's side. Only storage failures are
// transient; a capacity rejection is definitive for the requested count.
func (e *Error) Retriable() bool { return e.Kind == KindStorageFailure }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func storageError(cause error) *Error {
	return &Error{
		Kind:    KindStorageFailure,
		Message: "storage unavailable or transaction aborted",
		cause:   cause,
	}
}

// RateLimitedError is returned before any validation when the caller exceeds
// the booking rate limit.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}
