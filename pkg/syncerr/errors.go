package syncerr

import (
	"errors"
	"fmt"
)

// Kind classifies a sync failure for retry policy and user messaging.
type Kind string

const (
	KindConfigInvalid    Kind = "CONFIG_INVALID"
	KindAuthExpired      Kind = "AUTH_EXPIRED"
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	KindTargetNotFound   Kind = "TARGET_NOT_FOUND"
	KindInvalidPayload   Kind = "INVALID_PAYLOAD"
	KindTransient        Kind = "TRANSIENT"
	KindCancelled        Kind = "CANCELLED"
	KindTimeout          Kind = "TIMEOUT"
)

// Error carries the classified kind alongside a human-readable message and
// the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds a sync error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a classification to an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the classification from err, classifying raw errors on the
// fly so call sites can treat any failure uniformly.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return Classify(err).Kind
}

// Retryable reports whether the caller should retry the failed operation.
// Only transient failures are retried; expired credentials are handled by a
// single silent re-authentication, not blind retry.
func Retryable(kind Kind) bool {
	return kind == KindTransient
}

// Remediation returns an actionable user-facing message for fatal kinds.
func Remediation(kind Kind) string {
	switch kind {
	case KindConfigInvalid:
		return "calendar integration is misconfigured; check the client ID, API key, and authorized domains"
	case KindAuthExpired:
		return "your calendar session has expired; reconnect your Google account"
	case KindPermissionDenied:
		return "calendar access was denied; re-grant calendar permissions or check API quota"
	case KindTargetNotFound:
		return "the linked calendar event no longer exists; it will be recreated on the next sync"
	case KindInvalidPayload:
		return "the task has an invalid date or recurrence setting; fix it and sync again"
	case KindCancelled:
		return "the Google sign-in prompt was dismissed; try connecting again"
	case KindTimeout:
		return "the calendar service took too long to respond; try again"
	default:
		return "a temporary calendar error occurred; the sync will be retried"
	}
}
