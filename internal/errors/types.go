// Package errors provides the error taxonomy for the sync engine:
// user-correctable validation failures, auth-required rejections, and
// store failures classified by recoverability so callers can decide
// whether an operation may be retried or redirected to the local store.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory determines how store failures should be handled.
type ErrorCategory int

const (
	// Recoverable errors are transient: network timeouts, connection
	// failures, 5xx responses. The engine may fall back to the local
	// store for writes that hit one of these.
	Recoverable ErrorCategory = iota

	// Irrecoverable errors will not succeed on retry: 401, 403, 400.
	Irrecoverable
)

func (c ErrorCategory) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// ErrNotFound is returned by store adapters when a record does not exist.
// Deletes treat it as success so repeated deletes are safe.
var ErrNotFound = stderrors.New("item not found")

// ErrAuthRequired is returned when a write is attempted while signed out.
// The caller must sign in or continue as guest.
var ErrAuthRequired = stderrors.New("sign in or continue as guest to save items")

// ErrRemoteDisabled is returned when an operation needs the remote store
// but none is configured (empty base URL).
var ErrRemoteDisabled = stderrors.New("remote store not configured")

// ValidationError reports input rejected before any store access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return stderrors.As(err, &ve)
}

// IsAuthRequired reports whether err means the caller must authenticate.
func IsAuthRequired(err error) bool { return stderrors.Is(err, ErrAuthRequired) }

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool { return stderrors.Is(err, ErrNotFound) }

// StoreError wraps a store or network failure with categorization metadata.
type StoreError struct {
	Category   ErrorCategory
	StatusCode int    // HTTP status code (0 for non-HTTP failures)
	Op         string // store operation that failed
	Underlying error
}

func (e *StoreError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s: HTTP %d: %v", e.Category, e.Op, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Underlying)
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *StoreError) Unwrap() error { return e.Underlying }

// IsTransient reports whether err is a store failure worth retrying or
// redirecting to the local store.
func IsTransient(err error) bool {
	var se *StoreError
	return stderrors.As(err, &se) && se.Category == Recoverable
}

// IsIrrecoverable reports whether err is a store failure that will not
// succeed on retry.
func IsIrrecoverable(err error) bool {
	var se *StoreError
	return stderrors.As(err, &se) && se.Category == Irrecoverable
}
