package pocketsync

import (
	syncerrors "github.com/pocketsync/pocketsync/internal/errors"
)

// Re-export shared errors so callers compare against a single symbol.
var (
	// ErrNotFound reports that an item does not exist in the store asked.
	ErrNotFound = syncerrors.ErrNotFound

	// ErrAuthRequired reports a write attempted while signed out.
	ErrAuthRequired = syncerrors.ErrAuthRequired

	// ErrRemoteDisabled reports a sync attempted with no remote service
	// configured.
	ErrRemoteDisabled = syncerrors.ErrRemoteDisabled
)

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool { return syncerrors.IsValidation(err) }

// IsAuthRequired reports whether err was caused by the signed-out state.
func IsAuthRequired(err error) bool { return syncerrors.IsAuthRequired(err) }

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return syncerrors.IsNotFound(err) }

// IsTransient reports whether the failed operation is worth retrying:
// network errors and recoverable HTTP statuses such as 429 and 5xx.
func IsTransient(err error) bool { return syncerrors.IsTransient(err) }
