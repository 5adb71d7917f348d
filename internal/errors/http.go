package errors

import (
	"fmt"
	"net/http"
)

// ClassifyHTTPStatus maps an HTTP status code to an error category:
// 4xx client errors (except 408 and 429) are irrecoverable, 5xx server
// errors and anything unexpected are treated as recoverable.
func ClassifyHTTPStatus(statusCode int) ErrorCategory {
	switch {
	case statusCode >= 400 && statusCode < 500:
		switch statusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return Recoverable
		default:
			return Irrecoverable
		}
	case statusCode >= 500 && statusCode < 600:
		return Recoverable
	default:
		// Unexpected status codes - be conservative and retry
		return Recoverable
	}
}

// NewHTTPError creates a classified store error for a non-success response.
// A 404 is reported as ErrNotFound wrapped in a StoreError so callers can
// distinguish missing records from transient failures.
func NewHTTPError(op string, statusCode int) *StoreError {
	underlying := fmt.Errorf("%s failed: HTTP %d", op, statusCode)
	if statusCode == http.StatusNotFound {
		underlying = fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return &StoreError{
		Category:   ClassifyHTTPStatus(statusCode),
		StatusCode: statusCode,
		Op:         op,
		Underlying: underlying,
	}
}

// NewNetworkError creates a classified store error for a network-level
// failure. Network errors are always recoverable as they may be transient.
func NewNetworkError(op string, err error) *StoreError {
	return &StoreError{
		Category:   Recoverable,
		Op:         op,
		Underlying: fmt.Errorf("%s network error: %w", op, err),
	}
}

// NewLocalError wraps a local durable store failure. Local failures are
// irrecoverable from the engine's point of view: there is no second store
// to fall back to.
func NewLocalError(op string, err error) *StoreError {
	return &StoreError{
		Category:   Irrecoverable,
		Op:         op,
		Underlying: err,
	}
}
