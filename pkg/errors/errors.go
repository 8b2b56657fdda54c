package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies failures across the pipeline. The type decides whether
// an operation is retried, skipped, or fatal to the run.
type ErrorType string

const (
	ErrorTypeNetwork          ErrorType = "network"
	ErrorTypeThrottled        ErrorType = "throttled"
	ErrorTypeAuth             ErrorType = "auth"
	ErrorTypeMalformedRecord  ErrorType = "malformed_record"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeServerError      ErrorType = "server_error"
	ErrorTypeMediaUnavailable ErrorType = "media_unavailable"
	ErrorTypeArchival         ErrorType = "archival"
	ErrorTypeExhausted        ErrorType = "exhausted"
	ErrorTypeUnknown          ErrorType = "unknown"
)

// Error is a typed pipeline error. Code carries the HTTP status when the
// error originated from an API response, 0 otherwise.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	cause   error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a typed error.
func New(errorType ErrorType, message string, code int) *Error {
	return &Error{Type: errorType, Message: message, Code: code}
}

// Wrap creates a typed error around an underlying cause.
func Wrap(errorType ErrorType, cause error, message string) *Error {
	return &Error{Type: errorType, Message: message, cause: cause}
}

// IsRetryable reports whether an error type should be retried.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeThrottled, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode reports whether an HTTP status code indicates a
// retryable failure.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500
	}
}

// TypeOf extracts the ErrorType from err, or ErrorTypeUnknown when err is not
// a typed pipeline error.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsExhausted reports whether err means the retry budget was spent. Callers
// treat this as "no data for this call", never as a reason to abort a batch.
func IsExhausted(err error) bool {
	return TypeOf(err) == ErrorTypeExhausted
}

// IsThrottled reports whether err, or any error in its cause chain, was an
// explicit throttling signal. An exhausted error wrapping a throttle still
// counts.
func IsThrottled(err error) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Type == ErrorTypeThrottled {
			return true
		}
		err = e.Unwrap()
	}
	return false
}
