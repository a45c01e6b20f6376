// Package errors provides the structured error taxonomy shared by every
// storageprobe provider and engine: configuration, connection, not-found,
// and operation errors with codes and retryability hints.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a specific failure mode.
type ErrorCode string

const (
	// Configuration errors: fail fast, never retried.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrCodeMissingConfig ErrorCode = "MISSING_CONFIG"

	// Connection errors: backend unreachable or unauthorized.
	ErrCodeConnectionFailed     ErrorCode = "CONNECTION_FAILED"
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"

	// Not-found errors: expected, recoverable absence.
	ErrCodeObjectNotFound ErrorCode = "OBJECT_NOT_FOUND"
	ErrCodeBucketNotFound ErrorCode = "BUCKET_NOT_FOUND"

	// Operation errors: backend rejected a read/write for another reason.
	ErrCodeOperationFailed    ErrorCode = "OPERATION_FAILED"
	ErrCodePreconditionFailed ErrorCode = "PRECONDITION_FAILED"
)

// ErrorCategory groups error codes by handling policy.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryConnection    ErrorCategory = "connection"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryOperation     ErrorCategory = "operation"
)

// Error is a structured error carrying a code, category, and optional cause.
type Error struct {
	Code      ErrorCode     `json:"code"`
	Category  ErrorCategory `json:"category"`
	Message   string        `json:"message"`
	Cause     error         `json:"-"`
	Retryable bool          `json:"retryable"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on error code so sentinel-style comparisons work.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// New creates a structured error for code.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:      code,
		Category:  categoryOf(code),
		Message:   message,
		Retryable: retryableByDefault(code),
	}
}

// Newf creates a structured error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a structured error around an underlying cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	e := New(code, message)
	e.Cause = cause
	return e
}

func categoryOf(code ErrorCode) ErrorCategory {
	switch code {
	case ErrCodeInvalidConfig, ErrCodeMissingConfig:
		return CategoryConfiguration
	case ErrCodeConnectionFailed, ErrCodeAuthenticationFailed:
		return CategoryConnection
	case ErrCodeObjectNotFound, ErrCodeBucketNotFound:
		return CategoryNotFound
	default:
		return CategoryOperation
	}
}

func retryableByDefault(code ErrorCode) bool {
	return code == ErrCodeConnectionFailed
}

// CodeOf extracts the error code from err, or empty if err is not a
// structured error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound reports whether err means an object or bucket is absent.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == CategoryNotFound
}

// IsConnection reports whether err is a connectivity or auth failure.
func IsConnection(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == CategoryConnection
}

// IsConfiguration reports whether err is a configuration failure.
func IsConfiguration(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == CategoryConfiguration
}
