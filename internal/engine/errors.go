// internal/engine/errors.go
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Common engine errors
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrNoLink          = errors.New("link not found")
	ErrNoForm          = errors.New("form not found")
	ErrNoButton        = errors.New("submit button not found")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeTimeout      ErrorCode = "TIMEOUT"
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeBrowserCrash ErrorCode = "BROWSER_CRASH"
	ErrCodeNetworkError ErrorCode = "NETWORK_ERROR"
	ErrCodeParseError   ErrorCode = "PARSE_ERROR"
	ErrCodeHTTPStatus   ErrorCode = "HTTP_STATUS"
	ErrCodeCanceled     ErrorCode = "CANCELED"
)

// EngineError wraps errors with additional context
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Retry      bool
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is matches another EngineError by code, or the underlying error.
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithRetry marks the error as retryable
func (e *EngineError) WithRetry() *EngineError {
	e.Retry = true
	return e
}

// Retryable reports whether another attempt may succeed.
func (e *EngineError) Retryable() bool {
	return e.Retry
}

// WithDetail adds a detail to the error
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	e.Details[key] = value
	return e
}

// Code returns the ErrorCode carried by err, or "" when err is not an
// EngineError.
func Code(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// IsNotFound reports whether err means a selector, link or form was missing.
func IsNotFound(err error) bool {
	return Code(err) == ErrCodeNotFound
}

// Classify wraps a transport error with a code derived from its cause.
func Classify(message string, err error) *EngineError {
	switch {
	case errors.Is(err, context.Canceled):
		return NewEngineError(ErrCodeCanceled, message, err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewEngineError(ErrCodeTimeout, message, err).WithRetry()
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return NewEngineError(ErrCodeTimeout, message, err).WithRetry()
	}
	return NewEngineError(ErrCodeNetworkError, message, err).WithRetry()
}
