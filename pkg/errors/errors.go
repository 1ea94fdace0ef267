package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies application errors
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeResolve      ErrorCode = "RESOLVE_FAILED"
	ErrCodeCapture      ErrorCode = "CAPTURE_FAILED"
	ErrCodeLogWrite     ErrorCode = "LOG_WRITE_FAILED"
	ErrCodeExport       ErrorCode = "EXPORT_FAILED"
	ErrCodeUnavailable  ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError is an application error with a code and optional context
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// HTTPStatus maps the error code to an HTTP status for API responses
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with an application error
func WrapError(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// CodeOf extracts the error code from an error chain, or
// ErrCodeInternal when the chain carries no AppError
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// Common error constructors
func NewInvalidInputError(message string) *AppError {
	return NewAppError(ErrCodeInvalidInput, message)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func NewUnavailableError(message string) *AppError {
	return NewAppError(ErrCodeUnavailable, message)
}
