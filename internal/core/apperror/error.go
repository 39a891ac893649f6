// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All errors crossing a service boundary should be AppError for consistent responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal      = "INTERNAL_ERROR"
	CodeTimeout       = "TIMEOUT_ERROR"
	CodeRenderFailure = "RENDER_FAILURE"

	// Validation errors (400)
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidNumberFormat = "INVALID_NUMBER_FORMAT"

	// Numbering (409, 422)
	CodeAllocationConflict = "ALLOCATION_CONFLICT"
	CodeSequenceExhausted  = "SEQUENCE_EXHAUSTED"

	// Assets. Never surfaced to clients: the render degrades to a placeholder.
	CodeAssetUnavailable = "ASSET_UNAVAILABLE"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409), e.g. a duplicate annotation id
	CodeConflict = "CONFLICT"
)

// AppError is the standard error type for the engine.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, scope keys, etc.)
	Details map[string]any `json:"details,omitempty"`

	// Retryable tells the caller the same request may succeed after a backoff.
	Retryable bool `json:"retryable,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidNumberFormat reports a number string that matches no known family.
func NewInvalidNumberFormat(value string) *AppError {
	return &AppError{
		Code:       CodeInvalidNumberFormat,
		Message:    "Malformed document number",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"value": value},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewAllocationConflict signals that a counter could not be advanced atomically.
// The caller may retry with backoff.
func NewAllocationConflict(scope string, err error) *AppError {
	return &AppError{
		Code:       CodeAllocationConflict,
		Message:    "Sequence allocation conflict, retry later",
		HTTPStatus: http.StatusConflict,
		Retryable:  true,
		Details:    map[string]any{"scope": scope},
		Err:        err,
	}
}

// NewSequenceExhausted is returned when a counter outgrows the fixed width of its format.
func NewSequenceExhausted(scope string, limit int64) *AppError {
	return &AppError{
		Code:       CodeSequenceExhausted,
		Message:    "Sequence exhausted for scope",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"scope": scope, "limit": limit},
	}
}

// NewAssetUnavailable describes a seal, signature or QR image that could not be fetched.
func NewAssetUnavailable(key string, err error) *AppError {
	return &AppError{
		Code:       CodeAssetUnavailable,
		Message:    "Asset unavailable",
		HTTPStatus: http.StatusFailedDependency,
		Details:    map[string]any{"key": key},
		Err:        err,
	}
}

// NewRenderFailure wraps an unexpected layout or PDF error. Nothing partial is returned with it.
func NewRenderFailure(err error) *AppError {
	return &AppError{
		Code:       CodeRenderFailure,
		Message:    "Document rendering failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewTimeout reports an operation that exceeded its deadline.
func NewTimeout(operation string, err error) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    "Operation timed out",
		HTTPStatus: http.StatusGatewayTimeout,
		Details:    map[string]any{"operation": operation},
		Retryable:  true,
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsRetryable reports whether the error chain carries a retryable AppError.
func IsRetryable(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Retryable
	}
	return false
}

// IsAllocationConflict checks if error is CodeAllocationConflict
func IsAllocationConflict(err error) bool {
	return hasCode(err, CodeAllocationConflict)
}

func hasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
