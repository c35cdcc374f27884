// Package errors provides the unified application error type for the API.
// Every error carries a machine-readable code, an HTTP status, a unique
// error id, and a unix timestamp so client-visible failures can be
// correlated with server logs.
package errors

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// ErrorID uniquely identifies this error occurrence.
	ErrorID string `json:"error_id"`
	// Timestamp is the unix time the error was created.
	Timestamp int64 `json:"timestamp"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with a fresh error id and timestamp.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
		ErrorID:    uuid.New().String(),
		Timestamp:  time.Now().Unix(),
	}
}

// --- Common Error Constructors ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound).
		WithDetail("resource", resource)
}

// AlreadyExists creates a new AppError for a resource that already exists.
// The original API reported duplicates as 400, which callers depend on.
func AlreadyExists(message string) *AppError {
	return New(ErrCodeAlreadyExists, message, http.StatusBadRequest)
}

// Validation creates a new AppError for invalid request input.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return New(ErrCodeMissingField, fmt.Sprintf("Missing required field: %s", field), http.StatusBadRequest).
		WithDetail("field", field)
}

// Unauthorized creates a new AppError for unauthenticated access.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required"
	}
	return New(ErrCodeUnauthorized, reason, http.StatusUnauthorized)
}

// Forbidden creates a new AppError for a caller lacking the required role.
// The message is deliberately generic: it must not reveal which role was
// missing.
func Forbidden() *AppError {
	return New(ErrCodeForbidden, "You do not have the required role(s)", http.StatusForbidden)
}

// InvalidToken creates a new AppError for a token that failed verification.
func InvalidToken() *AppError {
	return New(ErrCodeInvalidToken, "Invalid authentication token", http.StatusUnauthorized)
}

// TokenExpired creates a new AppError for an expired authentication token.
func TokenExpired() *AppError {
	return New(ErrCodeTokenExpired, "Your session has expired. Please log in again", http.StatusUnauthorized)
}

// TokenInactive creates a new AppError for a token the provider reports as
// no longer active.
func TokenInactive() *AppError {
	return New(ErrCodeTokenInactive, "Token is no longer active", http.StatusUnauthorized)
}

// AdminNotConfigured creates a new AppError for a missing identity-provider
// admin configuration. This is a deployment error, not a caller error.
func AdminNotConfigured() *AppError {
	return New(ErrCodeAdminNotConfigured,
		"Identity provider admin access is not configured",
		http.StatusInternalServerError)
}

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred", http.StatusInternalServerError).
		WithCause(cause)
}

// DatabaseError creates a new AppError for a database error. The failed
// operation is recorded for server-side correlation only.
func DatabaseError(operation string, cause error) *AppError {
	return New(ErrCodeDatabaseError, "A database error occurred. Please try again", http.StatusInternalServerError).
		WithDetail("operation", operation).
		WithCause(cause)
}

// ExternalServiceError creates a new AppError for an error from an external
// service such as the identity provider.
func ExternalServiceError(service string, cause error) *AppError {
	return New(ErrCodeExternalService,
		fmt.Sprintf("The %s service encountered an error. Please try again", service),
		http.StatusBadGateway).
		WithDetail("service", service).
		WithCause(cause)
}
