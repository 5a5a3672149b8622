package models

import (
	"fmt"
	"net/http"
)

// APIError is a typed domain error carrying the HTTP status the dispatch
// boundary should map it to. Lower layers raise APIErrors (or sentinel
// errors wrapped by them) and never format HTTP responses themselves.
type APIError struct {
	// Kind is the machine-readable error kind.
	Kind string `json:"error"`
	// Message provides human-readable detail.
	Message string `json:"message,omitempty"`
	// StatusCode is the HTTP status to return (excluded from JSON).
	StatusCode int `json:"-"`
}

// NewValidationError creates a 400 error for malformed or missing input.
func NewValidationError(message string) *APIError {
	return &APIError{
		Kind:       "validation_error",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewAuthError creates a 401 error for missing, invalid, or expired tokens.
func NewAuthError(message string) *APIError {
	return &APIError{
		Kind:       "auth_error",
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewNotFoundError creates a 404 error for unknown routes or entities.
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Kind:       "not_found",
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewRateLimitError creates a 429 error for rate limited requests.
func NewRateLimitError(message string) *APIError {
	return &APIError{
		Kind:       "rate_limit_exceeded",
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

// NewServerError creates a 500 error for unexpected downstream failures.
func NewServerError(message string) *APIError {
	return &APIError{
		Kind:       "server_error",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind
}

// ValidationError is a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface in "field: message" form.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects field validation failures for one request.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("validation failed with %d errors", len(e))
}

// HasErrors reports whether any validation failure was recorded.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}
