package errors

import (
	"fmt"
	"net/http"
)

// AppError is an application error carrying an HTTP status, a stable numeric
// code and whether a retry could help. The internal error never reaches the
// client.
type AppError struct {
	Code       int                    `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Internal   error                  `json:"-"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewAppError creates a new application error.
func NewAppError(statusCode int, code int, message string, internal error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Internal:   internal,
		StatusCode: statusCode,
		Metadata:   make(map[string]interface{}),
		Retryable:  false,
	}
}

// WithDetails attaches extra detail text to the error.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithMetadata attaches a metadata key/value to the error.
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithRetryable marks the error as retryable.
func (e *AppError) WithRetryable(retryable bool) *AppError {
	e.Retryable = retryable
	return e
}

// Predefined constructors for sync failures.
var (
	ErrBadRequest = func(details string, err error) *AppError {
		return NewAppError(http.StatusBadRequest, 40000, "Invalid request", err).
			WithDetails(details)
	}

	ErrUnauthorized = func(details string, err error) *AppError {
		return NewAppError(http.StatusUnauthorized, 40100, "Authentication failed", err).
			WithDetails(details).
			WithRetryable(false)
	}

	ErrNotFound = func(details string, err error) *AppError {
		return NewAppError(http.StatusNotFound, 40400, "Resource not found", err).
			WithDetails(details)
	}

	ErrRateLimited = func(details string, err error) *AppError {
		return NewAppError(http.StatusTooManyRequests, 42900, "Rate limit exceeded", err).
			WithDetails(details).
			WithRetryable(true)
	}

	ErrInternalServer = func(details string, err error) *AppError {
		return NewAppError(http.StatusInternalServerError, 50000, "Internal server error", err).
			WithDetails(details).
			WithRetryable(true)
	}

	ErrValidation = func(details string, err error) *AppError {
		return NewAppError(http.StatusUnprocessableEntity, 42200, "Validation error", err).
			WithDetails(details)
	}

	// ErrUpstream wraps a non-2xx from either vendor API. 5xx and 429
	// responses are retryable, other 4xx are not.
	ErrUpstream = func(vendor string, statusCode int, details string, err error) *AppError {
		return NewAppError(http.StatusBadGateway, 50200, "Upstream API error", err).
			WithDetails(details).
			WithMetadata("vendor", vendor).
			WithMetadata("upstream_status_code", statusCode).
			WithRetryable(statusCode >= 500 || statusCode == http.StatusTooManyRequests)
	}
)

// IsRetryable reports whether a retry of the failed call could succeed.
func IsRetryable(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Retryable
	}
	return false
}

// GetStatusCode extracts the HTTP status to answer with for an error.
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
