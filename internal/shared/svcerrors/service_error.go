package svcerrors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	categoryInvalidArgument  = "invalid_argument"
	categoryUnauthenticated  = "unauthenticated"
	categoryResourceConflict = "resource_conflict"
	categoryUnavailable      = "unavailable"
	categoryInternal         = "internal"
)

const (
	errorCodeInternalPanic     = "SYS_9000"
	errorCodeInternalUndefined = "SYS_9001"
)

// ServiceError represents a service-level error with category, code, message, and cause.
// It implements the error interface and supports error wrapping.
type ServiceError struct {
	Category       string // invalid_argument, unauthenticated, resource_conflict, unavailable or internal
	Code           string // service-owned stable code (e.g. USG_1000)
	Message        string // client-safe, human-readable
	Cause          error  // wrapped underlying error
	HttpStatusCode int
}

func newServiceError(category string, status int, code, message string, cause error) *ServiceError {
	return &ServiceError{
		Category:       category,
		Code:           code,
		Message:        message,
		Cause:          cause,
		HttpStatusCode: status,
	}
}

// NewInvalidArgumentError creates a ServiceError answered with 400.
func NewInvalidArgumentError(code, message string, cause error) *ServiceError {
	return newServiceError(categoryInvalidArgument, http.StatusBadRequest, code, message, cause)
}

// NewUnauthenticatedError creates a ServiceError answered with 401.
func NewUnauthenticatedError(code, message string, cause error) *ServiceError {
	return newServiceError(categoryUnauthenticated, http.StatusUnauthorized, code, message, cause)
}

// NewResourceConflictError creates a ServiceError answered with 409.
func NewResourceConflictError(code, message string, cause error) *ServiceError {
	return newServiceError(categoryResourceConflict, http.StatusConflict, code, message, cause)
}

// NewUnavailableError creates a ServiceError answered with 503.
func NewUnavailableError(code, message string, cause error) *ServiceError {
	return newServiceError(categoryUnavailable, http.StatusServiceUnavailable, code, message, cause)
}

// NewInternalError creates a ServiceError answered with 500. The message is never client specific.
func NewInternalError(code string, cause error) *ServiceError {
	return newServiceError(categoryInternal, http.StatusInternalServerError, code, "internal server error", cause)
}

func NewInternalErrorUndefined(cause error) *ServiceError {
	return NewInternalError(errorCodeInternalUndefined, cause)
}

func NewInternalErrorPanic(cause error) *ServiceError {
	return NewInternalError(errorCodeInternalPanic, cause)
}

// AsServiceError extracts a ServiceError from the error chain.
func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error to support errors.Is and errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

func (e *ServiceError) IsInternalError() bool {
	return e.Category == categoryInternal
}
