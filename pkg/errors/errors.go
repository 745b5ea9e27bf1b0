package errors

import (
	"github.com/go-kratos/kratos/v2/errors"
)

// Error reasons returned to hook callers.
const (
	ReasonBadRequest         = "BAD_REQUEST"
	ReasonInvalidPayload     = "INVALID_PAYLOAD"
	ReasonUnknownEvent       = "UNKNOWN_EVENT"
	ReasonUnauthorized       = "UNAUTHORIZED"
	ReasonTokenExpired       = "TOKEN_EXPIRED"
	ReasonForbidden          = "FORBIDDEN"
	ReasonNotFound           = "NOT_FOUND"
	ReasonInternal           = "INTERNAL_SERVER_ERROR"
	ReasonServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Common errors
var (
	ErrBadRequest          = errors.BadRequest(ReasonBadRequest, "Bad request")
	ErrUnauthorized        = errors.Unauthorized(ReasonUnauthorized, "Unauthorized")
	ErrNotFound            = errors.NotFound(ReasonNotFound, "Resource not found")
	ErrInternalServerError = errors.InternalServer(ReasonInternal, "Internal server error")
	ErrServiceUnavailable  = errors.ServiceUnavailable(ReasonServiceUnavailable, "Service unavailable")
)

// NewBadRequest creates a new bad request error.
func NewBadRequest(reason, message string) *errors.Error {
	return errors.BadRequest(reason, message)
}

// NewUnauthorized creates a new unauthorized error.
func NewUnauthorized(reason, message string) *errors.Error {
	return errors.Unauthorized(reason, message)
}

// NewForbidden creates a new forbidden error.
func NewForbidden(reason, message string) *errors.Error {
	return errors.Forbidden(reason, message)
}

// NewNotFound creates a new not found error.
func NewNotFound(reason, message string) *errors.Error {
	return errors.NotFound(reason, message)
}

// NewInternalServerError creates a new internal server error.
func NewInternalServerError(reason, message string) *errors.Error {
	return errors.InternalServer(reason, message)
}

// NewServiceUnavailable creates a new service unavailable error.
func NewServiceUnavailable(reason, message string) *errors.Error {
	return errors.ServiceUnavailable(reason, message)
}
