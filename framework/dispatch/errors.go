package dispatch

import (
	"fmt"
	"net/http"
)

// BodyParseError is returned when the request body of a mutating request
// cannot be parsed. The request is rejected before the middleware chain
// runs.
type BodyParseError struct {
	Cause error
}

func (e *BodyParseError) Error() string {
	return fmt.Sprintf("dispatch: malformed request body: %v", e.Cause)
}

func (e *BodyParseError) Unwrap() error { return e.Cause }

// PanicError wraps a panic recovered at the dispatch boundary.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("dispatch: recovered panic: %v", e.Value)
}

// HTTPError is an error with an intended response status. Middleware and
// handlers return it (or one of the helper constructors) to pick the
// status the classifier maps to; Body optionally overrides the default
// error envelope entirely.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Body    any
	Cause   error
}

func (e *HTTPError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dispatch: %s (%d): %v", e.Code, e.Status, e.Cause)
	}
	return fmt.Sprintf("dispatch: %s (%d): %s", e.Code, e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error { return e.Cause }

// NewHTTPError builds an HTTPError with an explicit status and code.
func NewHTTPError(status int, code, message string) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message}
}

// ErrUnauthorized builds a 401 error.
func ErrUnauthorized(message string) *HTTPError {
	if message == "" {
		message = "authentication required"
	}
	return NewHTTPError(http.StatusUnauthorized, "unauthorized", message)
}

// ErrForbidden builds a 403 error.
func ErrForbidden(message string) *HTTPError {
	if message == "" {
		message = "insufficient permissions"
	}
	return NewHTTPError(http.StatusForbidden, "forbidden", message)
}

// ErrNotFound builds a 404 error.
func ErrNotFound(message string) *HTTPError {
	if message == "" {
		message = "not found"
	}
	return NewHTTPError(http.StatusNotFound, "not_found", message)
}

// ErrTooManyRequests builds a 429 error.
func ErrTooManyRequests(message string) *HTTPError {
	if message == "" {
		message = "rate limit exceeded"
	}
	return NewHTTPError(http.StatusTooManyRequests, "rate_limited", message)
}

// ErrValidation builds a 422 error whose response body is the validation
// error bag itself.
func ErrValidation(bag any) *HTTPError {
	return &HTTPError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "validation_failed",
		Message: "the given data was invalid",
		Body:    bag,
	}
}
