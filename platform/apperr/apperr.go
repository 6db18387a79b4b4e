// Package apperr provides standardized domain error types for the application.
// Domain services return these typed errors, and the HTTP layer maps them to
// appropriate HTTP status codes and machine-readable error codes.
package apperr

import (
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindNotFound indicates a resource was not found.
	KindNotFound
	// KindValidation indicates invalid input data.
	KindValidation
	// KindConflict indicates a conflict with existing state (e.g., duplicate
	// contact, stale stage precondition).
	KindConflict
	// KindUnprocessable indicates a request that is well-formed but violates
	// a domain rule (e.g., a stage transition not in the allowed table).
	KindUnprocessable
	// KindUnauthorized indicates authentication is required or failed.
	KindUnauthorized
	// KindBadRequest indicates a malformed or invalid request.
	KindBadRequest
	// KindInternal indicates an unexpected internal error.
	KindInternal
)

// Error is a domain error with a typed Kind for HTTP mapping. Code carries a
// stable machine-readable identifier so API clients can branch on the error
// without parsing the message. Fields carries the field-keyed validation map
// when the error aggregates multiple input violations.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Op      string            // Operation that failed (optional)
	Err     error             // Underlying error (optional)
	Fields  map[string]string // Field-keyed violations (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// New creates a new domain error with the given kind, code and message.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// WithOp returns the error with the operation set.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithFields returns the error with a field-keyed violation map attached.
func (e *Error) WithFields(fields map[string]string) *Error {
	e.Fields = fields
	return e
}

// Convenience constructors for common error types.

// NotFound creates a not found error.
func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

// Validation creates a validation error carrying all field violations at once.
func Validation(fields map[string]string) *Error {
	return New(KindValidation, "VALIDATION_FAILED", "validation failed").WithFields(fields)
}

// Conflict creates a conflict error (duplicate contact, stale precondition).
func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

// Unprocessable creates a domain-rule violation error.
func Unprocessable(code, message string) *Error {
	return New(KindUnprocessable, code, message)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, "UNAUTHORIZED", message)
}

// BadRequest creates a bad request error.
func BadRequest(message string) *Error {
	return New(KindBadRequest, "BAD_REQUEST", message)
}

// Internal creates an internal server error.
func Internal(message string) *Error {
	return New(KindInternal, "INTERNAL", message)
}

// GetKind extracts the error kind from an error.
// Returns KindUnknown if the error is not an *Error.
func GetKind(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindUnknown
}

// GetCode extracts the machine code from an error, or "" for untyped errors.
func GetCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// Is checks if err is an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
