// Package apperr defines the closed set of error kinds surfaced by the core,
// per the error handling design. Every component returns one of these so a
// caller (HTTP glue, a workflow, a test) can branch on Kind without parsing
// strings.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a closed classification of failures surfaced by the core.
type Kind int

const (
	// KindUnknown is never returned deliberately; its presence means a
	// lower layer returned a bare error that was not classified.
	KindUnknown Kind = iota
	KindInvalidRequest
	KindNotFound
	KindPreconditionFailed
	KindModelTransient
	KindModelSchema
	KindStorage
	KindCancelled
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "InvalidRequest"
	case KindNotFound:
		return "NotFound"
	case KindPreconditionFailed:
		return "PreconditionFailed"
	case KindModelTransient:
		return "ModelTransientError"
	case KindModelSchema:
		return "ModelSchemaError"
	case KindStorage:
		return "StorageError"
	case KindCancelled:
		return "Cancelled"
	case KindConflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with a Kind so callers can branch on it
// with errors.As without depending on string matching.
type Error struct {
	kind    Kind
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the classification of this error.
func (e *Error) Kind() Kind { return e.kind }

func new_(kind Kind, msg string, cause error) *Error {
	return &Error{kind: kind, message: msg, cause: cause}
}

func InvalidRequest(msg string, args ...interface{}) *Error {
	return new_(KindInvalidRequest, fmt.Sprintf(msg, args...), nil)
}

func NotFound(msg string, args ...interface{}) *Error {
	return new_(KindNotFound, fmt.Sprintf(msg, args...), nil)
}

func PreconditionFailed(msg string, args ...interface{}) *Error {
	return new_(KindPreconditionFailed, fmt.Sprintf(msg, args...), nil)
}

func Conflict(msg string, args ...interface{}) *Error {
	return new_(KindConflict, fmt.Sprintf(msg, args...), nil)
}

func ModelTransient(cause error, msg string, args ...interface{}) *Error {
	return new_(KindModelTransient, fmt.Sprintf(msg, args...), cause)
}

func ModelSchema(cause error, msg string, args ...interface{}) *Error {
	return new_(KindModelSchema, fmt.Sprintf(msg, args...), cause)
}

func Storage(cause error, msg string, args ...interface{}) *Error {
	return new_(KindStorage, fmt.Sprintf(msg, args...), cause)
}

func Cancelled(msg string, args ...interface{}) *Error {
	return new_(KindCancelled, fmt.Sprintf(msg, args...), nil)
}

// As is a small convenience wrapper around errors.As for the common case of
// wanting just the Kind of an arbitrary error (defaulting to KindUnknown).
func As(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	return As(err) == kind
}
