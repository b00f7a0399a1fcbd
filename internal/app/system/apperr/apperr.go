// Package apperr defines the error taxonomy shared by stores and handlers.
//
// Stores wrap ErrNotFound or ErrInvalidInput with a human message; handlers
// map them to 404, 400 and 409 with jsonutil.FromError. Anything else is a storage
// failure and becomes a 500.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced row (folder, file, material, table) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means the request payload cannot be applied.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict means the request collides with existing data (a table or
	// unique value that already exists).
	ErrConflict = errors.New("conflict")
)

type appError struct {
	kind  error
	msg   string
	cause error
}

func (e *appError) Error() string { return e.msg }

// Unwrap exposes both the kind and, when set, the underlying driver error.
func (e *appError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// NotFound returns an error matching ErrNotFound whose message is msg.
func NotFound(msg string) error {
	return &appError{kind: ErrNotFound, msg: msg}
}

// Invalid returns an error matching ErrInvalidInput whose message is msg.
func Invalid(msg string) error {
	return &appError{kind: ErrInvalidInput, msg: msg}
}

// Conflict returns an error matching ErrConflict whose message is msg.
func Conflict(msg string) error {
	return &appError{kind: ErrConflict, msg: msg}
}

// ConflictFrom is Conflict keeping cause reachable through errors.As, so a
// constraint violation is still inspectable after mapping.
func ConflictFrom(msg string, cause error) error {
	return &appError{kind: ErrConflict, msg: msg, cause: cause}
}

// Invalidf is Invalid with formatting.
func Invalidf(format string, args ...any) error {
	return Invalid(fmt.Sprintf(format, args...))
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is (or wraps) ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsInvalid reports whether err is (or wraps) ErrInvalidInput.
func IsInvalid(err error) bool { return errors.Is(err, ErrInvalidInput) }
