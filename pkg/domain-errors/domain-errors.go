// Package domainerrors carries a stable failure category from the layer that
// detects a problem to the layer that reports it. Transports map a Code to
// their own status space; nothing here knows about HTTP.
package domainerrors

import "errors"

type Code string

const (
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"

	// A collaborator (store or publisher) failed; Err holds its error.
	CodeStorageFailure Code = "storage_failure"
	CodePublishFailure Code = "publish_failure"
)

// Error pairs a Code with a human-readable message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match for any *Error target with the same Code, so
// errors.Is(err, &Error{Code: CodeConflict}) works as a category test.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches msg to err. A code already present in err's chain wins over
// code, so a store's not_found survives being wrapped as storage_failure.
func Wrap(err error, code Code, msg string) error {
	if existing, ok := find(err); ok {
		code = existing.Code
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether the outermost *Error in err's chain has code.
func HasCode(err error, code Code) bool {
	e, ok := find(err)
	return ok && e.Code == code
}

// CodeOf returns the outermost code in err's chain, CodeInternal if none.
func CodeOf(err error) Code {
	if e, ok := find(err); ok {
		return e.Code
	}
	return CodeInternal
}

func find(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
