// Package errors provides a small error type that can carry a cause,
// so that sentinel errors exported by status packages can be wrapped
// with context without resorting to fmt.Errorf("%w", err).
package errors

import (
	stderr "errors"
)

var _ error = New("")

// New builds a new Error with a fixed message
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error is an error with a message and an optional cause.
//
// Unlike github.com/pkg/errors, wrapping starts from an error value,
// not from text, so sentinel errors remain comparable with Is.
type Error struct {
	msg  string
	err  error
	from *Error
}

// Error message
func (e *Error) Error() string {
	return e.msg
}

// Unwrap the cause, if any
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Wrap a cause under this error.
//
// Wrap does not mutate its receiver: it returns a derived error that
// still matches the receiver with Is, so package-level sentinels may
// be wrapped concurrently.
func (e *Error) Wrap(err error) *Error {
	from := e.from
	if from == nil {
		from = e
	}
	return &Error{msg: e.msg, err: err, from: from}
}

// Is of some error type?
func (e *Error) Is(target error) bool {
	return e == target || e.from == target || e.err == target
}

// As finds the first error in err's chain that matches target
// (a shortcut to the standard lib errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to the standard lib errors.Is)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
