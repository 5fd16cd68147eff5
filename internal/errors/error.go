package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryProtocol Category = "protocol"
	CategoryRuntime  Category = "runtime"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// Error is a structured error with a registered code.
type Error struct {
	// Code is a unique error identifier (e.g., "W001").
	Code string

	// Category is the error type (protocol, runtime, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of this occurrence.
	Detail string

	// Unit names the render unit that was active when the error occurred.
	Unit string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Stack is the goroutine stack captured when a panic was recovered.
	Stack string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Unit != "" {
		msg += " (in " + e.Unit + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// IsProtocol reports whether the error is a protocol violation.
func (e *Error) IsProtocol() bool {
	return e.Category == CategoryProtocol
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detailed explanation to the error.
func (e *Error) WithDetailf(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithUnit records the enclosing render unit.
func (e *Error) WithUnit(name string) *Error {
	e.Unit = name
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithStack attaches a captured stack trace.
func (e *Error) WithStack(stack []byte) *Error {
	e.Stack = string(stack)
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an Error.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(code).Wrap(err)
}

// FromPanic converts a recovered panic value into an Error with the given code.
// Panics that already carry an *Error are returned unchanged.
func FromPanic(r any, code string) *Error {
	switch v := r.(type) {
	case *Error:
		return v
	case error:
		return New(code).Wrap(v)
	default:
		return New(code).WithDetail(fmt.Sprint(v))
	}
}

// HasCode reports whether err or any error it wraps (including every branch
// of a joined error) is an *Error with code.
func HasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok && e.Code == code {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if HasCode(inner, code) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return HasCode(u.Unwrap(), code)
	}
	return false
}

// IsProtocol reports whether err is, or wraps, a protocol violation.
func IsProtocol(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.IsProtocol()
}
