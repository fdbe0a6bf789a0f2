package apperr

import (
	"errors"
	"fmt"
)

// Code is a stable identifier for a structural failure mode.
type Code string

const (
	// NotFound indicates an unknown slot or section id, or an out-of-range position or page
	NotFound Code = "NOT_FOUND"
	// StructureLocked indicates a mutation was attempted after an attempt exists
	StructureLocked Code = "STRUCTURE_LOCKED"
	// StructuralViolation indicates the operation would empty a section or break contiguity
	StructuralViolation Code = "STRUCTURAL_VIOLATION"
	// InvalidTarget indicates a target page or value outside the allowed bounds
	InvalidTarget Code = "INVALID_TARGET"
)

// Sentinels for errors.Is. They match any *Error with the same code.
var (
	ErrNotFound            = &Error{Code: NotFound}
	ErrStructureLocked     = &Error{Code: StructureLocked}
	ErrStructuralViolation = &Error{Code: StructuralViolation}
	ErrInvalidTarget       = &Error{Code: InvalidTarget}
)

// Error is a coded structure-engine error.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

// New creates an Error with a fixed message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that keeps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches on code so that errors.Is(err, ErrNotFound) works for any NotFound error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
