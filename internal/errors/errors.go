// Package errors defines the error taxonomy shared by the solar core and the
// service layer.
//
// Every failure raised by the core is a local, deterministic validation error
// carrying a machine-readable [Code]. Callers branch on the code with [Is] and
// show [UserMessage] to people.
//
//	err := errors.New(errors.ErrCodeDimensionMismatch, "band %d is %dx%d", i, w, h)
//	if errors.Is(err, errors.ErrCodeDimensionMismatch) {
//	    // upstream data bug, do not retry
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Core validation errors.
	ErrCodeInvalidPalette     Code = "INVALID_PALETTE"
	ErrCodeDimensionMismatch  Code = "DIMENSION_MISMATCH"
	ErrCodeUnsupportedLayerID Code = "UNSUPPORTED_LAYER_ID"
	ErrCodeEmptyConfigList    Code = "EMPTY_CONFIG_LIST"

	// Service errors.
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeSuperseded   Code = "SUPERSEDED"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// The outermost *Error in the chain decides.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
