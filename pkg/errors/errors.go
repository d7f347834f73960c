// Package errors provides structured error types for genelim.
//
// Errors carry a machine-readable [Code] so that the CLI, the HTTP API and
// library callers can tell the error classes of a locus pass apart:
//   - INVALID_*: malformed pedigrees, datasets or options
//   - CONFIGURATION: limits the platform cannot represent (too many alleles)
//   - INCONSISTENT: a Mendelian contradiction in the genotype data
//   - INTERNAL: a broken compiler invariant (never caused by input data)
//   - CANCELLED: the caller interrupted a long-running search
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPedigree, "unknown sire %q", id)
//	if errors.Is(err, errors.ErrCodeInvalidPedigree) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInconsistent, cause, "locus %s", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidPedigree Code = "INVALID_PEDIGREE"
	ErrCodeInvalidLocus    Code = "INVALID_LOCUS"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Limits that the bitset representation cannot express
	ErrCodeConfiguration Code = "CONFIGURATION"

	// Data errors
	ErrCodeInconsistent Code = "INCONSISTENT"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeStorage  Code = "STORAGE_ERROR"

	// Run control
	ErrCodeCancelled Code = "CANCELLED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message followed by the cause, without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// IsFatal reports whether an error must stop the whole run regardless of
// diagnosis settings. Configuration and internal errors are fatal; data
// inconsistencies are fatal only when no diagnosis was requested, which is
// decided by the caller.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeConfiguration, ErrCodeInternal, ErrCodeCancelled:
		return true
	}
	return false
}
