// Package errors provides structured error types for keygraph.
//
// Every failure surfaced by the object-graph core belongs to a small
// taxonomy of terminal, non-retryable kinds. Each kind is identified by a
// machine-readable [Code] so that callers (the CLI, the HTTP API) can react
// without string matching.
//
// # Error Codes
//
//   - INVALID_IDENTITY: a path does not resolve against its domain root
//   - NON_SERIALIZABLE_TYPE / NON_SERIALIZABLE_PROPERTY: missing metadata
//   - SERIALIZATION: malformed or truncated documents
//   - UNSUPPORTED_VERSION / UNSUPPORTED_UPGRADE: version mismatch
//   - MISSING_PARENT: reconstruction found an orphaned child path
//   - DUPLICATE_PATH: the same path was read twice
//
// # Wrapping Policy
//
// Helpers wrap low-level errors once into the nearest taxonomy kind.
// [Wrap] returns an error that already carries a code unchanged, so an
// error is never double-wrapped as it travels up the call stack.
//
//	err := errors.New(errors.ErrCodeInvalidIdentity, "unknown root %q", urn)
//	if errors.Is(err, errors.ErrCodeInvalidIdentity) {
//	    // Handle identity error
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Identity errors
	ErrCodeInvalidIdentity Code = "INVALID_IDENTITY"

	// Metadata errors
	ErrCodeNonSerializableType     Code = "NON_SERIALIZABLE_TYPE"
	ErrCodeNonSerializableProperty Code = "NON_SERIALIZABLE_PROPERTY"

	// Document errors
	ErrCodeSerialization      Code = "SERIALIZATION"
	ErrCodeUnsupportedVersion Code = "UNSUPPORTED_VERSION"
	ErrCodeUnsupportedUpgrade Code = "UNSUPPORTED_UPGRADE"

	// Reconstruction errors
	ErrCodeMissingParent Code = "MISSING_PARENT"
	ErrCodeDuplicatePath Code = "DUPLICATE_PATH"

	// Generic errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"
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

// Wrap wraps cause into an Error with the given code.
//
// If cause already carries a code anywhere in its chain, it is returned
// unchanged. A nil cause yields nil.
func Wrap(code Code, cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	var e *Error
	if errors.As(cause, &e) {
		return cause
	}
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
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
