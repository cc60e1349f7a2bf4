// Package errors provides structured error types for spritepack.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP server and the pipeline
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation (sheet name, image id)
//
// # Error Codes
//
// The packing core raises three kinds of errors:
//   - CONFIGURATION_ERROR: missing or invalid parameters, unknown strategy,
//     empty image set, duplicate image id
//   - FORMAT_ERROR: pixel buffers that do not match what the compositor expects
//   - PLACEMENT_ERROR: a placement that exceeds its computed canvas
//
// Boundary collaborators (catalog, writers) additionally raise IO_ERROR.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfiguration, "duplicate image id %q", id)
//	if errors.Is(err, errors.ErrCodeConfiguration) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "read source dir %s", dir)
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Packing job errors
	ErrCodeConfiguration Code = "CONFIGURATION_ERROR"
	ErrCodeFormat        Code = "FORMAT_ERROR"
	ErrCodePlacement     Code = "PLACEMENT_ERROR"
	ErrCodeIO            Code = "IO_ERROR"

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeSheetNotFound Code = "SHEET_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Sheet   string // Sheet (packing job) the error belongs to, if known
	ImageID string // Failing image id, if applicable
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.ImageID != "" {
		msg = fmt.Sprintf("image %q: %s", e.ImageID, msg)
	}
	if e.Sheet != "" {
		msg = fmt.Sprintf("sheet %q: %s", e.Sheet, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
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

// ForImage returns a copy of e annotated with the failing image id.
func (e *Error) ForImage(id string) *Error {
	c := *e
	c.ImageID = id
	return &c
}

// WithSheet annotates err with the sheet it belongs to.
// The outermost *Error in the chain is copied and tagged; the sheet is only
// set if it has not been set already. Errors that are not *Error are wrapped
// as INTERNAL_ERROR so the sheet name is never lost.
func WithSheet(err error, sheet string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Sheet != "" {
			return err
		}
		c := *e
		c.Sheet = sheet
		return &c
	}
	return &Error{Code: ErrCodeInternal, Message: "unexpected failure", Sheet: sheet, Cause: err}
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

// SheetOf returns the sheet name recorded on err, if any.
func SheetOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Sheet
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

// Join combines errs into one error, dropping nils. It returns nil if every
// error is nil.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// IsCanceled reports whether err stems from a canceled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
