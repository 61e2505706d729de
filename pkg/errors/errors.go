// Package errors provides structured error values for frontscan.
//
// Each fallible operation returns an *Error carrying a closed, machine-
// readable Code; callers branch on the code via Is/GetCode instead of
// matching concrete error types. The codes mirror the analysis error
// taxonomy: repository access failures, upstream request failures, and
// parse failures.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes, grouped by failure category.
const (
	// Repository access failures (fatal to the repository, not the run)
	ErrCodeMetadataUnavailable Code = "METADATA_UNAVAILABLE"
	ErrCodeNoCommits           Code = "NO_COMMITS"
	ErrCodeTreeUnavailable     Code = "TREE_UNAVAILABLE"
	ErrCodeContentUnavailable  Code = "CONTENT_UNAVAILABLE"

	// Upstream request failures
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeRateLimited Code = "RATE_LIMITED"
	ErrCodeForbidden   Code = "FORBIDDEN"
	ErrCodeNotFound    Code = "NOT_FOUND"

	// Input failures (recovered at the parser boundary)
	ErrCodeMalformedManifest Code = "MALFORMED_MANIFEST"
	ErrCodeMalformedLockfile Code = "MALFORMED_LOCKFILE"

	// Configuration failures
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
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

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err carries the given error code anywhere in its
// chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error chain contains no *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
