// Package errors provides error handling for circuitlens.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for user-facing messages
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrUnknownGroup) {
//	    // handle missing group
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors for the attention-inspection domain.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrParse indicates a malformed head specifier or request payload
	ErrParse = New("parse error")

	// ErrRange indicates an index outside the dataset's declared bounds
	ErrRange = New("index out of range")

	// ErrSchema indicates a dataset payload missing required fields or
	// carrying wrong-typed values
	ErrSchema = New("malformed dataset")

	// ErrEmptyName indicates a group name that is blank after trimming
	ErrEmptyName = New("empty group name")

	// ErrDuplicateName indicates a group name already taken
	// (case-insensitively) by another group
	ErrDuplicateName = New("duplicate group name")

	// ErrUnknownGroup indicates a group id that does not exist
	ErrUnknownGroup = New("unknown group")

	// ErrBackendUnavailable indicates the inference backend is
	// unreachable; callers may switch to offline sample mode
	ErrBackendUnavailable = New("inference backend unavailable")

	// ErrBackendRejected indicates the backend answered but refused the
	// request (non-2xx with a detail message). The backend is up, so
	// this is not an offline-mode signal
	ErrBackendRejected = New("inference backend rejected request")

	// ErrNoDataset indicates an operation that needs a loaded attention
	// dataset before any text has been processed
	ErrNoDataset = New("no dataset loaded")
)

// IsParseError checks if an error is or wraps ErrParse
func IsParseError(err error) bool {
	return err != nil && Is(err, ErrParse)
}

// IsRangeError checks if an error is or wraps ErrRange
func IsRangeError(err error) bool {
	return err != nil && Is(err, ErrRange)
}

// IsSchemaError checks if an error is or wraps ErrSchema
func IsSchemaError(err error) bool {
	return err != nil && Is(err, ErrSchema)
}

// IsNameError checks if an error is any of the group-naming failures
func IsNameError(err error) bool {
	return err != nil && IsAny(err, ErrEmptyName, ErrDuplicateName)
}

// IsUnknownGroupError checks if an error is or wraps ErrUnknownGroup
func IsUnknownGroupError(err error) bool {
	return err != nil && Is(err, ErrUnknownGroup)
}

// IsBackendUnavailableError checks if an error is or wraps ErrBackendUnavailable
func IsBackendUnavailableError(err error) bool {
	return err != nil && Is(err, ErrBackendUnavailable)
}

// IsBackendRejectedError checks if an error is or wraps ErrBackendRejected
func IsBackendRejectedError(err error) bool {
	return err != nil && Is(err, ErrBackendRejected)
}

// IsNoDatasetError checks if an error is or wraps ErrNoDataset
func IsNoDatasetError(err error) bool {
	return err != nil && Is(err, ErrNoDataset)
}

// NewParseError creates a parse error with a formatted message
func NewParseError(format string, args ...interface{}) error {
	return Wrap(ErrParse, Newf(format, args...).Error())
}

// NewRangeError creates a range error with a formatted message
func NewRangeError(format string, args ...interface{}) error {
	return Wrap(ErrRange, Newf(format, args...).Error())
}

// NewSchemaError creates a schema error with a formatted message
func NewSchemaError(format string, args ...interface{}) error {
	return Wrap(ErrSchema, Newf(format, args...).Error())
}
