// Package errors provides centralized error handling for VERDICT.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrUnknownDomain indicates that a run record or CLI flag named a domain
	// with no registered rubric.
	ErrUnknownDomain = errors.New("unknown domain")

	// ErrRecordNotFound indicates that no run record files were found at the
	// requested path.
	ErrRecordNotFound = errors.New("no run records found")

	// ErrInvalidRecord indicates that a run record file could not be decoded
	// into the capture schema.
	ErrInvalidRecord = errors.New("invalid run record")

	// ErrTaskDataNotFound indicates that the task metadata directory required
	// by the domain's rubric does not exist.
	ErrTaskDataNotFound = errors.New("task data directory not found")

	// ErrLedgerLocked indicates that the score ledger is locked by another
	// writer and the lock was not acquired within the retry window.
	ErrLedgerLocked = errors.New("ledger locked by another process")

	// ErrLedgerCorrupt indicates that an existing ledger file could not be
	// parsed as CSV with the domain's column layout.
	ErrLedgerCorrupt = errors.New("ledger file corrupt")

	// ErrConfigNotFound indicates that no configuration file was found at an
	// explicitly requested path.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrInvalidConfig indicates an invalid configuration value.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrEmptyValue indicates a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrConfigExists indicates that init would overwrite an existing config
	// file without --force.
	ErrConfigExists = errors.New("config file already exists")

	// ErrAborted indicates the user declined an interactive confirmation.
	ErrAborted = errors.New("aborted")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
