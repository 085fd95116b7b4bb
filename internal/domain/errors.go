// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrSourceNotFound is returned by a waveform tier that has no data for
	// the requested track. It is expected and triggers fallback to the next
	// tier; it is never logged as an error.
	ErrSourceNotFound = errors.New("waveform source has no data")

	// ErrInvalidPeaksData is returned when a peaks payload or cache entry
	// fails shape validation (not an array, empty, non-finite or out-of-range
	// values).
	ErrInvalidPeaksData = errors.New("invalid peaks data")

	// ErrNoTrack is returned when an operation requires a selected track.
	ErrNoTrack = errors.New("no track selected")

	// ErrNotInitialized is returned when an operation is attempted on an
	// uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrTapClosed is returned when reading from an analyser tap that has
	// been detached from its analysis context.
	ErrTapClosed = errors.New("analyser tap closed")
)

// DecodeError reports that an audio resource could not be fetched or decoded
// for analysis. The resolver recovers from it by substituting a synthetic
// placeholder sequence.
type DecodeError struct {
	URL     string // Resource that failed
	Op      string // Step that failed ("fetch", "decode", "stream")
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("audio %s failed for %q: %s", e.Op, e.URL, e.Message)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError creates a new DecodeError.
func NewDecodeError(op, url, message string, err error) *DecodeError {
	return &DecodeError{URL: url, Op: op, Message: message, Err: err}
}

// AnalysisContextError reports that the live sample-analysis graph could not
// be constructed, typically because the audio player cannot expose decoded
// samples for the current resource. It disables the real-time visualizers but
// does not affect waveform summary rendering or playback itself.
type AnalysisContextError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *AnalysisContextError) Error() string {
	return fmt.Sprintf("analysis context unavailable: %s", e.Reason)
}

// Unwrap returns the underlying error.
func (e *AnalysisContextError) Unwrap() error {
	return e.Err
}

// NewAnalysisContextError creates a new AnalysisContextError.
func NewAnalysisContextError(reason string, err error) *AnalysisContextError {
	return &AnalysisContextError{Reason: reason, Err: err}
}

// RepositoryError wraps persistence layer failures with context. Cache write
// failures are logged and swallowed by callers; this type exists for the
// paths that do surface storage errors (explicit saves).
type RepositoryError struct {
	Op      string // Operation that failed (e.g. "save", "load")
	Type    string // Repository type (e.g. "peaks", "kv")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{Op: op, Type: repoType, Message: message, Err: err}
}
