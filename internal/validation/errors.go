// =============================================================================
// Report Export - Error Types
// =============================================================================
//
// This module defines the error kinds a single report-generation invocation
// can return. None of them are process-fatal and none are retried: the same
// input always produces the same error.
//
// ERROR KINDS:
//   - FormatError          : a date value could not be parsed
//   - ValidationError      : a field (money, status, count, ...) is malformed
//   - NamingCollisionError : two sheets normalize to the same title and the
//                            collision policy is "fail"
//
// All kinds are returned as pointers so callers can match them with
// errors.As after any amount of %w wrapping.
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
)

// =============================================================================
// KIND NAMES
// =============================================================================

// Kind names used in logs and in HTTP error bodies.
const (
	KindFormat          = "format_error"
	KindValidation      = "validation_error"
	KindNamingCollision = "naming_collision"
	KindInternal        = "internal_error"
)

// =============================================================================
// FORMAT ERROR
// =============================================================================

// FormatError is returned when a date input cannot be parsed.
type FormatError struct {
	// Field names the input that failed (for example "start_date").
	Field string

	// Value is the raw value that could not be parsed.
	Value string

	// Err is the underlying parse error, if any.
	Err error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("format error: %s: cannot parse %q as a date", e.Field, e.Value)
}

// Unwrap returns the underlying parse error.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// ValidationError is returned when a field value is malformed.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Message is a human-readable description of the problem.
	Message string

	// Row is the 1-indexed source row, or 0 when not row-bound.
	Row int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("validation error: row %d, field '%s': %s (value: '%s')",
			e.Row, e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("validation error: field '%s': %s (value: '%s')", e.Field, e.Message, e.Value)
}

// AtRow returns a copy of the error bound to a source row.
func (e *ValidationError) AtRow(row int) *ValidationError {
	c := *e
	c.Row = row
	return &c
}

// =============================================================================
// NAMING COLLISION ERROR
// =============================================================================

// NamingCollisionError is returned when two distinct group keys normalize to
// the same sheet title.
type NamingCollisionError struct {
	Title    string
	FirstKey string
	OtherKey string
}

// Error implements the error interface.
func (e *NamingCollisionError) Error() string {
	return fmt.Sprintf("sheet title %q is produced by both %q and %q", e.Title, e.FirstKey, e.OtherKey)
}

// =============================================================================
// HELPERS
// =============================================================================

// KindOf classifies err into one of the kind names above.
func KindOf(err error) string {
	var fe *FormatError
	var ve *ValidationError
	var ne *NamingCollisionError

	switch {
	case errors.As(err, &fe):
		return KindFormat
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &ne):
		return KindNamingCollision
	default:
		return KindInternal
	}
}

// IsInputError reports whether err was caused by caller input rather than by
// the export machinery.
func IsInputError(err error) bool {
	return KindOf(err) != KindInternal
}
