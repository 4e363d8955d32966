// =============================================================================
// Report Export - Field Validators
// =============================================================================
//
// This module turns raw string inputs (CSV cells, XLSX cells, JSON fields,
// command-line flags) into typed values, returning FormatError or
// ValidationError on malformed input.
//
// VALIDATION STRATEGY:
//   - Field-level parsers fail fast on the first malformed value.
//   - Collector gathers row-level errors so a whole input file can be
//     reported in one pass.
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// DATE PARSING
// =============================================================================

// DateLayouts are the accepted input layouts, tried in order.
// Slash and dash day-first layouts follow the member data exports.
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02-01-2006",
	"20060102",
}

// ParseDate parses value using DateLayouts.
//
// PARAMETERS:
//   - field: The input name, used in the error.
//   - value: The raw date string.
//
// RETURNS:
//   - The parsed time (UTC for layouts without a zone).
//   - A *FormatError if no layout matches.
func ParseDate(field, value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, &FormatError{Field: field, Value: value, Err: errors.New("empty date")}
	}

	var lastErr error
	for _, layout := range DateLayouts {
		t, err := time.Parse(layout, trimmed)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, &FormatError{Field: field, Value: value, Err: lastErr}
}

// =============================================================================
// SCALAR PARSERS
// =============================================================================

// ParseCount parses a non-negative integer such as a remaining session count.
// An empty value is treated as zero.
func ParseCount(field, value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, &ValidationError{Field: field, Value: value, Message: "must be a whole number"}
	}
	if n < 0 {
		return 0, &ValidationError{Field: field, Value: value, Message: "must not be negative"}
	}

	return n, nil
}

// RequireNonEmpty returns a ValidationError when value is blank.
func RequireNonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Value: value, Message: "is required"}
	}
	return nil
}

// =============================================================================
// ERROR COLLECTOR
// =============================================================================

// Collector accumulates per-row errors while an input is being parsed.
// It stops accepting errors once Limit is reached (0 means no limit).
type Collector struct {
	Limit  int
	errors []error
}

// Add records err. Nil errors are ignored.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	if c.Limit > 0 && len(c.errors) >= c.Limit {
		return
	}
	c.errors = append(c.errors, err)
}

// Len returns the number of recorded errors.
func (c *Collector) Len() int {
	return len(c.errors)
}

// Err returns nil, the single recorded error, or all of them joined.
// The first error is always reachable with errors.As.
func (c *Collector) Err() error {
	switch len(c.errors) {
	case 0:
		return nil
	case 1:
		return c.errors[0]
	default:
		return fmt.Errorf("%d invalid rows: %w", len(c.errors), errors.Join(c.errors...))
	}
}
