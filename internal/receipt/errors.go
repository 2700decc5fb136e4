// =============================================================================
// Skrubbify - Receipt Errors
// =============================================================================
//
// Every deviation from the expected Snabbgross layout is reported as a
// MalformedReceiptError. The layout either matches or it does not, so these
// errors are never retried. They carry enough context (table line, field,
// raw value) to diagnose layout drift from the error message alone.
//
// =============================================================================

package receipt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedReceipt is the sentinel matched by errors.Is for any
// *MalformedReceiptError.
var ErrMalformedReceipt = errors.New("malformed receipt")

// MalformedReceiptError describes a receipt whose text does not match the
// fixed layout.
type MalformedReceiptError struct {
	// Line is the 1-based line number within the isolated item table.
	// Zero when the error is not tied to a single line.
	Line int

	// Field names the offending field ("name", "quantity", "price").
	Field string

	// Value is the raw substring that failed.
	Value string

	// Reason is a human-readable description of the failure.
	Reason string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *MalformedReceiptError) Error() string {
	var b strings.Builder
	b.WriteString("malformed receipt")
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ", field '%s'", e.Field)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Field != "" || e.Value != "" {
		fmt.Fprintf(&b, " (value: '%s')", e.Value)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *MalformedReceiptError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrMalformedReceipt.
func (e *MalformedReceiptError) Is(target error) bool {
	return target == ErrMalformedReceipt
}

// malformed builds a layout error that is not bound to a table line.
func malformed(format string, args ...any) *MalformedReceiptError {
	return &MalformedReceiptError{Reason: fmt.Sprintf(format, args...)}
}

// malformedField builds a layout error for a single field on a table line.
func malformedField(line int, field, value, reason string) *MalformedReceiptError {
	return &MalformedReceiptError{
		Line:   line,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}
