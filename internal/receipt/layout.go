// =============================================================================
// Skrubbify - Receipt Layout
// =============================================================================
//
// The Snabbgross receipt is rendered as fixed-width text. Item table rows
// look like this (columns are rune offsets, not byte offsets):
//
//   0                    21                                55 58          70    76
//   |  article / ean      |  name (34)                      |qty|  ...      |price|
//
// The offsets are a contract with the receipt renderer. They live in one
// Layout value so format drift is a one-place edit in the configuration.
//
// =============================================================================

package receipt

import (
	"fmt"
	"strings"
)

// =============================================================================
// ISOLATION STRATEGIES
// =============================================================================

const (
	// IsolationDelimiter takes the span between the first two delimiter
	// lines and skips a fixed-size header block.
	IsolationDelimiter = "delimiter"

	// IsolationMarkers collects lines between a start and a stop marker.
	IsolationMarkers = "markers"
)

// DefaultDelimiter is the run of dashes that frames the item table.
var DefaultDelimiter = strings.Repeat("-", 100)

// DefaultHeaderSkip is the number of runes dropped after the first
// delimiter. It covers the column-header block of the item table.
const DefaultHeaderSkip = 100

// =============================================================================
// FIELD RANGES
// =============================================================================

// Range is a half-open rune window [Start, End).
type Range struct {
	Start int
	End   int
}

// Width returns the number of runes covered by the window.
func (r Range) Width() int {
	return r.End - r.Start
}

// Extract returns the runes of line inside the window. Windows that extend
// past the end of the line are clipped.
func (r Range) Extract(line []rune) string {
	start, end := r.Start, r.End
	if start > len(line) {
		start = len(line)
	}
	if end > len(line) {
		end = len(line)
	}
	return string(line[start:end])
}

func (r Range) validate(name string) error {
	if r.Start < 0 || r.End < r.Start {
		return fmt.Errorf("invalid %s range [%d,%d)", name, r.Start, r.End)
	}
	return nil
}

// =============================================================================
// LAYOUT
// =============================================================================

// Layout describes where the item table lives and how its rows are sliced.
type Layout struct {
	// Isolation selects the table isolation strategy.
	Isolation string

	// Delimiter frames the item table (delimiter mode).
	Delimiter string

	// HeaderSkip is the rune count dropped from the start of the span
	// (delimiter mode).
	HeaderSkip int

	// StartMarker and StopMarker bound the table (markers mode). Lines are
	// matched by prefix.
	StartMarker string
	StopMarker  string

	// Field windows.
	NameRange     Range
	QuantityRange Range
	PriceRange    Range
}

// DefaultLayout returns the layout of the canonical Snabbgross receipt.
func DefaultLayout() Layout {
	return Layout{
		Isolation:     IsolationDelimiter,
		Delimiter:     DefaultDelimiter,
		HeaderSkip:    DefaultHeaderSkip,
		NameRange:     Range{Start: 21, End: 55},
		QuantityRange: Range{Start: 55, End: 58},
		PriceRange:    Range{Start: 70, End: 76},
	}
}

// Validate checks the layout for internal consistency.
func (l Layout) Validate() error {
	switch l.Isolation {
	case IsolationDelimiter:
		if l.Delimiter == "" {
			return fmt.Errorf("delimiter isolation requires a delimiter")
		}
		if l.HeaderSkip < 0 {
			return fmt.Errorf("header skip must not be negative")
		}
	case IsolationMarkers:
		if l.StartMarker == "" || l.StopMarker == "" {
			return fmt.Errorf("marker isolation requires start and stop markers")
		}
	default:
		return fmt.Errorf("unknown isolation strategy: %q", l.Isolation)
	}

	if err := l.NameRange.validate("name"); err != nil {
		return err
	}
	if err := l.QuantityRange.validate("quantity"); err != nil {
		return err
	}
	return l.PriceRange.validate("price")
}

// Fields holds the three raw substrings of a table line.
type Fields struct {
	Name     string
	Quantity string
	Price    string
}

// Slice cuts a raw table line into its name, quantity and price windows.
// It is purely positional and performs no validation.
func (l Layout) Slice(line string) Fields {
	runes := []rune(line)
	return Fields{
		Name:     l.NameRange.Extract(runes),
		Quantity: l.QuantityRange.Extract(runes),
		Price:    l.PriceRange.Extract(runes),
	}
}
