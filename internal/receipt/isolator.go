// =============================================================================
// Skrubbify - Table Isolator
// =============================================================================
//
// The extracted page text contains store headers, customer data, the item
// table and payment totals. IsolateTable returns only the body lines of the
// item table.
//
// STRATEGIES:
//   delimiter : take the text strictly between the first and second
//               delimiter, then skip HeaderSkip runes (the column headers).
//   markers   : skip lines until one starts with StartMarker, collect lines
//               until one starts with StopMarker.
//
// In both strategies the last collected element is dropped unconditionally.
// On the known layout it is the empty remainder in front of the closing
// delimiter.
//
// =============================================================================

package receipt

import (
	"strings"
)

// JoinPages concatenates page texts in page order and normalizes line
// endings.
func JoinPages(pages []string) string {
	text := strings.Join(pages, "\n")
	return strings.ReplaceAll(text, "\r", "")
}

// IsolateTable extracts the item table body from the page texts.
func IsolateTable(pages []string, layout Layout) ([]string, error) {
	text := JoinPages(pages)

	var (
		lines []string
		err   error
	)
	switch layout.Isolation {
	case IsolationMarkers:
		lines, err = isolateByMarkers(text, layout)
	default:
		lines, err = isolateByDelimiter(text, layout)
	}
	if err != nil {
		return nil, err
	}

	if len(lines) == 0 {
		return nil, malformed("item table is empty")
	}

	// The final element is always the blank remainder of the table.
	lines = lines[:len(lines)-1]
	if len(lines) == 0 {
		return nil, malformed("item table is empty")
	}

	return lines, nil
}

// isolateByDelimiter implements the delimiter-span strategy.
func isolateByDelimiter(text string, layout Layout) ([]string, error) {
	start := strings.Index(text, layout.Delimiter)
	if start < 0 {
		return nil, malformed("item table delimiter not found")
	}
	rest := text[start+len(layout.Delimiter):]

	end := strings.Index(rest, layout.Delimiter)
	if end < 0 {
		return nil, malformed("closing item table delimiter not found")
	}

	span := []rune(rest[:end])
	if len(span) < layout.HeaderSkip {
		return nil, malformed("item table shorter than its %d-rune header block", layout.HeaderSkip)
	}

	return strings.Split(string(span[layout.HeaderSkip:]), "\n"), nil
}

// isolateByMarkers implements the state-scan strategy.
func isolateByMarkers(text string, layout Layout) ([]string, error) {
	const (
		before = iota
		inside
		done
	)

	state := before
	var collected []string

scan:
	for _, line := range strings.Split(text, "\n") {
		switch state {
		case before:
			if strings.HasPrefix(line, layout.StartMarker) {
				state = inside
			}
		case inside:
			if strings.HasPrefix(line, layout.StopMarker) {
				state = done
				break scan
			}
			collected = append(collected, line)
		}
	}

	switch state {
	case before:
		return nil, malformed("item table start marker %q not found", layout.StartMarker)
	case inside:
		return nil, malformed("item table stop marker %q not found", layout.StopMarker)
	}

	return collected, nil
}
