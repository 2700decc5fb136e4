// =============================================================================
// Skrubbify - Report Writers
// =============================================================================
//
// A report is the ordered list of priced items of one receipt. The canonical
// format is a flat text file:
//
//   Varunamn                          |   Pris inkl. moms & pant (SEK)
//   COCA-COLA 33CL                    |   9
//   KAFFE BRYGG 500G                  |   50
//
// Lines are joined with "\n" and there is no trailing newline. A "|" inside
// an item name is written as-is; the text format does not escape it.
//
// CSV (gocsv), XLSX (excelize) and XML renderings carry the same two
// columns.
//
// =============================================================================

package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/skrubbify/internal/receipt"
)

// =============================================================================
// FORMATS
// =============================================================================

const (
	FormatText = "text"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatXML  = "xml"
)

const (
	// NameHeader is the name column title.
	NameHeader = "Varunamn"

	// PriceHeader is the price column title.
	PriceHeader = "Pris inkl. moms & pant (SEK)"

	// HeaderLine is the fixed first line of the text report.
	HeaderLine = "Varunamn                          |   " + PriceHeader
)

// Writer renders priced items.
type Writer interface {
	Write(w io.Writer, items []receipt.PricedItem) error
}

// Options configures report rendering.
type Options struct {
	// Format is FormatText, FormatCSV, FormatXLSX, FormatXML, or empty to
	// pick by file extension.
	Format string

	// NameWidth is the rune width names are padded to in the text format.
	NameWidth int

	// TrimNames writes names without padding in the text format.
	TrimNames bool
}

// DefaultOptions returns the canonical report options.
func DefaultOptions() Options {
	return Options{NameWidth: 34}
}

// FormatFor resolves the format for path.
func FormatFor(path string, opts Options) (string, error) {
	if opts.Format != "" {
		switch opts.Format {
		case FormatText, FormatCSV, FormatXLSX, FormatXML:
			return opts.Format, nil
		default:
			return "", fmt.Errorf("unknown report format: %q", opts.Format)
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xml":
		return FormatXML, nil
	default:
		return FormatText, nil
	}
}

// New returns the writer for a format.
func New(format string, opts Options) (Writer, error) {
	switch format {
	case FormatText:
		return &TextWriter{NameWidth: opts.NameWidth, TrimNames: opts.TrimNames}, nil
	case FormatCSV:
		return &CSVWriter{}, nil
	case FormatXLSX:
		return &XLSXWriter{}, nil
	case FormatXML:
		return &XMLWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown report format: %q", format)
	}
}

// ForPath returns the writer for path.
func ForPath(path string, opts Options) (Writer, error) {
	format, err := FormatFor(path, opts)
	if err != nil {
		return nil, err
	}
	return New(format, opts)
}

// WriteFile renders items into the file at path, replacing any previous
// content.
func WriteFile(path string, items []receipt.PricedItem, opts Options) error {
	w, err := ForPath(path, opts)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	if err := w.Write(file, items); err != nil {
		file.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	return nil
}
