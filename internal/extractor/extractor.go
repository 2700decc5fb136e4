// =============================================================================
// Skrubbify - Text Extraction
// =============================================================================
//
// This package turns a receipt document into page texts for the receipt
// pipeline. Two sources are supported:
//
//   .pdf : the embedded text layer, rebuilt as fixed-width lines
//   .txt : text that was extracted beforehand (pages separated by \f)
//
// Scanned (image-only) receipts have no text layer and are not handled.
//
// =============================================================================

package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// TextExtractor returns the text of a document, one string per page.
type TextExtractor interface {
	Extract(ctx context.Context, path string) ([]string, error)
}

// =============================================================================
// OPTIONS
// =============================================================================

const (
	// PagesAll extracts every page.
	PagesAll = "all"

	// PagesFirst extracts only the first page. Older receipts never spilled
	// the item table onto a second page.
	PagesFirst = "first"
)

// Options configures extraction.
type Options struct {
	// Pages is PagesAll or PagesFirst.
	Pages string

	// CharWidth is the advance of one column in PDF units. Zero derives it
	// from the glyph font size (0.6 em, the Courier advance).
	CharWidth float64

	// OriginX is the x coordinate of column zero.
	OriginX float64
}

// DefaultOptions returns options for the canonical receipt.
func DefaultOptions() Options {
	return Options{Pages: PagesAll}
}

// Validate checks the options.
func (o Options) Validate() error {
	switch o.Pages {
	case PagesAll, PagesFirst:
	default:
		return fmt.Errorf("unknown page selection: %q", o.Pages)
	}
	if o.CharWidth < 0 {
		return fmt.Errorf("char width must not be negative")
	}
	return nil
}

// =============================================================================
// AUTO EXTRACTOR
// =============================================================================

// Auto picks the extractor by file extension.
type Auto struct {
	PDF  *PDFExtractor
	Text *TextFileExtractor
}

// New returns an Auto extractor for the given options.
func New(opts Options) (*Auto, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Auto{
		PDF:  NewPDFExtractor(opts),
		Text: NewTextFileExtractor(opts),
	}, nil
}

// Extract implements TextExtractor.
func (a *Auto) Extract(ctx context.Context, path string) ([]string, error) {
	return a.ForPath(path).Extract(ctx, path)
}

// ForPath returns the extractor that handles path.
func (a *Auto) ForPath(path string) TextExtractor {
	if IsText(path) {
		return a.Text
	}
	return a.PDF
}

// IsText reports whether path names a pre-extracted text receipt.
func IsText(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}

// IsSupported reports whether path has an extension this package reads.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".pdf" || ext == ".txt"
}

// =============================================================================
// TEXT FILE EXTRACTOR
// =============================================================================

// TextFileExtractor reads pre-extracted receipt text.
type TextFileExtractor struct {
	opts Options
}

// NewTextFileExtractor returns a TextFileExtractor.
func NewTextFileExtractor(opts Options) *TextFileExtractor {
	return &TextFileExtractor{opts: opts}
}

// Extract implements TextExtractor.
func (e *TextFileExtractor) Extract(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text receipt: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("text receipt %s is not valid UTF-8", filepath.Base(path))
	}

	pages := strings.Split(string(data), "\f")
	if e.opts.Pages == PagesFirst {
		pages = pages[:1]
	}
	return pages, nil
}
