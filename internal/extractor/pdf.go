package extractor

// pdf.go rebuilds fixed-width receipt lines from the PDF text layer.
//
// github.com/ledongthuc/pdf reports positioned glyphs grouped by row. The
// receipt is set in a monospaced font, so a glyph's column is its x offset
// divided by the character advance.

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

// courierAdvance is the advance width of a Courier glyph in em.
const courierAdvance = 0.6

// PDFExtractor reads the text layer of a receipt PDF.
type PDFExtractor struct {
	opts Options
}

// NewPDFExtractor returns a PDFExtractor.
func NewPDFExtractor(opts Options) *PDFExtractor {
	return &PDFExtractor{opts: opts}
}

// Extract implements TextExtractor.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (pages []string, err error) {
	// The pdf package panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("read pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf %s has no pages", path)
	}
	if e.opts.Pages == PagesFirst {
		numPages = 1
	}

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", i, err)
		}
		pages = append(pages, e.renderRows(rows))
	}

	return pages, nil
}

// renderRows lays out each row's glyphs on a fixed character grid.
func (e *PDFExtractor) renderRows(rows pdf.Rows) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var line []rune
		for _, t := range row.Content {
			col := e.column(t, len(line))
			for len(line) < col {
				line = append(line, ' ')
			}
			line = append(line, []rune(t.S)...)
		}
		lines = append(lines, strings.TrimRight(string(line), " "))
	}
	return strings.Join(lines, "\n")
}

// column maps a glyph to its grid column. Glyphs that would overlap the
// text already placed are appended after it.
func (e *PDFExtractor) column(t pdf.Text, placed int) int {
	width := e.opts.CharWidth
	if width <= 0 {
		width = t.FontSize * courierAdvance
	}
	if width <= 0 {
		return placed
	}

	col := int(math.Round((t.X - e.opts.OriginX) / width))
	if col < placed {
		return placed
	}
	return col
}
