// =============================================================================
// Skrubbify - Receipt Processor
// =============================================================================
//
// The processor runs the pipeline for a single receipt:
//
//   1. Extract the page texts (once)
//   2. Isolate the item table
//   3. Slice and normalize every table line
//   4. Price the rows
//
// A Processor holds no per-receipt state, so one instance may process many
// receipts from concurrent goroutines.
//
// =============================================================================

package receipt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// TextExtractor returns the text of a document, one string per page.
type TextExtractor interface {
	Extract(ctx context.Context, path string) ([]string, error)
}

// Options configures a Processor.
type Options struct {
	Layout  Layout
	Pricing Pricing
}

// DefaultOptions returns the canonical layout and pricing rules.
func DefaultOptions() Options {
	return Options{
		Layout:  DefaultLayout(),
		Pricing: DefaultPricing(),
	}
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of processing one receipt.
type Result struct {
	// Source is the path of the receipt document.
	Source string

	// Rows are the normalized item table rows.
	Rows []ItemRow

	// Items are the priced report lines, in receipt order.
	Items []PricedItem

	Stats Stats
}

// Stats describes a processing run.
type Stats struct {
	Pages          int
	TableLines     int
	Excluded       int
	Blank          int
	Unpriced       int
	Deposits       int
	Items          int
	ProcessingTime time.Duration
}

// =============================================================================
// PROCESSOR
// =============================================================================

// Processor runs the receipt pipeline.
type Processor struct {
	extractor  TextExtractor
	layout     Layout
	calculator *Calculator
	logger     *zap.Logger
}

// NewProcessor validates the options and returns a Processor. A nil logger
// disables logging.
func NewProcessor(extractor TextExtractor, opts Options, logger *zap.Logger) (*Processor, error) {
	if extractor == nil {
		return nil, errors.New("text extractor is required")
	}
	if err := opts.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	calculator, err := NewCalculator(opts.Pricing)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Processor{
		extractor:  extractor,
		layout:     opts.Layout,
		calculator: calculator,
		logger:     logger,
	}, nil
}

// Process runs the full pipeline for the receipt at path.
func (p *Processor) Process(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	log := p.logger.With(zap.String("receipt", path))

	pages, rows, lines, err := p.rows(ctx, path)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		switch kind := p.calculator.Classify(row); kind {
		case KindExcluded, KindUnpriced:
			log.Debug("row skipped",
				zap.Int("line", row.Line),
				zap.String("name", row.TrimmedName()),
				zap.String("kind", kind),
			)
		}
	}

	calc, err := p.calculator.Calculate(rows)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Source: path,
		Rows:   rows,
		Items:  calc.Items,
		Stats: Stats{
			Pages:          pages,
			TableLines:     lines,
			Excluded:       calc.Excluded,
			Blank:          calc.Blank,
			Unpriced:       calc.Unpriced,
			Deposits:       calc.Deposits,
			Items:          len(calc.Items),
			ProcessingTime: time.Since(start),
		},
	}

	log.Info("receipt processed",
		zap.Int("pages", result.Stats.Pages),
		zap.Int("table_lines", result.Stats.TableLines),
		zap.Int("items", result.Stats.Items),
		zap.Int("deposits", result.Stats.Deposits),
		zap.Int("excluded", result.Stats.Excluded),
		zap.Int("unpriced", result.Stats.Unpriced),
		zap.Duration("elapsed", result.Stats.ProcessingTime),
	)

	return result, nil
}

// Rows extracts, isolates and normalizes the item table without pricing it.
func (p *Processor) Rows(ctx context.Context, path string) ([]ItemRow, error) {
	_, rows, _, err := p.rows(ctx, path)
	return rows, err
}

// Classify names the role a row plays in pricing.
func (p *Processor) Classify(row ItemRow) string {
	return p.calculator.Classify(row)
}

func (p *Processor) rows(ctx context.Context, path string) (int, []ItemRow, int, error) {
	log := p.logger.With(zap.String("receipt", path))

	pages, err := p.extractor.Extract(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, 0, ctx.Err()
		}
		return 0, nil, 0, &MalformedReceiptError{Reason: "document unreadable", Err: err}
	}
	log.Debug("extracted text", zap.Int("pages", len(pages)))

	lines, err := IsolateTable(pages, p.layout)
	if err != nil {
		return 0, nil, 0, err
	}
	log.Debug("isolated item table", zap.Int("lines", len(lines)))

	rows, err := NormalizeTable(lines, p.layout)
	if err != nil {
		return 0, nil, 0, err
	}

	return len(pages), rows, len(lines), nil
}
