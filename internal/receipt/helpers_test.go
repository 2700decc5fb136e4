package receipt

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// tableLine renders one item table line in the fixed-width receipt layout.
func tableLine(name, quantity, price string) string {
	return fmt.Sprintf("%-21s%-34s%3s%-12s%6s  1",
		"7310000000000", name, quantity, "  ST", price)
}

// receiptText renders a full first page around the given table lines.
func receiptText(lines ...string) string {
	var b strings.Builder
	b.WriteString("SNABBGROSS HÄGERSTEN\n")
	b.WriteString("Kund: 123456  Skrubben\n")
	b.WriteString(DefaultDelimiter)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%-98s", "Artikelnr            Benämning                          Ant         á-pris Belopp"))
	b.WriteString("\n")
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString(DefaultDelimiter)
	b.WriteString("\nAtt betala                                   123,45\n")
	return b.String()
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func row(line int, name, quantity, price string) ItemRow {
	r := ItemRow{Line: line, Name: name}
	if quantity != "" {
		r.Quantity = dec(quantity)
	}
	if price != "" {
		r.GrossPrice = dec(price)
	}
	return r
}

// fakeExtractor returns fixed pages and counts calls.
type fakeExtractor struct {
	pages []string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}
