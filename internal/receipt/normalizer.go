package receipt

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ItemRow is one sliced and normalized line of the item table.
type ItemRow struct {
	// Line is the 1-based position in the isolated table.
	Line int

	// Name is the untrimmed name window.
	Name string

	// Quantity is nil when the quantity window is blank.
	Quantity *decimal.Decimal

	// GrossPrice is nil when the price window is blank.
	GrossPrice *decimal.Decimal
}

// TrimmedName returns the name without the fixed-width padding.
func (r ItemRow) TrimmedName() string {
	return strings.TrimSpace(r.Name)
}

// IsBlank reports whether both numeric fields are absent.
func (r ItemRow) IsBlank() bool {
	return r.Quantity == nil && r.GrossPrice == nil
}

// ParseNumber converts a decimal-comma substring into a number. A blank
// substring yields (nil, nil): the value is absent, not malformed.
func ParseNumber(raw string) (*decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return nil, &MalformedReceiptError{
			Value:  raw,
			Reason: "not a number",
			Err:    err,
		}
	}
	return &d, nil
}

// NormalizeRow slices a raw table line and parses its numeric fields.
func NormalizeRow(line string, lineNo int, layout Layout) (ItemRow, error) {
	fields := layout.Slice(line)

	quantity, err := ParseNumber(fields.Quantity)
	if err != nil {
		return ItemRow{}, withField(err, lineNo, "quantity")
	}

	price, err := ParseNumber(fields.Price)
	if err != nil {
		return ItemRow{}, withField(err, lineNo, "price")
	}

	return ItemRow{
		Line:       lineNo,
		Name:       fields.Name,
		Quantity:   quantity,
		GrossPrice: price,
	}, nil
}

// NormalizeTable converts every isolated table line into an ItemRow.
func NormalizeTable(lines []string, layout Layout) ([]ItemRow, error) {
	rows := make([]ItemRow, 0, len(lines))
	for i, line := range lines {
		row, err := NormalizeRow(line, i+1, layout)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func withField(err error, line int, field string) error {
	if me, ok := err.(*MalformedReceiptError); ok {
		me.Line = line
		me.Field = field
		return me
	}
	return err
}
