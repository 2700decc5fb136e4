// =============================================================================
// Skrubbify - Line-Item Calculator
// =============================================================================
//
// The calculator walks the normalized item rows once, front to back:
//
//   1. Marker rows ("Bästa pris", pallet rows) are removed first, so they
//      never reach the output and never take part in deposit pairing.
//   2. Filler rows with neither quantity nor price are removed, and so are
//      rows that carry a quantity but no price.
//   3. A row followed by a PANT row forms a pair. In fold mode the deposit
//      price is added to the product price before dividing by quantity. In
//      flat mode a fixed amount is added after rounding instead.
//   4. The optional flat surcharge is applied last, after rounding.
//
// A deposit row is never emitted on its own.
//
// =============================================================================

package receipt

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRICING RULES
// =============================================================================

const (
	// DepositFold adds the deposit price to the product price before the
	// per-unit division.
	DepositFold = "fold"

	// DepositFlat adds DepositFlatSurcharge kronor after rounding.
	DepositFlat = "flat"
)

// DefaultDepositMarker identifies deposit rows.
const DefaultDepositMarker = "PANT"

// DefaultExcludeMarkers identify rows that are not products. The second
// spelling is how "Bästa pris" appears when the text layer was decoded as
// Latin-1.
var DefaultExcludeMarkers = []string{"Bästa pris", "BÃ¤sta pris", "Pall"}

// Pricing holds every business rule the calculator applies.
type Pricing struct {
	Rounder Rounder

	// VATFactor multiplies the listed price. 1.0 when the receipt prices
	// already include VAT, 1.12 for 12% food VAT.
	VATFactor decimal.Decimal

	DepositMarker        string
	DepositMode          string
	DepositFlatSurcharge int64

	// FlatSurcharge is added to every unit price after rounding.
	FlatSurcharge int64

	ExcludeMarkers []string
}

// DefaultPricing returns the canonical pricing rules.
func DefaultPricing() Pricing {
	return Pricing{
		Rounder:              DefaultRounder(),
		VATFactor:            decimal.NewFromInt(1),
		DepositMarker:        DefaultDepositMarker,
		DepositMode:          DepositFold,
		DepositFlatSurcharge: 1,
		ExcludeMarkers:       append([]string(nil), DefaultExcludeMarkers...),
	}
}

// Validate checks the pricing rules.
func (p Pricing) Validate() error {
	if err := p.Rounder.Validate(); err != nil {
		return err
	}
	if !p.VATFactor.IsPositive() {
		return fmt.Errorf("vat factor must be positive, got %s", p.VATFactor)
	}
	if p.DepositMarker == "" {
		return fmt.Errorf("deposit marker must not be empty")
	}
	switch p.DepositMode {
	case DepositFold, DepositFlat:
	default:
		return fmt.Errorf("unknown deposit mode: %q", p.DepositMode)
	}
	for _, m := range p.ExcludeMarkers {
		if m == "" {
			return fmt.Errorf("exclude markers must not be empty strings")
		}
	}
	return nil
}

// =============================================================================
// RESULT TYPES
// =============================================================================

// PricedItem is one line of the final report.
type PricedItem struct {
	Name      string
	UnitPrice int64
}

// Calculation is the outcome of a calculator pass.
type Calculation struct {
	Items []PricedItem

	// Excluded counts marker rows removed before pairing.
	Excluded int

	// Blank counts filler rows without quantity and price.
	Blank int

	// Unpriced counts rows that carry a quantity but no price, such as
	// free samples. They are dropped before pairing.
	Unpriced int

	// Deposits counts product rows paired with a PANT row.
	Deposits int
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator turns item rows into priced items.
type Calculator struct {
	pricing Pricing
}

// NewCalculator validates the pricing rules and returns a calculator.
func NewCalculator(pricing Pricing) (*Calculator, error) {
	if err := pricing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pricing: %w", err)
	}
	return &Calculator{pricing: pricing}, nil
}

// Calculate prices the rows in receipt order.
func (c *Calculator) Calculate(rows []ItemRow) (*Calculation, error) {
	calc := &Calculation{}

	products := make([]ItemRow, 0, len(rows))
	for _, row := range rows {
		switch c.Classify(row) {
		case KindExcluded:
			calc.Excluded++
		case KindBlank:
			calc.Blank++
		case KindUnpriced:
			calc.Unpriced++
		default:
			products = append(products, row)
		}
	}

	for i := 0; i < len(products); {
		row := products[i]
		if c.isDeposit(row) {
			return nil, malformedField(row.Line, "name", row.TrimmedName(), "deposit row without a preceding product")
		}

		quantity, price, err := productValues(row)
		if err != nil {
			return nil, err
		}

		total := price
		paired := i+1 < len(products) && c.isDeposit(products[i+1])
		if paired {
			deposit := products[i+1]
			if deposit.GrossPrice.IsNegative() {
				return nil, malformedField(deposit.Line, "price", deposit.GrossPrice.String(), "deposit price is negative")
			}
			if c.pricing.DepositMode == DepositFold {
				total = total.Add(*deposit.GrossPrice)
			}
		}

		unit := c.pricing.Rounder.Round(total.Mul(c.pricing.VATFactor).Div(quantity))
		if paired && c.pricing.DepositMode == DepositFlat {
			unit += c.pricing.DepositFlatSurcharge
		}
		unit = c.applySurcharge(unit)

		calc.Items = append(calc.Items, PricedItem{Name: row.TrimmedName(), UnitPrice: unit})

		if paired {
			calc.Deposits++
			i += 2
		} else {
			i++
		}
	}

	if len(calc.Items) == 0 {
		return nil, malformed("item table contains no priced items")
	}

	return calc, nil
}

// Row kinds reported by Classify.
const (
	KindProduct  = "product"
	KindDeposit  = "deposit"
	KindExcluded = "excluded"
	KindBlank    = "blank"
	KindUnpriced = "unpriced"
)

// Classify names the role a row plays in pricing. Exclusion is checked
// first, so a marker row is never treated as a product or deposit. A row
// without a price is never priced, whatever its name.
func (c *Calculator) Classify(row ItemRow) string {
	switch {
	case c.isExcluded(row):
		return KindExcluded
	case row.IsBlank():
		return KindBlank
	case row.GrossPrice == nil:
		return KindUnpriced
	case c.isDeposit(row):
		return KindDeposit
	default:
		return KindProduct
	}
}

// applySurcharge is the optional post-rounding markup.
func (c *Calculator) applySurcharge(unit int64) int64 {
	return unit + c.pricing.FlatSurcharge
}

func (c *Calculator) isDeposit(row ItemRow) bool {
	return strings.Contains(row.Name, c.pricing.DepositMarker)
}

func (c *Calculator) isExcluded(row ItemRow) bool {
	for _, marker := range c.pricing.ExcludeMarkers {
		if containsWord(row.Name, marker) {
			return true
		}
	}
	return false
}

// containsWord reports whether marker occurs in s with no letter directly
// before or after it, so "Pall" matches "EUR-Pall" but not "Pallini".
func containsWord(s, marker string) bool {
	for offset := 0; ; {
		i := strings.Index(s[offset:], marker)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(marker)

		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !unicode.IsLetter(before)) && (end == len(s) || !unicode.IsLetter(after)) {
			return true
		}
		offset = start + 1
	}
}

// productValues returns the quantity and price a product row must carry.
func productValues(row ItemRow) (decimal.Decimal, decimal.Decimal, error) {
	if row.Quantity == nil {
		return decimal.Zero, decimal.Zero, malformedField(row.Line, "quantity", "", "product row has no quantity")
	}
	if !row.Quantity.IsPositive() {
		return decimal.Zero, decimal.Zero, malformedField(row.Line, "quantity", row.Quantity.String(), "quantity must be positive")
	}
	if row.GrossPrice.IsNegative() {
		return decimal.Zero, decimal.Zero, malformedField(row.Line, "price", row.GrossPrice.String(), "price is negative")
	}
	return *row.Quantity, *row.GrossPrice, nil
}
