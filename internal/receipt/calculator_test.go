package receipt

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCalculator(t *testing.T, mutate func(p *Pricing)) *Calculator {
	t.Helper()
	p := DefaultPricing()
	if mutate != nil {
		mutate(&p)
	}
	c, err := NewCalculator(p)
	require.NoError(t, err)
	return c
}

func TestCalculateDepositPairing(t *testing.T) {
	c := newCalculator(t, nil)

	calc, err := c.Calculate([]ItemRow{
		row(1, "Cola                              ", "6", "15.0"),
		row(2, "PANT                              ", "", "6.0"),
	})
	require.NoError(t, err)

	// (15 + 6) / 6 = 3.5 -> ceil 4
	assert.Equal(t, []PricedItem{{Name: "Cola", UnitPrice: 4}}, calc.Items)
	assert.Equal(t, 1, calc.Deposits)
}

func TestCalculateMarkerRowsNeverPair(t *testing.T) {
	c := newCalculator(t, nil)

	calc, err := c.Calculate([]ItemRow{
		row(1, "KAFFE BRYGG 500G", "4", "200.00"),
		row(2, "Bästa pris", "", ""),
		row(3, "COCA-COLA 33CL", "24", "180.00"),
		row(4, "PANT 1 KR", "", "24.00"),
		row(5, "BÃ¤sta pris", "", ""),
		row(6, "Pall EUR", "1", "0.00"),
		row(7, "CHIPS SALTED", "10", "120.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, []PricedItem{
		{Name: "KAFFE BRYGG 500G", UnitPrice: 50},
		{Name: "COCA-COLA 33CL", UnitPrice: 9}, // 204 / 24 = 8.5 -> 9
		{Name: "CHIPS SALTED", UnitPrice: 12},
	}, calc.Items)
	assert.Equal(t, 3, calc.Excluded)
	assert.Equal(t, 1, calc.Deposits)
}

func TestCalculateMarkerBetweenProductAndDeposit(t *testing.T) {
	c := newCalculator(t, nil)

	calc, err := c.Calculate([]ItemRow{
		row(1, "COCA-COLA 33CL", "24", "180.00"),
		row(2, "Bästa pris", "", ""),
		row(3, "PANT 1 KR", "", "24.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, []PricedItem{{Name: "COCA-COLA 33CL", UnitPrice: 9}}, calc.Items)
}

func TestCalculateOutputNeverExceedsRows(t *testing.T) {
	c := newCalculator(t, nil)
	rows := []ItemRow{
		row(1, "A", "1", "10.00"),
		row(2, "PANT", "", "1.00"),
		row(3, "B", "2", "10.00"),
		row(4, "Bästa pris", "", ""),
		row(5, "C", "3", "10.00"),
		row(6, "", "", ""),
	}

	calc, err := c.Calculate(rows)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(calc.Items), len(rows))
	assert.Equal(t, len(rows)-calc.Deposits-calc.Excluded-calc.Blank, len(calc.Items))
	assert.Equal(t, 1, calc.Blank)
}

func TestCalculateVATFactor(t *testing.T) {
	c := newCalculator(t, func(p *Pricing) {
		p.VATFactor = decimal.RequireFromString("1.12")
	})

	calc, err := c.Calculate([]ItemRow{row(1, "MJÖLK 1L", "10", "100.00")})
	require.NoError(t, err)
	// 100 * 1.12 / 10 = 11.2 -> 12
	assert.Equal(t, int64(12), calc.Items[0].UnitPrice)
}

func TestCalculateFlatDepositAndSurcharge(t *testing.T) {
	c := newCalculator(t, func(p *Pricing) {
		p.DepositMode = DepositFlat
		p.DepositFlatSurcharge = 1
		p.FlatSurcharge = 2
	})

	calc, err := c.Calculate([]ItemRow{
		row(1, "COCA-COLA 33CL", "24", "180.00"),
		row(2, "PANT 1 KR", "", "24.00"),
		row(3, "CHIPS SALTED", "10", "120.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, []PricedItem{
		{Name: "COCA-COLA 33CL", UnitPrice: 11}, // 7.5 -> 8, +1 deposit, +2
		{Name: "CHIPS SALTED", UnitPrice: 14},   // 12, +2
	}, calc.Items)
}

func TestCalculateSurchargeAfterRounding(t *testing.T) {
	c := newCalculator(t, func(p *Pricing) { p.FlatSurcharge = 2 })

	calc, err := c.Calculate([]ItemRow{row(1, "ArtikelX", "4", "20.00"), row(2, "PANT", "", "2.00")})
	require.NoError(t, err)
	assert.Equal(t, int64(8), calc.Items[0].UnitPrice)
}

func TestCalculateMalformed(t *testing.T) {
	tests := []struct {
		name  string
		rows  []ItemRow
		line  int
		field string
	}{
		{"zero quantity", []ItemRow{row(1, "A", "0", "10.00")}, 1, "quantity"},
		{"absent quantity", []ItemRow{row(1, "A", "", "10.00")}, 1, "quantity"},
		{"negative price", []ItemRow{row(1, "A", "2", "-1.00")}, 1, "price"},
		{"orphan deposit", []ItemRow{row(1, "PANT", "", "1.00"), row(2, "A", "1", "1.00")}, 1, "name"},
		{"negative deposit price", []ItemRow{row(1, "A", "1", "1.00"), row(2, "PANT", "", "-1.00")}, 2, "price"},
		{"double deposit", []ItemRow{row(1, "A", "1", "1.00"), row(2, "PANT", "", "1.00"), row(3, "PANT", "", "1.00")}, 3, "name"},
	}

	c := newCalculator(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Calculate(tt.rows)
			var me *MalformedReceiptError
			require.ErrorAs(t, err, &me)
			assert.ErrorIs(t, err, ErrMalformedReceipt)
			assert.Equal(t, tt.line, me.Line)
			assert.Equal(t, tt.field, me.Field)
		})
	}
}

func TestCalculateSkipsUnpricedRows(t *testing.T) {
	c := newCalculator(t, nil)

	calc, err := c.Calculate([]ItemRow{
		row(1, "KAFFE BRYGG 500G", "4", "200.00"),
		row(2, "GRATIS PROV", "1", ""),
		row(3, "COCA-COLA 33CL", "24", "180.00"),
		row(4, "PANT", "1", ""),
		row(5, "PANT 1 KR", "", "24.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, []PricedItem{
		{Name: "KAFFE BRYGG 500G", UnitPrice: 50},
		{Name: "COCA-COLA 33CL", UnitPrice: 9},
	}, calc.Items)
	assert.Equal(t, 2, calc.Unpriced)
	assert.Equal(t, 1, calc.Deposits)
}

func TestCalculateOnlyUnpricedRows(t *testing.T) {
	c := newCalculator(t, nil)

	_, err := c.Calculate([]ItemRow{row(1, "GRATIS PROV", "1", "")})
	assert.ErrorIs(t, err, ErrMalformedReceipt)
}

func TestCalculateNoItems(t *testing.T) {
	c := newCalculator(t, nil)

	_, err := c.Calculate([]ItemRow{row(1, "Bästa pris", "", "")})
	assert.ErrorIs(t, err, ErrMalformedReceipt)
}

func TestNewCalculatorRejectsInvalidPricing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Pricing)
	}{
		{"zero vat", func(p *Pricing) { p.VATFactor = decimal.Zero }},
		{"empty deposit marker", func(p *Pricing) { p.DepositMarker = "" }},
		{"unknown deposit mode", func(p *Pricing) { p.DepositMode = "both" }},
		{"empty exclude marker", func(p *Pricing) { p.ExcludeMarkers = []string{""} }},
		{"bad threshold", func(p *Pricing) { p.Rounder.Threshold = decimal.NewFromInt(2) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPricing()
			tt.mutate(&p)
			_, err := NewCalculator(p)
			assert.Error(t, err)
		})
	}
}

func TestClassify(t *testing.T) {
	c := newCalculator(t, nil)

	tests := []struct {
		row  ItemRow
		want string
	}{
		{row(1, "MJÖLK 1L", "10", "119.00"), KindProduct},
		{row(2, "PANT", "", "2.00"), KindDeposit},
		{row(3, "Bästa pris", "", "-5.00"), KindExcluded},
		{row(4, "Pall", "1", "0"), KindExcluded},
		{row(5, "", "", ""), KindBlank},
		{row(6, "GRATIS PROV", "1", ""), KindUnpriced},
		{row(7, "PANT", "1", ""), KindUnpriced},
		{row(8, "Pallini Limoncello", "6", "540.00"), KindProduct},
		{row(9, "EUR-Pall", "1", "0"), KindExcluded},
		{row(10, "Pall/retur", "", "-150.00"), KindExcluded},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.row), tt.row.Name)
	}
}
