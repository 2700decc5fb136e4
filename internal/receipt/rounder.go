// =============================================================================
// Skrubbify - Price Rounder ("bootleg ceiling")
// =============================================================================
//
// Unit prices land just above a whole krona after VAT and deposit arithmetic.
// The rounder takes the ceiling, except when the price sits only a hair above
// the floor (ceil - price > Threshold), where it rounds to nearest instead.
//
//   price  ceil  ceil-price  threshold 0.95  result
//   2.00   2     0.00        ceil            2
//   2.04   3     0.96        round           2
//   2.90   3     0.10        ceil            3
//   1.96   2     0.04        ceil            2
//
// =============================================================================

package receipt

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// RoundHalfEven rounds ties to the even neighbour (banker's rounding).
	RoundHalfEven = "half_even"

	// RoundHalfUp rounds ties away from zero.
	RoundHalfUp = "half_up"
)

// DefaultRoundingThreshold is the canonical threshold. 0.85 was used by an
// older deployment.
var DefaultRoundingThreshold = decimal.RequireFromString("0.95")

// Rounder implements the bootleg ceiling rule.
type Rounder struct {
	Threshold decimal.Decimal
	Mode      string
}

// DefaultRounder returns the canonical rounder.
func DefaultRounder() Rounder {
	return Rounder{Threshold: DefaultRoundingThreshold, Mode: RoundHalfEven}
}

// Validate checks the rounder configuration.
func (r Rounder) Validate() error {
	if r.Threshold.IsNegative() || r.Threshold.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("rounding threshold must be in [0,1), got %s", r.Threshold)
	}
	switch r.Mode {
	case RoundHalfEven, RoundHalfUp:
		return nil
	default:
		return fmt.Errorf("unknown rounding mode: %q", r.Mode)
	}
}

// Round converts a non-negative unit price into whole kronor.
func (r Rounder) Round(price decimal.Decimal) int64 {
	ceil := price.Ceil()
	if ceil.Sub(price).GreaterThan(r.Threshold) {
		return r.nearest(price).IntPart()
	}
	return ceil.IntPart()
}

func (r Rounder) nearest(price decimal.Decimal) decimal.Decimal {
	if r.Mode == RoundHalfUp {
		return price.Round(0)
	}
	return price.RoundBank(0)
}
