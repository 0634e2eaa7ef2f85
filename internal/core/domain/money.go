package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts are fixed-point decimals, never floats. They travel as strings on
// the wire ("150.00") so nothing is lost to binary floating point on the way
// in.

// ParseAmount parses a wire amount and normalizes it to two decimal places.
// It only checks the number is well formed; positivity is the engine's call.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Exponent() < -2 {
		return decimal.Zero, fmt.Errorf("invalid amount %q: more than two decimal places", s)
	}
	return d.Round(2), nil
}

// ValidAmount reports whether an amount can be moved: strictly positive.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive()
}
