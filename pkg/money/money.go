// Package money centralizes the decimal conventions for monetary values.
// Storage keeps 4 fractional digits so intermediate arithmetic never loses
// sub-cent precision; display rounds to 2 with half-to-even so per-item
// commission splits stay symmetric under reversal.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// StorageScale is the fractional precision persisted in numeric columns.
	StorageScale = 4
	// DisplayScale is the precision used for commission math and API output.
	DisplayScale = 2
)

var hundred = decimal.NewFromInt(100)

// Zero is the canonical zero amount.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// RoundStorage rounds to the persisted scale using banker's rounding.
func RoundStorage(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(StorageScale)
}

// RoundDisplay rounds to the display scale using banker's rounding.
func RoundDisplay(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(DisplayScale)
}

// ApplyRate computes base × rate% rounded half-to-even at display scale.
func ApplyRate(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred).RoundBank(DisplayScale)
}

// IsPositive reports whether the amount is strictly greater than zero.
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}

// IsNegative reports whether the amount is strictly less than zero.
func IsNegative(d decimal.Decimal) bool {
	return d.LessThan(decimal.Zero)
}

// Parse converts a decimal string, rejecting values that exceed storage scale.
func Parse(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", value, err)
	}
	if d.Exponent() < -StorageScale {
		return decimal.Zero, fmt.Errorf("amount %q exceeds %d fractional digits", value, StorageScale)
	}
	return d, nil
}

// Display renders the amount as a fixed 2-decimal string.
func Display(d decimal.Decimal) string {
	return d.StringFixed(DisplayScale)
}
