// Package money converts between decimal amounts at the API boundary and the
// int64 minor units used everywhere else.
package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnitDigits is the number of fractional digits of the account currency.
const MinorUnitDigits = 2

var (
	ErrTooPrecise = errors.New("amount has more than 2 decimal places")
	ErrOverflow   = errors.New("amount out of range")
)

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// ToMinor converts a decimal amount such as 12.34 to minor units (1234).
func ToMinor(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(MinorUnitDigits)
	if !shifted.IsInteger() {
		return 0, ErrTooPrecise
	}
	if shifted.GreaterThan(maxMinor) || shifted.LessThan(minMinor) {
		return 0, ErrOverflow
	}
	return shifted.IntPart(), nil
}

// ParseMinor parses a decimal string into minor units.
func ParseMinor(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return ToMinor(d)
}

// FromMinor converts minor units back to a decimal amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -MinorUnitDigits)
}

// Format renders minor units with exactly two decimals, e.g. "7.00".
func Format(minor int64) string {
	return FromMinor(minor).StringFixed(MinorUnitDigits)
}
