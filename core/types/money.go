// Package types - Money, currency and rounding primitives
package types

import "github.com/shopspring/decimal"

// Currency represents an ISO currency code
type Currency string

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// MoneyPlaces is the storage precision of every monetary output
const MoneyPlaces int32 = 2

var (
	// One is the decimal 1
	One = decimal.NewFromInt(1)

	// Hundred converts percent inputs to fractions
	Hundred = decimal.NewFromInt(100)
)

// RoundMoney rounds half away from zero at storage precision.
// All amounts in this package are non-negative, so this is round-half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Percent converts a percent figure (15 = 15%) to a fraction
func Percent(d decimal.Decimal) decimal.Decimal {
	return d.Div(Hundred)
}

// Sum adds decimals in order
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// NonNegative clamps a decimal at zero
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
