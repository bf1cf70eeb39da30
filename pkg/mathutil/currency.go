// Package mathutil provides common decimal utility functions.
package mathutil

import (
	"github.com/iwvelando/progressive-tax/pkg/constants"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(constants.PercentageMultiplier)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Only presentation code should call it.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.CurrencyPlaces)
}

// FloorZero returns val, or zero when val is negative.
func FloorZero(val decimal.Decimal) decimal.Decimal {
	if val.IsNegative() {
		return decimal.Zero
	}
	return val
}

// Min returns the minimum of two decimal values
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Ratio returns value / total, or zero when total is zero.
func Ratio(value, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return value.Div(total)
}

// Percentage converts a fraction (0.11) into a percentage (11).
func Percentage(fraction decimal.Decimal) decimal.Decimal {
	return fraction.Mul(hundred)
}

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
