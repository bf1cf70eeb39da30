package format

import (
	"strings"

	"github.com/iwvelando/progressive-tax/pkg/constants"
	"github.com/iwvelando/progressive-tax/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Currency returns a currency string with thousands separators and a trailing
// dollar sign (e.g., "-1,234.56 $").
func Currency(amount decimal.Decimal) string {
	return NumericCurrency(amount) + " " + constants.CurrencySymbol
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount decimal.Decimal) string {
	rounded := mathutil.Round(amount)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	return sign + groupThousands(rounded.Abs().StringFixed(constants.CurrencyPlaces))
}

// WholeCurrency formats an amount without cents (e.g., "10,064 $").
func WholeCurrency(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	return sign + groupThousands(rounded.Abs().StringFixed(0)) + " " + constants.CurrencySymbol
}

// Percent renders a fraction as a percentage with two decimals (e.g., "6.60%").
func Percent(fraction decimal.Decimal) string {
	return mathutil.Percentage(fraction).StringFixed(constants.RatePlaces) + "%"
}

// RateLabel renders a bracket rate as a whole percentage (e.g., "11%").
func RateLabel(rate decimal.Decimal) string {
	return mathutil.Percentage(rate).StringFixed(0) + "%"
}

// BracketRange labels a bracket by its bounds. A nil upper bound is rendered
// as an open range ("157,806 $ +").
func BracketRange(lower decimal.Decimal, upper *decimal.Decimal) string {
	if upper == nil {
		return WholeCurrency(lower) + " +"
	}
	return WholeCurrency(lower) + " - " + WholeCurrency(*upper)
}

func groupThousands(value string) string {
	return Grouped(value, ",", ".")
}

// Grouped inserts sep between every three digits of the integer part of an
// unsigned fixed-point string and writes its decimal point as point
// (Grouped("1234567.5", " ", ",") is "1 234 567,5").
func Grouped(value, sep, point string) string {
	intPart, fracPart, hasFrac := strings.Cut(value, ".")

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteString(sep)
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if hasFrac {
		return intPart + point + fracPart
	}
	return intPart
}
