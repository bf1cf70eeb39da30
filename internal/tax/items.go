package tax

import (
	"github.com/iwvelando/progressive-tax/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Item is a named deduction or credit, e.g. a pension contribution or a
// child credit.
type Item struct {
	Name   string
	Amount decimal.Decimal
}

// Sum totals itemised deductions or credits. kind names the input family
// ("deductions" or "credits") in any error.
func Sum(kind string, items ...Item) (decimal.Decimal, error) {
	amounts := make([]decimal.Decimal, 0, len(items))
	for _, item := range items {
		field := kind
		if item.Name != "" {
			field = kind + "." + item.Name
		}
		if item.Amount.IsNegative() {
			return decimal.Zero, negativeField(field, item.Amount)
		}
		if err := CheckAmount(field, item.Amount); err != nil {
			return decimal.Zero, err
		}
		amounts = append(amounts, item.Amount)
	}
	return mathutil.Sum(amounts...), nil
}
