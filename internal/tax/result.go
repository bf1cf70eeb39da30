package tax

import (
	"sort"

	"github.com/iwvelando/progressive-tax/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Contribution is one bracket's share of a calculation.
type Contribution struct {
	Index           int
	Lower           decimal.Decimal
	Upper           *decimal.Decimal
	Rate            decimal.Decimal
	IncomeInBracket decimal.Decimal
	TaxInBracket    decimal.Decimal
}

// Result is the outcome of one calculation. Amounts are unrounded; callers
// round at presentation time.
type Result struct {
	Input         Input
	TaxableIncome decimal.Decimal
	GrossTax      decimal.Decimal
	NetTax        decimal.Decimal
	NetIncome     decimal.Decimal
	EffectiveRate decimal.Decimal
	MarginalRate  decimal.Decimal
	Contributions []Contribution
}

// Breakdown returns the contributions that received taxable income, or the
// first bracket alone when none did, so a breakdown is never empty.
func (r *Result) Breakdown() []Contribution {
	touched := make([]Contribution, 0, len(r.Contributions))
	for _, c := range r.Contributions {
		if c.IncomeInBracket.IsPositive() {
			touched = append(touched, c)
		}
	}
	if len(touched) == 0 && len(r.Contributions) > 0 {
		touched = append(touched, r.Contributions[0])
	}
	return touched
}

// TaxShare is the fraction of gross tax raised by bracket i.
func (r *Result) TaxShare(i int) decimal.Decimal {
	if i < 0 || i >= len(r.Contributions) {
		return decimal.Zero
	}
	return mathutil.Ratio(r.Contributions[i].TaxInBracket, r.GrossTax)
}

// SortedYears returns the keys of a CompareYears result in ascending order.
func SortedYears(results map[int]*Result) []int {
	years := make([]int, 0, len(results))
	for year := range results {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// YearChange compares one year's net tax with the year before it in the same
// CompareYears result.
type YearChange struct {
	Year int
	// HasPrevious is false for the earliest year.
	HasPrevious bool
	Difference  decimal.Decimal
	// Rate is Difference as a fraction of the previous net tax, or zero when
	// the previous net tax was zero.
	Rate decimal.Decimal
}

// YearOverYear returns one change per year in ascending year order.
func YearOverYear(results map[int]*Result) []YearChange {
	years := SortedYears(results)
	changes := make([]YearChange, len(years))
	for i, year := range years {
		changes[i] = YearChange{Year: year}
		if i == 0 {
			continue
		}
		previous := results[years[i-1]].NetTax
		diff := results[year].NetTax.Sub(previous)
		changes[i].HasPrevious = true
		changes[i].Difference = diff
		changes[i].Rate = mathutil.Ratio(diff, previous)
	}
	return changes
}
