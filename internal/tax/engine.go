// Package tax implements the progressive income tax engine: per-bracket
// contributions, totals, effective and marginal rates, and the comparison
// helpers built on top of a single calculation.
package tax

import (
	"fmt"

	"github.com/iwvelando/progressive-tax/internal/brackets"
	"github.com/iwvelando/progressive-tax/pkg/constants"
	"github.com/iwvelando/progressive-tax/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Input is one calculation request.
type Input struct {
	GrossIncome decimal.Decimal
	Year        int
	Deductions  decimal.Decimal
	Credits     decimal.Decimal
}

// TaxableIncome is the gross income less deductions, floored at zero.
func (in Input) TaxableIncome() decimal.Decimal {
	return mathutil.FloorZero(in.GrossIncome.Sub(in.Deductions))
}

// Validate rejects negative amounts and amounts outside CheckAmount's
// bounds. Values are never clamped.
func (in Input) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"gross_income", in.GrossIncome},
		{"deductions", in.Deductions},
		{"credits", in.Credits},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return negativeField(f.name, f.value)
		}
		if err := CheckAmount(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// Engine computes taxes against a bracket registry. It keeps no mutable
// state and is safe for concurrent use.
type Engine struct {
	registry *brackets.Registry
	logger   *zap.Logger
}

// NewEngine creates a new engine over registry.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewEngine(registry *brackets.Registry, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{registry: registry, logger: logger}
}

// Registry exposes the bracket registry the engine computes against.
func (e *Engine) Registry() *brackets.Registry {
	return e.registry
}

// Calculate applies the year's brackets to the input and returns a fresh
// result owned by the caller.
func (e *Engine) Calculate(in Input) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	seq, err := e.registry.Get(in.Year)
	if err != nil {
		return nil, err
	}

	taxable := in.TaxableIncome()
	contributions := make([]Contribution, len(seq))
	grossTax := decimal.Zero
	marginal := seq[0].Rate

	for i, b := range seq {
		top := taxable
		if !b.Unbounded() {
			top = mathutil.Min(taxable, *b.Upper)
		}
		incomeIn := mathutil.FloorZero(top.Sub(b.Lower))
		taxIn := incomeIn.Mul(b.Rate)

		contributions[i] = Contribution{
			Index:           i,
			Lower:           b.Lower,
			Upper:           b.Upper,
			Rate:            b.Rate,
			IncomeInBracket: incomeIn,
			TaxInBracket:    taxIn,
		}
		grossTax = grossTax.Add(taxIn)
		if incomeIn.IsPositive() {
			marginal = b.Rate
		}
	}

	netTax := mathutil.FloorZero(grossTax.Sub(in.Credits))

	result := &Result{
		Input:         in,
		TaxableIncome: taxable,
		GrossTax:      grossTax,
		NetTax:        netTax,
		NetIncome:     in.GrossIncome.Sub(netTax),
		EffectiveRate: mathutil.Ratio(netTax, in.GrossIncome),
		MarginalRate:  marginal,
		Contributions: contributions,
	}

	e.logger.Debug("tax calculated",
		zap.String("op", "tax.Calculate"),
		zap.Int("year", in.Year),
		zap.String("taxableIncome", taxable.String()),
		zap.String("grossTax", grossTax.String()),
		zap.String("netTax", netTax.String()),
	)

	return result, nil
}

// CompareScenarios calculates each input independently and returns the
// results in input order. Comparison mode accepts two or three inputs.
func (e *Engine) CompareScenarios(inputs []Input) ([]*Result, error) {
	if len(inputs) < constants.MinScenarios || len(inputs) > constants.MaxScenarios {
		return nil, &InvalidInputError{
			Field:  "scenarios",
			Reason: fmt.Sprintf("expected %d to %d scenarios, got %d", constants.MinScenarios, constants.MaxScenarios, len(inputs)),
		}
	}

	results := make([]*Result, len(inputs))
	for i, in := range inputs {
		result, err := e.Calculate(in)
		if err != nil {
			return nil, fmt.Errorf("scenario %d: %w", i+1, err)
		}
		results[i] = result
	}
	return results, nil
}

// CompareYears calculates the same income, deductions and credits under each
// requested year's brackets.
func (e *Engine) CompareYears(grossIncome, deductions, credits decimal.Decimal, years []int) (map[int]*Result, error) {
	if len(years) == 0 {
		return nil, &InvalidInputError{Field: "years", Reason: "at least one year is required"}
	}

	results := make(map[int]*Result, len(years))
	for _, year := range years {
		if _, done := results[year]; done {
			continue
		}
		result, err := e.Calculate(Input{
			GrossIncome: grossIncome,
			Year:        year,
			Deductions:  deductions,
			Credits:     credits,
		})
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", year, err)
		}
		results[year] = result
	}
	return results, nil
}
