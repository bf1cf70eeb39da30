package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/iwvelando/progressive-tax/internal/brackets"
	"github.com/iwvelando/progressive-tax/internal/tax"
	"github.com/shopspring/decimal"
)

// ParseAmount converts a configured amount into a decimal. An empty value is
// zero. field names the setting in any error. Amounts outside
// tax.CheckAmount's bounds are rejected.
func ParseAmount(field, value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	if err := tax.CheckAmount(field, amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// Registry builds the bracket registry. Without a brackets section the
// built-in table is used.
func (c *Configuration) Registry() (*brackets.Registry, error) {
	if len(c.Brackets) == 0 {
		return brackets.Default(), nil
	}

	table := make(map[int][]brackets.Bracket, len(c.Brackets))
	for key, seq := range c.Brackets {
		year, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, &brackets.InvalidBracketTableError{Index: -1, Reason: fmt.Sprintf("year key %q is not an integer", key)}
		}
		converted, err := toBrackets(year, seq)
		if err != nil {
			return nil, err
		}
		table[year] = converted
	}

	return brackets.NewRegistry(table)
}

func toBrackets(year int, seq []BracketConfig) ([]brackets.Bracket, error) {
	out := make([]brackets.Bracket, 0, len(seq))
	for i, bc := range seq {
		lower, err := ParseAmount("min", bc.Min)
		if err != nil {
			return nil, &brackets.InvalidBracketTableError{Year: year, Index: i, Reason: err.Error()}
		}
		rate, err := ParseAmount("rate", bc.Rate)
		if err != nil {
			return nil, &brackets.InvalidBracketTableError{Year: year, Index: i, Reason: err.Error()}
		}
		b := brackets.Bracket{Lower: lower, Rate: rate}
		if strings.TrimSpace(bc.Max) != "" {
			upper, err := ParseAmount("max", bc.Max)
			if err != nil {
				return nil, &brackets.InvalidBracketTableError{Year: year, Index: i, Reason: err.Error()}
			}
			b.Upper = &upper
		}
		out = append(out, b)
	}
	return out, nil
}

// Input converts the scenario into an engine input. defaultYear is used when
// the scenario leaves Year unset.
func (s Scenario) Input(defaultYear int) (tax.Input, error) {
	gross, err := ParseAmount("grossIncome", s.GrossIncome)
	if err != nil {
		return tax.Input{}, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	deductions, credits, err := sumItems(s.Deductions, s.Credits)
	if err != nil {
		return tax.Input{}, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	year := s.Year
	if year == 0 {
		year = defaultYear
	}

	return tax.Input{
		GrossIncome: gross,
		Year:        year,
		Deductions:  deductions,
		Credits:     credits,
	}, nil
}

// ActiveScenarios returns the scenarios flagged active, in configured order.
func (c *Configuration) ActiveScenarios() []Scenario {
	var active []Scenario
	for _, s := range c.Scenarios {
		if s.Active {
			active = append(active, s)
		}
	}
	return active
}

// Amounts returns the parsed income, deductions and credits of the history
// request.
func (h History) Amounts() (gross, deductions, credits decimal.Decimal, err error) {
	gross, err = ParseAmount("history.grossIncome", h.GrossIncome)
	if err != nil {
		return
	}
	deductions, credits, err = sumItems(h.Deductions, h.Credits)
	return
}

// YearsOrAll returns the configured years, or every supported year when none
// were configured.
func (h History) YearsOrAll(registry *brackets.Registry) []int {
	if len(h.Years) == 0 {
		return registry.Years()
	}
	years := append([]int(nil), h.Years...)
	sort.Ints(years)
	return years
}

func sumItems(deductionItems, creditItems []Item) (decimal.Decimal, decimal.Decimal, error) {
	deductions, err := toTaxItems("deductions", deductionItems)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	credits, err := toTaxItems("credits", creditItems)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	totalDeductions, err := tax.Sum("deductions", deductions...)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	totalCredits, err := tax.Sum("credits", credits...)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return totalDeductions, totalCredits, nil
}

func toTaxItems(kind string, items []Item) ([]tax.Item, error) {
	out := make([]tax.Item, 0, len(items))
	for _, item := range items {
		amount, err := ParseAmount(strings.TrimSpace(kind+" "+item.Name), item.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, tax.Item{Name: item.Name, Amount: amount})
	}
	return out, nil
}
