package config

import (
	"fmt"

	"github.com/iwvelando/progressive-tax/internal/brackets"
	"github.com/iwvelando/progressive-tax/pkg/constants"
)

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Hard errors surface later, when scenarios are converted
// into engine inputs.
func (c *Configuration) ValidateConfiguration(registry *brackets.Registry) []string {
	var warnings []string

	active := c.ActiveScenarios()
	if len(active) == 0 && !c.History.Enabled() {
		warnings = append(warnings, "No active scenarios and no history request configured - nothing to compute")
	}
	if len(active) > constants.MaxScenarios {
		warnings = append(warnings, fmt.Sprintf("%d active scenarios configured - comparison mode covers at most %d",
			len(active), constants.MaxScenarios))
	}

	seen := make(map[string]bool)
	for _, s := range c.Scenarios {
		if seen[s.Name] {
			warnings = append(warnings, fmt.Sprintf("Scenario name '%s' is used more than once", s.Name))
		}
		seen[s.Name] = true

		if !s.Active {
			continue
		}
		if s.Year != 0 && registry != nil && !registry.Supports(s.Year) {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' uses unsupported year %d", s.Name, s.Year))
		}

		in, err := s.Input(0)
		if err != nil {
			continue
		}
		if in.Deductions.GreaterThan(in.GrossIncome) {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' deductions (%s) exceed gross income (%s) - taxable income is zero",
				s.Name, in.Deductions, in.GrossIncome))
		}
		if in.GrossIncome.IsZero() && in.Credits.IsPositive() {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' has credits but no income - credits have no effect", s.Name))
		}
	}

	if c.History.Enabled() && registry != nil {
		for _, year := range c.History.Years {
			if !registry.Supports(year) {
				warnings = append(warnings, fmt.Sprintf("History year %d is not supported", year))
			}
		}
	}

	return warnings
}
