package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/progressive-tax/internal/config"
	"github.com/iwvelando/progressive-tax/internal/scenario"
	"github.com/iwvelando/progressive-tax/internal/tax"
	"github.com/spf13/cobra"
)

func newCompareCmd(root *rootOptions) *cobra.Command {
	var defs []string
	var pdf string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two or three income scenarios side by side",
		Long: "Compare two or three income scenarios. Each --scenario is a comma separated list of\n" +
			"key=value pairs, for example:\n\n" +
			"  --scenario name=Current,income=50000,deductions=3000 --scenario name=Offer,income=62000\n\n" +
			"Recognised keys are name, income, year, deductions and credits. Without --scenario the\n" +
			"active scenarios of the configuration file are compared.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompare(cmd, root, defs, pdf)
		},
	}

	cmd.Flags().StringArrayVar(&defs, "scenario", nil, "scenario definition (repeatable)")
	cmd.Flags().StringVar(&pdf, "pdf", "", "also write a PDF report, one page per scenario, to this path")
	return cmd
}

func runCompare(cmd *cobra.Command, root *rootOptions, defs []string, pdf string) error {
	const op = "main.runCompare"

	a, err := setup(root, len(defs) == 0)
	if err != nil {
		return err
	}
	defer a.close()

	scenarios := a.conf.ActiveScenarios()
	if len(defs) > 0 {
		scenarios = make([]config.Scenario, 0, len(defs))
		for i, def := range defs {
			s, err := parseScenario(def)
			if err != nil {
				return a.fail(op, "invalid scenario", err)
			}
			if s.Name == "" {
				s.Name = fmt.Sprintf("Scenario %d", i+1)
			}
			scenarios = append(scenarios, s)
		}
	}

	inputs := make([]tax.Input, len(scenarios))
	for i, s := range scenarios {
		inputs[i], err = s.Input(a.engine.Registry().Latest())
		if err != nil {
			return a.fail(op, "invalid scenario", err)
		}
	}

	results, err := a.engine.CompareScenarios(inputs)
	if err != nil {
		return a.fail(op, "failed to compare scenarios", err)
	}

	outcomes := make([]scenario.Outcome, len(results))
	for i, result := range results {
		outcomes[i] = scenario.Outcome{Name: scenarios[i].Name, Result: result}
	}
	if err := a.printOutcomes(cmd.OutOrStdout(), outcomes); err != nil {
		return err
	}
	if pdf != "" {
		return a.writeReport(pdf, outcomes)
	}
	return nil
}

// parseScenario reads a "key=value,key=value" scenario definition.
func parseScenario(def string) (config.Scenario, error) {
	s := config.Scenario{Active: true}
	for _, pair := range strings.Split(def, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return config.Scenario{}, fmt.Errorf("expected key=value, got %q", pair)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "name":
			s.Name = value
		case "income":
			s.GrossIncome = value
		case "year":
			year, err := strconv.Atoi(value)
			if err != nil {
				return config.Scenario{}, fmt.Errorf("invalid year %q: %w", value, err)
			}
			s.Year = year
		case "deductions":
			s.Deductions = items(value)
		case "credits":
			s.Credits = items(value)
		default:
			return config.Scenario{}, fmt.Errorf("unknown scenario key %q", key)
		}
	}
	if s.GrossIncome == "" {
		return config.Scenario{}, fmt.Errorf("scenario %q has no income", def)
	}
	return s, nil
}
