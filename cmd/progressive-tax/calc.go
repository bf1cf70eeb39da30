package main

import (
	"github.com/iwvelando/progressive-tax/internal/config"
	"github.com/iwvelando/progressive-tax/internal/scenario"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type calcOptions struct {
	name       string
	income     string
	year       int
	deductions string
	credits    string
	pdf        string
}

func newCalcCmd(root *rootOptions) *cobra.Command {
	opts := &calcOptions{}

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate the tax owed on one income",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCalc(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "Income", "label shown in the output")
	cmd.Flags().StringVar(&opts.income, "income", "", "gross annual income")
	cmd.Flags().IntVar(&opts.year, "year", 0, "tax year (defaults to the most recent supported year)")
	cmd.Flags().StringVar(&opts.deductions, "deductions", "", "total deductions")
	cmd.Flags().StringVar(&opts.credits, "credits", "", "total tax credits")
	cmd.Flags().StringVar(&opts.pdf, "pdf", "", "also write a PDF report to this path")
	_ = cmd.MarkFlagRequired("income")
	return cmd
}

func runCalc(cmd *cobra.Command, root *rootOptions, opts *calcOptions) error {
	const op = "main.runCalc"

	a, err := setup(root, false)
	if err != nil {
		return err
	}
	defer a.close()

	s := config.Scenario{
		Name:        opts.name,
		Active:      true,
		Year:        opts.year,
		GrossIncome: opts.income,
		Deductions:  items(opts.deductions),
		Credits:     items(opts.credits),
	}
	in, err := s.Input(a.engine.Registry().Latest())
	if err != nil {
		return a.fail(op, "invalid input", err)
	}

	result, err := a.engine.Calculate(in)
	if err != nil {
		return a.fail(op, "failed to calculate tax", err)
	}

	a.logger.Debug("tax calculated",
		zap.String("op", op),
		zap.Int("year", result.Input.Year),
	)
	outcomes := []scenario.Outcome{{Name: opts.name, Result: result}}
	if err := a.printOutcomes(cmd.OutOrStdout(), outcomes); err != nil {
		return err
	}
	if opts.pdf != "" {
		return a.writeReport(opts.pdf, outcomes)
	}
	return nil
}
