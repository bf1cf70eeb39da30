package main

import (
	"errors"

	"github.com/iwvelando/progressive-tax/internal/config"
	"github.com/iwvelando/progressive-tax/internal/scenario"
	"github.com/spf13/cobra"
)

type historyOptions struct {
	income     string
	deductions string
	credits    string
	years      []int
}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Compare one income across tax years",
		Long: "Evaluate the same income under several tax years. Without --income the history\n" +
			"section of the configuration file is used.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.income, "income", "", "gross annual income")
	cmd.Flags().StringVar(&opts.deductions, "deductions", "", "total deductions")
	cmd.Flags().StringVar(&opts.credits, "credits", "", "total tax credits")
	cmd.Flags().IntSliceVar(&opts.years, "years", nil, "years to compare (defaults to every supported year)")
	return cmd
}

func runHistory(cmd *cobra.Command, root *rootOptions, opts *historyOptions) error {
	const op = "main.runHistory"

	a, err := setup(root, opts.income == "")
	if err != nil {
		return err
	}
	defer a.close()

	conf := *a.conf
	if opts.income != "" {
		conf.History = config.History{
			GrossIncome: opts.income,
			Deductions:  items(opts.deductions),
			Credits:     items(opts.credits),
			Years:       opts.years,
		}
	}
	if !conf.History.Enabled() {
		return a.fail(op, "nothing to compare", errors.New("no --income given and the configuration has no history section"))
	}

	history, err := scenario.RunHistory(a.logger, a.engine, conf)
	if err != nil {
		return a.fail(op, "failed to compute history", err)
	}
	return a.printHistory(cmd.OutOrStdout(), history)
}
