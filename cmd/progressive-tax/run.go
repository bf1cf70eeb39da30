package main

import (
	"fmt"

	"github.com/iwvelando/progressive-tax/internal/scenario"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Evaluate the scenarios and history request of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfig(cmd, opts)
		},
	}
}

func runConfig(cmd *cobra.Command, opts *rootOptions) error {
	const op = "main.runConfig"

	a, err := setup(opts, true)
	if err != nil {
		return err
	}
	defer a.close()

	for _, warning := range a.conf.ValidateConfiguration(a.engine.Registry()) {
		a.logger.Warn("Configuration warning: "+warning,
			zap.String("op", op),
		)
	}

	outcomes, err := scenario.Run(a.logger, a.engine, *a.conf)
	if err != nil {
		return a.fail(op, "failed to compute scenarios", err)
	}
	history, err := scenario.RunHistory(a.logger, a.engine, *a.conf)
	if err != nil {
		return a.fail(op, "failed to compute history", err)
	}

	w := cmd.OutOrStdout()
	if len(outcomes) > 0 {
		if err := a.printOutcomes(w, outcomes); err != nil {
			return err
		}
	}
	if history != nil {
		if len(outcomes) > 0 {
			fmt.Fprintln(w)
		}
		return a.printHistory(w, history)
	}
	return nil
}
