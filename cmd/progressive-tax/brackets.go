package main

import (
	"fmt"
	"strings"

	"github.com/iwvelando/progressive-tax/pkg/constants"
	"github.com/iwvelando/progressive-tax/pkg/output"
	"github.com/spf13/cobra"
)

func newBracketsCmd(root *rootOptions) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "brackets",
		Short: "Show the bracket table of a tax year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrackets(cmd, root, year)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "tax year (defaults to every supported year)")
	return cmd
}

func runBrackets(cmd *cobra.Command, root *rootOptions, year int) error {
	const op = "main.runBrackets"

	a, err := setup(root, false)
	if err != nil {
		return err
	}
	defer a.close()

	registry := a.engine.Registry()
	years := registry.Years()
	if year != 0 {
		years = []int{year}
	}

	w := cmd.OutOrStdout()
	printer := output.NewPrinter(w, a.locale)
	for i, y := range years {
		seq, err := registry.Get(y)
		if err != nil {
			return a.fail(op, "failed to load brackets", err)
		}
		switch a.format {
		case constants.OutputFormatPretty:
			if i > 0 {
				fmt.Fprintln(w)
			}
			printer.Brackets(y, seq)
		case constants.OutputFormatCSV:
			csv, err := output.BracketsCsvString(y, seq)
			if err != nil {
				return a.fail(op, "failed to write brackets", err)
			}
			if i > 0 {
				// one header for the whole export
				_, csv, _ = strings.Cut(csv, "\n")
			}
			fmt.Fprint(w, csv)
		}
	}
	return nil
}
