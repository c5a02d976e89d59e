package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/logloss/cli/internal/logistic"
)

func newSigmoidCommand() *cobra.Command {
	var (
		zMin, zMax float64
		steps      int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "sigmoid",
		Short: "Print the logistic sigmoid over a range of scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pts, err := logistic.Curve(zMin, zMax, steps)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), pts)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "z\tsigmoid(z)\t")
			for _, p := range pts {
				fmt.Fprintf(tw, "%.3f\t%.6f\t\n", p.Z, p.P)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Float64Var(&zMin, "min", -10, "smallest score")
	cmd.Flags().Float64Var(&zMax, "max", 10, "largest score")
	cmd.Flags().IntVar(&steps, "steps", 21, "number of evenly spaced points")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print points as JSON")

	return cmd
}
