package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/logloss/pkg/exposition"
	"github.com/obsidianstack/logloss/pkg/types"
)

func newInspectCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <textfile|url>",
		Short: "Decode a logloss textfile or /metrics endpoint and print the evaluations in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]

			var (
				evals []types.Evaluation
				err   error
			)
			if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
				evals, err = exposition.Fetch(cmd.Context(), nil, src)
			} else {
				evals, err = decodeFile(src)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", src, err)
			}
			if len(evals) == 0 {
				return fmt.Errorf("%s: no logloss metrics found", src)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), evals)
			}
			return printEvaluations(cmd.OutOrStdout(), evals)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print evaluations as JSON")
	return cmd
}

func decodeFile(path string) ([]types.Evaluation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return exposition.Decode(f)
}
