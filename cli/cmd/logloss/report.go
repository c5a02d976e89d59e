package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/obsidianstack/logloss/pkg/types"
)

var (
	stateGood    = color.New(color.FgGreen).SprintFunc()
	stateFair    = color.New(color.FgYellow).SprintFunc()
	statePoor    = color.New(color.FgRed, color.Bold).SprintFunc()
	stateUnknown = color.New(color.Faint).SprintFunc()
	heading      = color.New(color.Bold).SprintFunc()
)

func colorState(state string) string {
	switch state {
	case types.StateGood:
		return stateGood(state)
	case types.StateFair:
		return stateFair(state)
	case types.StatePoor:
		return statePoor(state)
	default:
		return stateUnknown(state)
	}
}

// printEvaluations writes one row per evaluation. Only the last column is
// coloured: tabwriter counts escape bytes as cell width.
func printEvaluations(w io.Writer, evals []types.Evaluation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tSAMPLES\tLOSS\tBASELINE\tSKILL\tCLAMPED\tINTERVAL\tSTATE")
	for _, e := range evals {
		interval := "-"
		if e.Interval != nil {
			interval = fmt.Sprintf("[%.4f, %.4f] @%g", e.Interval.Lower, e.Interval.Upper, e.Interval.Confidence)
		}
		fmt.Fprintf(tw, "%s\t%d\t%.6f\t%.6f\t%.3f\t%d\t%s\t%s\n",
			e.Dataset, e.Samples, e.Loss, e.BaselineLoss, e.Skill, e.Clamped, interval, colorState(e.State))
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
