package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/logloss/cli/internal/dataset"
	"github.com/obsidianstack/logloss/cli/internal/logistic"
	"github.com/obsidianstack/logloss/pkg/types"
)

// demoDataset is the dataset name the walkthrough reports under.
const demoDataset = "hours-studied"

type demoOptions struct {
	samples int
	seed    uint64
	out     string
	json    bool
}

// demoResult is the --json output of `logloss demo`.
type demoResult struct {
	Model      *logistic.Model  `json:"model"`
	Boundary   float64          `json:"boundary_hours"`
	Accuracy   float64          `json:"accuracy"`
	Evaluation types.Evaluation `json:"evaluation"`
}

func newDemoCommand(root *rootOptions) *cobra.Command {
	opts := &demoOptions{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Fit a classifier on synthetic hours-studied data and score it",
		Long: `Generate students with hours studied and a noisy pass/fail outcome, fit a
logistic regression, predict pass probabilities for the same students and
compute their log-loss.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.samples, "samples", dataset.DefaultSamples, "number of students to generate")
	f.Uint64Var(&opts.seed, "seed", dataset.DefaultSeed, "random seed")
	f.StringVar(&opts.out, "out", "", "write label,probability rows to this CSV file")
	f.BoolVar(&opts.json, "json", false, "print the result as JSON")

	return cmd
}

func runDemo(cmd *cobra.Command, root *rootOptions, opts *demoOptions) error {
	d := root.cfg.Demo
	f := cmd.Flags()
	if f.Changed("samples") {
		d.Samples = opts.samples
	}
	if f.Changed("seed") {
		d.Seed = opts.seed
	}
	if d.Samples <= 0 {
		return fmt.Errorf("--samples must be positive, got %d", d.Samples)
	}

	samples := dataset.Generate(dataset.GenerateConfig{
		Samples:   d.Samples,
		MaxHours:  d.MaxHours,
		Threshold: d.Threshold,
		Noise:     d.Noise,
		Seed:      d.Seed,
	})
	x, y := dataset.Matrix(samples)

	model, err := logistic.Fit(x, y, logistic.WithC(d.C))
	if err != nil {
		return err
	}
	probs, err := model.PredictProba(x)
	if err != nil {
		return err
	}

	if opts.out != "" {
		if err := writePredictionsFile(opts.out, y, probs); err != nil {
			return err
		}
	}

	r, err := newRunner(root.cfg)
	if err != nil {
		return err
	}
	ev, err := r.evaluate(cmd.Context(), demoDataset, dataset.Predictions{Labels: y, Probabilities: probs})
	if err != nil {
		return err
	}

	res := demoResult{
		Model:      model,
		Boundary:   -model.Intercept / model.Weights[0],
		Accuracy:   accuracy(y, probs),
		Evaluation: *ev,
	}
	if opts.json {
		return printJSON(cmd.OutOrStdout(), res)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %d students, seed %d\n", heading("data:"), d.Samples, d.Seed)
	fmt.Fprintf(w, "%s P(pass) = sigmoid(%.4f * hours %+.4f)\n", heading("model:"), model.Weights[0], model.Intercept)
	fmt.Fprintf(w, "%s %.2f hours, training accuracy %.1f%%\n", heading("boundary:"), res.Boundary, res.Accuracy*100)
	if opts.out != "" {
		fmt.Fprintf(w, "%s %s\n", heading("predictions:"), opts.out)
	}
	fmt.Fprintln(w)
	return printEvaluations(w, []types.Evaluation{*ev})
}

func writePredictionsFile(path string, labels, probs []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := dataset.WritePredictions(f, labels, probs); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// accuracy is the fraction of rows where p >= 0.5 agrees with the label.
func accuracy(labels, probs []float64) float64 {
	var ok int
	for i, p := range probs {
		if (p >= 0.5) == (labels[i] == 1) {
			ok++
		}
	}
	return float64(ok) / float64(len(labels))
}
