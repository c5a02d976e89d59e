package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/logloss/cli/internal/config"
	"github.com/obsidianstack/logloss/cli/internal/shipper"
	"github.com/obsidianstack/logloss/pkg/exposition"
	"github.com/obsidianstack/logloss/pkg/types"
)

// shipTimeout bounds how long `eval --ship` waits for the server.
const shipTimeout = 30 * time.Second

type evalOptions struct {
	epsilon    float64
	bootstrap  int
	confidence float64
	textfile   string
	ship       bool
	json       bool
}

func newEvalCommand(root *rootOptions) *cobra.Command {
	opts := &evalOptions{}

	cmd := &cobra.Command{
		Use:   "eval [predictions.csv ...]",
		Short: "Compute log-loss for prediction files",
		Long: `Compute the mean binary cross-entropy of each prediction file.

Each file holds label,probability rows (header optional). Without arguments
the datasets listed in the config file are evaluated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, root.cfg, opts, args)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&opts.epsilon, "epsilon", config.DefaultEpsilon, "clamp bound for probabilities, in (0, 0.5)")
	f.IntVar(&opts.bootstrap, "bootstrap", 0, "bootstrap resamples for a confidence interval (0 disables)")
	f.Float64Var(&opts.confidence, "confidence", config.DefaultConfidence, "confidence level of the bootstrap interval")
	f.StringVar(&opts.textfile, "textfile", "", "write a node_exporter textfile to this path")
	f.BoolVar(&opts.ship, "ship", false, "send results to the server configured under server.endpoint")
	f.BoolVar(&opts.json, "json", false, "print results as JSON")

	return cmd
}

func runEval(cmd *cobra.Command, base *config.Config, opts *evalOptions, args []string) error {
	cfg := *base
	f := cmd.Flags()
	if f.Changed("epsilon") {
		cfg.Evaluator.Epsilon = opts.epsilon
	}
	if f.Changed("bootstrap") {
		cfg.Bootstrap.Iterations = opts.bootstrap
	}
	if f.Changed("confidence") {
		cfg.Bootstrap.Confidence = opts.confidence
	}
	if f.Changed("textfile") {
		cfg.Output.Textfile = opts.textfile
	}
	if err := config.Validate(&cfg); err != nil {
		return err
	}
	if opts.ship && cfg.Server.Endpoint == "" {
		return errors.New("--ship needs server.endpoint in the config file")
	}

	datasets := cfg.Datasets
	if len(args) > 0 {
		datasets = datasetsFromArgs(args)
	}
	if len(datasets) == 0 {
		return errors.New("no prediction files: pass CSV paths or list datasets in the config file")
	}

	r, err := newRunner(&cfg)
	if err != nil {
		return err
	}
	// Datasets that scored are still reported when others fail.
	evals, evalErr := r.evaluateDatasets(cmd.Context(), datasets)
	if len(evals) == 0 {
		return evalErr
	}

	if err := publish(cmd.Context(), &cfg, evals, opts.ship); err != nil {
		return errors.Join(err, evalErr)
	}

	if opts.json {
		err = printJSON(cmd.OutOrStdout(), evals)
	} else {
		err = printEvaluations(cmd.OutOrStdout(), evals)
	}
	return errors.Join(err, evalErr)
}

// publish writes the textfile and ships to the server, as configured.
func publish(ctx context.Context, cfg *config.Config, evals []types.Evaluation, ship bool) error {
	if cfg.Output.Textfile != "" {
		if err := exposition.WriteTextfile(cfg.Output.Textfile, evals); err != nil {
			return err
		}
		slog.Info("textfile written", "path", cfg.Output.Textfile, "datasets", len(evals))
	}

	if !ship {
		return nil
	}
	s := shipper.New(cfg.Server)
	for i := range evals {
		s.Ship(&evals[i])
	}
	ctx, cancel := context.WithTimeout(ctx, shipTimeout)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		return fmt.Errorf("ship to %s: %w (%d evaluations not delivered)", cfg.Server.Endpoint, err, s.Pending())
	}
	slog.Info("evaluations shipped", "endpoint", cfg.Server.Endpoint, "count", len(evals))
	return nil
}
