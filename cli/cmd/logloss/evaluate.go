package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/obsidianstack/logloss/cli/internal/config"
	"github.com/obsidianstack/logloss/cli/internal/dataset"
	"github.com/obsidianstack/logloss/pkg/logloss"
	"github.com/obsidianstack/logloss/pkg/scoring"
	"github.com/obsidianstack/logloss/pkg/types"
)

// runner evaluates prediction sets with one evaluator and one history.
type runner struct {
	cfg    *config.Config
	eval   *logloss.Evaluator
	engine *scoring.Engine
	now    func() time.Time
}

func newRunner(cfg *config.Config) (*runner, error) {
	ev, err := logloss.New(
		logloss.WithEpsilon(cfg.Evaluator.Epsilon),
		logloss.WithWorkers(cfg.Evaluator.Workers),
		logloss.WithChunkSize(cfg.Evaluator.ChunkSize),
	)
	if err != nil {
		return nil, err
	}
	return &runner{cfg: cfg, eval: ev, engine: scoring.NewEngine(), now: time.Now}, nil
}

// evaluate scores one prediction set and attaches a bootstrap interval when
// bootstrap.iterations is set.
func (r *runner) evaluate(ctx context.Context, name string, p dataset.Predictions) (*types.Evaluation, error) {
	s, err := r.eval.Summarize(ctx, p.Labels, p.Probabilities)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}
	ev := r.engine.Process(name, s, r.now())

	if b := r.cfg.Bootstrap; b.Iterations > 0 {
		ci, err := logloss.BootstrapCI(s.Losses, b.Confidence, b.Iterations, b.Seed)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: bootstrap: %w", name, err)
		}
		scoring.WithInterval(ev, ci)
	}
	return ev, nil
}

// evaluateDatasets loads and scores every dataset. A failing dataset does not
// stop the others; all failures are returned joined.
func (r *runner) evaluateDatasets(ctx context.Context, datasets []config.Dataset) ([]types.Evaluation, error) {
	var (
		out  []types.Evaluation
		errs []error
	)
	for _, ds := range datasets {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		p, err := dataset.LoadPredictions(ds.Path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ev, err := r.evaluate(ctx, ds.Name, p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, *ev)
	}
	return out, errors.Join(errs...)
}

// datasetsFromArgs names each file after its base name without extension.
func datasetsFromArgs(paths []string) []config.Dataset {
	out := make([]config.Dataset, len(paths))
	for i, p := range paths {
		base := filepath.Base(p)
		out[i] = config.Dataset{Name: strings.TrimSuffix(base, filepath.Ext(base)), Path: p}
	}
	return out
}
