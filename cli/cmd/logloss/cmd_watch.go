package main

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/obsidianstack/logloss/cli/internal/config"
	"github.com/obsidianstack/logloss/cli/internal/shipper"
)

func newWatchCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-evaluate configured datasets whenever they or the config change",
		Long: `Evaluate every dataset in the config file, then keep running: each time a
dataset file or the config file is written, the datasets are evaluated
again, the textfile is rewritten and results are shipped to the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if root.configPath == "" {
				return errors.New("watch needs --config")
			}
			return runWatch(cmd.Context(), root.configPath, root.cfg)
		},
	}
}

// watcher holds the state of one `logloss watch` session.
type watcher struct {
	configPath string
	cfg        *config.Config
	runner     *runner
	ship       *shipper.Shipper
}

func runWatch(ctx context.Context, configPath string, cfg *config.Config) error {
	w := &watcher{configPath: filepath.Clean(configPath)}
	if err := w.apply(cfg); err != nil {
		return err
	}
	if cfg.Server.Endpoint != "" {
		w.ship = shipper.New(cfg.Server)
		go w.ship.Run(ctx)
	}

	w.evaluate(ctx)

	for {
		reloaded, err := w.watchOnce(ctx)
		if err != nil || ctx.Err() != nil {
			return err
		}
		if reloaded == nil {
			return nil
		}
		if err := w.apply(reloaded); err != nil {
			slog.Error("watch: reloaded config rejected, keeping previous", "err", err)
		}
		w.evaluate(ctx)
	}
}

// watchOnce watches the config file and every dataset until the config
// changes, re-evaluating on each dataset write. It returns the reloaded
// config, or nil when ctx ends.
func (w *watcher) watchOnce(ctx context.Context) (*config.Config, error) {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var reloaded *config.Config
	g, gctx := errgroup.WithContext(wctx)
	g.Go(func() error {
		return config.Watch(gctx, w.configPath, func(cfg *config.Config) {
			slog.Info("watch: config reloaded", "datasets", len(cfg.Datasets))
			reloaded = cfg
			cancel()
		})
	})

	paths := make([]string, 0, len(w.cfg.Datasets))
	for _, ds := range w.cfg.Datasets {
		paths = append(paths, ds.Path)
	}
	if len(paths) > 0 {
		g.Go(func() error {
			return config.WatchFiles(gctx, paths, func(path string) {
				slog.Info("watch: dataset changed", "path", path)
				w.evaluate(gctx)
			})
		})
	}

	err := g.Wait()
	return reloaded, err
}

func (w *watcher) apply(cfg *config.Config) error {
	r, err := newRunner(cfg)
	if err != nil {
		return err
	}
	if w.cfg != nil && cfg.Server.Endpoint != w.cfg.Server.Endpoint {
		slog.Warn("watch: server.endpoint changes take effect on restart",
			"current", w.cfg.Server.Endpoint, "configured", cfg.Server.Endpoint)
	}
	if w.runner != nil {
		// Keep delta and trend continuous across reloads.
		r.engine = w.runner.engine
	}
	w.cfg, w.runner = cfg, r
	return nil
}

// evaluate scores every dataset and publishes what succeeded. Failures are
// logged; the session keeps running.
func (w *watcher) evaluate(ctx context.Context) {
	evals, err := w.runner.evaluateDatasets(ctx, w.cfg.Datasets)
	if err != nil {
		slog.Error("watch: evaluation failed", "err", err)
	}
	if len(evals) == 0 {
		return
	}
	for _, ev := range evals {
		slog.Info("watch: evaluated",
			"dataset", ev.Dataset,
			"loss", ev.Loss,
			"skill", ev.Skill,
			"state", ev.State,
			"delta", ev.Delta)
	}
	if err := publish(ctx, w.cfg, evals, false); err != nil {
		slog.Error("watch: publish failed", "err", err)
	}
	if w.ship != nil {
		for i := range evals {
			w.ship.Ship(&evals[i])
		}
	}
}
