package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/logloss/cli/internal/config"
)

// rootOptions carries the persistent flags and the config they resolve to.
type rootOptions struct {
	configPath string
	logLevel   string

	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "logloss",
		Short: "Evaluate probabilistic binary predictions with log-loss",
		Long: `logloss scores predicted probabilities against 0/1 labels using binary
cross-entropy, compares the result with the base rate, and publishes it as
a table, JSON, a node_exporter textfile, or to logloss-server.

Prediction files are CSV with label,probability rows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := setupLogging(cmd.ErrOrStderr(), opts.logLevel); err != nil {
				return err
			}
			return opts.loadConfig()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to logloss.yaml (defaults are used when empty)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	cmd.AddCommand(newEvalCommand(opts))
	cmd.AddCommand(newDemoCommand(opts))
	cmd.AddCommand(newSigmoidCommand())
	cmd.AddCommand(newWatchCommand(opts))
	cmd.AddCommand(newInspectCommand())

	return cmd
}

func (o *rootOptions) loadConfig() error {
	if o.configPath == "" {
		o.cfg = config.Default()
		return nil
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	slog.Debug("config loaded", "path", o.configPath, "datasets", len(cfg.Datasets))
	o.cfg = cfg
	return nil
}

// setupLogging installs a JSON slog handler on w. Results go to stdout, so
// logs always go to stderr.
func setupLogging(w io.Writer, level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("--log-level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}
