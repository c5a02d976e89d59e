package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/obsidianstack/logloss/pkg/logloss"
	"github.com/obsidianstack/logloss/server/internal/alerts"
	"github.com/obsidianstack/logloss/server/internal/api"
	"github.com/obsidianstack/logloss/server/internal/auth"
	"github.com/obsidianstack/logloss/server/internal/config"
	"github.com/obsidianstack/logloss/server/internal/store"
	"github.com/obsidianstack/logloss/server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file; empty runs with defaults")
	logLevel := flag.String("log-level", "info", "debug | info | warn | error")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("logloss-server starting", "config", *configPath)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
	}
	sc := cfg.Server

	slog.Info("config loaded",
		"http_port", sc.HTTPPort,
		"auth_mode", sc.Auth.Mode,
		"store_ttl", sc.Store.TTL,
		"epsilon", sc.Evaluator.Epsilon,
		"alert_rules", len(sc.Alerts.Rules),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, sc); err != nil {
		slog.Error("logloss-server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, sc config.ServerConfig) error {
	evaluator, err := logloss.New(
		logloss.WithEpsilon(sc.Evaluator.Epsilon),
		logloss.WithWorkers(sc.Evaluator.Workers),
	)
	if err != nil {
		return err
	}

	// Evaluation store with background TTL eviction.
	st := store.New(sc.Store.TTL)
	go st.Run(ctx)

	// Alerts engine: evaluates rules on every stored evaluation.
	alertEngine, err := alerts.New(sc.Alerts)
	if err != nil {
		return err
	}
	defer alertEngine.Wait()

	if sc.Auth.Mode == "apikey" && sc.Auth.Key() == "" {
		slog.Warn("auth mode is apikey but the key variable is empty; API is unauthenticated",
			"key_env", sc.Auth.KeyEnv)
	}
	apiKey := auth.APIKey(sc.Auth.Mode, sc.Auth.EffectiveHeader(), sc.Auth.Key())

	// WebSocket hub: streams the evaluation snapshot every stream.interval.
	hub := ws.New(st, sc.Stream.Interval)
	go hub.Run(ctx)

	router := mux.NewRouter()
	router.Handle("/ws/stream", hub)
	router.PathPrefix("/").Handler(api.New(st, alertEngine, evaluator, sc.Limits, apiKey))

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", sc.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", sc.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	slog.Info("logloss-server shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	return httpSrv.Shutdown(shutdownCtx)
}
