// Command storekit runs a small CRUD walkthrough against the configured
// storage backend. It exists to exercise the library wiring end to end:
// config loading and watching, the repository factory, caching and metrics.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/castlebit/storekit/config"
	"github.com/castlebit/storekit/factory"
	"github.com/castlebit/storekit/observability"
	"github.com/castlebit/storekit/repository"
)

const version = "dev"

func main() {
	loader := config.NewLoader(os.Getenv("CONFIG_PATH"))
	cfg, err := loader.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded",
		"storage_type", cfg.Storage.Type,
		"cache_enabled", cfg.Cache.Enabled,
		"telemetry_enabled", cfg.Telemetry.Enabled,
	)

	opts := []factory.Option{factory.WithLogger(logger)}

	var telemetry *observability.Telemetry
	if cfg.Telemetry.Enabled {
		telemetry, err = observability.NewTelemetry(cfg.Telemetry.ServiceName, version)
		if err != nil {
			logger.Error("failed to initialize telemetry", "error", err)
			os.Exit(1)
		}
		opts = append(opts, factory.WithMetrics(telemetry.Metrics))
	}

	f := factory.New(cfg, opts...)
	defer f.Close()

	loader.Watch(logger, func(next *config.Config) {
		if err := f.Reconfigure(next); err != nil {
			logger.Error("failed to apply new configuration", "error", err)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := walkthrough(ctx, f, logger); err != nil {
		logger.Error("walkthrough failed", "error", err)
		os.Exit(1)
	}

	if cfg.Telemetry.Enabled {
		serveMetrics(ctx, cfg.Telemetry.MetricsAddr, logger)
		if err := telemetry.Shutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}

	logger.Info("storekit stopped")
}

// walkthrough runs one create/read/update/list/delete cycle over the notes
// collection and logs each step.
func walkthrough(ctx context.Context, f *factory.Factory, logger *slog.Logger) error {
	repo, err := factory.Open(ctx, f, notes)
	if err != nil {
		return err
	}

	seeded := []*Note{
		{Title: "hello", Body: "first note", Tag: "demo"},
		{Title: "errands", Body: "buy milk", Tag: "todo"},
		{Title: "standup", Body: "9:30 tomorrow", Tag: "todo"},
	}
	var first *Note
	for _, n := range seeded {
		created, err := repo.Create(ctx, n).Unpack()
		if err != nil {
			return err
		}
		if first == nil {
			first = created
		}
		logger.Info("note created", "id", created.ID, "title", created.Title)
	}

	updated, err := repo.Update(ctx, first.ID, func(n *Note) error {
		n.Body = "first note, revised"
		return nil
	}).Unpack()
	if err != nil {
		return err
	}
	logger.Info("note updated", "id", updated.ID, "updated_at", updated.UpdatedAt)

	page, err := repo.FindBy(ctx, repository.Criteria{"tag": "todo"}, repository.ListOptions{
		Limit:  10,
		SortBy: "title",
	}).Unpack()
	if err != nil {
		return err
	}
	logger.Info("todo notes listed", "count", len(page.Items), "total", page.Total)

	total, err := repo.Count(ctx, nil).Unpack()
	if err != nil {
		return err
	}
	logger.Info("notes counted", "total", total)

	if _, err := repo.Delete(ctx, first.ID).Unpack(); err != nil {
		return err
	}
	logger.Info("note deleted", "id", first.ID)

	return nil
}

// serveMetrics exposes the Prometheus endpoint until the context is
// cancelled.
func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", "error", err)
	}
}

// setupLogger creates and configures the logger.
func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
