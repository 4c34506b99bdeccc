package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gumtree-relister/browser"
	"gumtree-relister/config"
	"gumtree-relister/metrics"
	"gumtree-relister/relister"
	"gumtree-relister/scheduler"
	"gumtree-relister/storage"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(args []string) error {
	// A .env file is optional; plain environment variables work too.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	log := newLogger(cfg)
	slog.SetDefault(log)

	store := storage.NewAdStore(cfg.AdDataFile, log)
	m := metrics.New()

	if len(args) > 0 {
		switch args[0] {
		case "--once":
			log.Info("running a single relist cycle")
			outcome := newRelister(cfg, store, log, m).RunOnce()
			if !outcome.Succeeded {
				return fmt.Errorf("relist run failed at step %q", outcome.FailedStep)
			}
			return nil

		case "--check":
			log.Info("checking ad data file", slog.String("file", cfg.AdDataFile))
			if err := store.Check(); err != nil {
				return fmt.Errorf("ad data check failed: %w", err)
			}
			return nil

		default:
			log.Warn("unknown argument", slog.String("arg", args[0]))
			log.Info("usage: gumtree-relister [--once | --check]")
			return nil
		}
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		log.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.New(newRelister(cfg, store, log, m), cfg, log).Start(ctx)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}

	log.Info("shutdown complete")
	return nil
}

func newRelister(cfg *config.Config, store *storage.AdStore, log *slog.Logger, m *metrics.Metrics) *relister.Relister {
	factory := func() (relister.PageSession, error) {
		session, err := browser.NewSession(cfg.Headless, cfg.SnapshotDir, log)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
	return relister.New(cfg, store, factory, log, m)
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.LogLevel)

	var handler slog.Handler
	switch cfg.LogFormat {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
