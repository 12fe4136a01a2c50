package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	audioimpl "github.com/foxseedlab/kikitori/external/audio"
	configloader "github.com/foxseedlab/kikitori/external/config"
	eventsimpl "github.com/foxseedlab/kikitori/external/events"
	"github.com/foxseedlab/kikitori/external/llm"
	metricsimpl "github.com/foxseedlab/kikitori/external/metrics"
	"github.com/foxseedlab/kikitori/external/server"
	transcriberimpl "github.com/foxseedlab/kikitori/external/transcriber"
	webhookimpl "github.com/foxseedlab/kikitori/external/webhook"
	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/foxseedlab/kikitori/internal/events"
	"github.com/foxseedlab/kikitori/internal/session"
	"github.com/foxseedlab/kikitori/internal/transcriber"
	"github.com/samber/do/v2"
)

const shutdownTimeout = 30 * time.Second

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "engine", cfg.TranscriptionEngine)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: loading transcription engine")
	if _, err := do.Invoke[transcriber.Engine](injector); err != nil {
		slog.Error("failed to initialize transcription engine", "error", err, "engine", cfg.TranscriptionEngine)
		os.Exit(1)
	}

	runServer(injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	transcriberimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	metricsimpl.RegisterDI(injector)
	eventsimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	llm.RegisterDI(injector)
	session.RegisterDI(injector)
	server.RegisterDI(injector)

	return injector
}

func runServer(injector do.Injector) {
	srv, err := do.Invoke[*server.Server](injector)
	if err != nil {
		slog.Error("failed to resolve http server", "error", err)
		os.Exit(1)
	}

	done := make(chan error, 1)
	go func() {
		slog.Info("startup: listening", "addr", srv.Addr())
		done <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-done:
		if err != nil {
			slog.Error("http server failed", "error", err)
		}
	}

	shutdown(injector, srv)
}

func shutdown(injector do.Injector, srv *server.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	if manager, err := do.Invoke[*session.Manager](injector); err == nil {
		if err := manager.Shutdown(ctx); err != nil {
			slog.Error("session shutdown did not finish", "error", err)
		}
	}
	if engine, err := do.Invoke[transcriber.Engine](injector); err == nil {
		if err := engine.Close(); err != nil {
			slog.Error("transcription engine close failed", "error", err)
		}
	}
	if publisher, err := do.Invoke[events.Publisher](injector); err == nil {
		if err := publisher.Close(); err != nil {
			slog.Error("event publisher close failed", "error", err)
		}
	}
	slog.Info("shutdown complete")
}
