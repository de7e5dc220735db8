package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/sync/errgroup"

	"idlookup/internal/app"
	"idlookup/internal/platform/config"
	"idlookup/internal/platform/httpserver"
	"idlookup/internal/platform/logger"
	"idlookup/internal/platform/metrics"
	"idlookup/internal/platform/tracer"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("initializing idlookup",
		"addr", cfg.Server.Addr,
		"postgres", cfg.Database.URL != "",
		"redis", cfg.Redis.URL != "",
		"kafka", cfg.Kafka.Enabled(),
		"country", cfg.Holidays.Country,
	)

	application, err := app.Build(ctx, cfg, log, metrics.New(), app.WithTracer(tracer.NewOTel()))
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Error("failed to release resources", "error", err)
		}
	}()

	srv := httpserver.New(cfg.Server.Addr, application.NewRouter())

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return application.RunBackground(gCtx)
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	waitErr := g.Wait()

	// In-flight requests may have queued events after the worker's own drain.
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	application.FlushAudit(flushCtx)
	cancel()

	if waitErr != nil {
		return waitErr
	}
	log.Info("server stopped")
	return nil
}
