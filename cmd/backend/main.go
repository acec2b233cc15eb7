package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stockresearch/backend/internal/api"
	"github.com/stockresearch/backend/internal/cache"
	"github.com/stockresearch/backend/internal/config"
	"github.com/stockresearch/backend/internal/db"
	"github.com/stockresearch/backend/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, cfg.AppEnv)
	logger.Info("starting stock research backend",
		"env", cfg.AppEnv,
		"log_level", cfg.Observability.LogLevel)

	_ = observability.GetMetrics()
	logger.Debug("metrics initialized",
		"metrics_port", cfg.Observability.MetricsPort)

	healthChecker := observability.NewHealthChecker(logger)
	healthChecker.Set("config", observability.StatusHealthy, "")

	database, err := db.New(cfg.DatabaseURL(), db.Options{
		PoolSize:        cfg.Postgres.PoolSize,
		MaxOverflow:     cfg.Postgres.MaxOverflow,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		SessionTimeout:  cfg.Postgres.SessionTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database pool: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("error closing database pool",
				"error", err.Error())
		}
	}()
	healthChecker.RegisterCheck("database", database.Probe)
	logger.Debug("database pool initialized",
		"pool_size", cfg.Postgres.PoolSize,
		"max_overflow", cfg.Postgres.MaxOverflow)

	// Connecting is lazy everywhere; a down database must not block startup.
	// The probe here is advisory, it seeds the health state early.
	probeCtx, probeCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := database.Probe(probeCtx); err != nil {
		logger.Warn("database not reachable at startup",
			"error", err.Error())
	}
	probeCancel()

	cacheClient, err := cache.New(cfg.RedisURL())
	if err != nil {
		return fmt.Errorf("failed to initialize cache client: %w", err)
	}
	defer func() {
		if err := cacheClient.Close(); err != nil {
			logger.Error("error closing cache client",
				"error", err.Error())
		}
	}()
	healthChecker.RegisterCheck("cache", cacheClient.Probe)
	logger.Debug("cache client initialized")

	prometheus.MustRegister(observability.NewPoolCollector(database))

	obsServer := observability.NewServer(
		cfg.Observability.MetricsPort,
		cfg.Observability.HealthCheckPort,
		logger,
		healthChecker,
	)

	apiServer := api.NewAPIServer(&cfg.API, database, logger)

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := obsServer.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("observability server error",
				"error", err.Error())
			errChan <- fmt.Errorf("observability server error: %w", err)
		}
		logger.Debug("observability server stopped")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("API server listening",
			"port", cfg.API.Port)
		if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("API server error",
				"error", err.Error())
			errChan <- fmt.Errorf("API server error: %w", err)
		}
		logger.Debug("API server stopped")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		healthChecker.StartPeriodicChecks(ctx, cfg.Observability.HealthCheckInterval)
		logger.Debug("periodic health checks stopped")
	}()

	logger.Info("all components started successfully")

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errChan:
		logger.Error("component error, initiating shutdown",
			"error", err.Error())
		cancel()
	}

	logger.Info("shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var shutdownErrs *multierror.Error

	select {
	case <-done:
		logger.Info("all components stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, forcing exit")
		shutdownErrs = multierror.Append(shutdownErrs, shutdownCtx.Err())
	}

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down API server",
			"error", err.Error())
		shutdownErrs = multierror.Append(shutdownErrs, err)
	}

	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down observability server",
			"error", err.Error())
		shutdownErrs = multierror.Append(shutdownErrs, err)
	}

	logger.Info("shutdown complete")
	return shutdownErrs.ErrorOrNil()
}
