package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/chronic-disease-etl/internal/adapter/blob"
	httpadapter "github.com/couchcryptid/chronic-disease-etl/internal/adapter/http"
	"github.com/couchcryptid/chronic-disease-etl/internal/adapter/postgres"
	"github.com/couchcryptid/chronic-disease-etl/internal/config"
	"github.com/couchcryptid/chronic-disease-etl/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store httpadapter.ForecastStore
		ready sharedobs.ReadinessChecker
	)
	if cfg.DatabaseEnabled() {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		store, ready = postgres.NewStore(pool), pool
		logger.Info("serving forecasts from postgres")
	} else {
		bs, err := blob.NewStore(ctx, cfg)
		if err != nil {
			logger.Error("failed to open blob store", "error", err)
			os.Exit(1)
		}
		artifacts := blob.NewArtifactStore(bs, cfg.ArtifactBlobName)
		store, ready = artifacts, artifacts
		logger.Info("serving forecasts from blob", "blob", cfg.ArtifactBlobName)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, store, metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}
