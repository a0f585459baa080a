package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/chronic-disease-etl/internal/adapter/blob"
	"github.com/couchcryptid/chronic-disease-etl/internal/adapter/cdc"
	"github.com/couchcryptid/chronic-disease-etl/internal/adapter/chart"
	httpadapter "github.com/couchcryptid/chronic-disease-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/chronic-disease-etl/internal/adapter/kafka"
	"github.com/couchcryptid/chronic-disease-etl/internal/adapter/postgres"
	"github.com/couchcryptid/chronic-disease-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/chronic-disease-etl/internal/arima"
	"github.com/couchcryptid/chronic-disease-etl/internal/config"
	"github.com/couchcryptid/chronic-disease-etl/internal/observability"
	"github.com/couchcryptid/chronic-disease-etl/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	skipFetch := flag.Bool("skip-fetch", false, "reuse the staged raw CSV instead of fetching from the CDC API")
	flag.Parse()

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

	if err := run(ctx, cfg, *skipFetch, logger, metrics); err != nil {
		logger.Error("etl failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, skipFetch bool, logger *slog.Logger, metrics *observability.Metrics) error {
	store, err := blob.NewStore(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("blob store ready", "backend", cfg.BlobBackend, "container", cfg.BlobContainer)

	var fetcher blob.Fetcher
	if !skipFetch {
		fetcher = cdc.NewClient(cfg, metrics, logger)
	}
	source := blob.NewRowStager(fetcher, store, cfg.RawBlobName, logger)

	sinks, closeSinks, err := buildSinks(ctx, cfg, store, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	opts := pipeline.Options{ExcludedYear: cfg.ExcludedYear, Workers: cfg.ForecastWorkers}
	if cfg.ChartDir != "" {
		opts.Charts = chart.NewRenderer(cfg.ChartDir)
	}

	p := pipeline.New(source, arima.Model{}, sinks, logger, metrics, opts)

	// Health and metrics stay reachable for the duration of the run.
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, nil, metrics, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}()

	names := make([]string, len(sinks))
	for i, s := range sinks {
		names[i] = s.Name
	}
	logger.Info("starting etl", "skip_fetch", skipFetch, "sinks", names, "charts", cfg.ChartDir != "")

	if _, err := p.Run(ctx); err != nil {
		return err
	}
	logger.Info("etl complete")
	return nil
}

// buildSinks returns the configured sinks with the artifact blob last, so a
// run that fails in any other sink leaves the previous artifact in place.
func buildSinks(ctx context.Context, cfg *config.Config, store blob.Store, logger *slog.Logger) ([]pipeline.Sink, func(), error) {
	var (
		sinks   []pipeline.Sink
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.ReportXLSX != "" {
		sinks = append(sinks, pipeline.Sink{Name: "xlsx", ArtifactSink: xlsx.NewWriter(cfg.ReportXLSX, logger)})
	}
	if cfg.DatabaseEnabled() {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		sinks = append(sinks, pipeline.Sink{Name: "postgres", ArtifactSink: postgres.NewLoader(pool, cfg.DBRefreshViews, logger)})
	}
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		closers = append(closers, func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		})
		sinks = append(sinks, pipeline.Sink{Name: "kafka", ArtifactSink: writer})
	}
	sinks = append(sinks, pipeline.Sink{Name: "blob", ArtifactSink: blob.NewArtifactStore(store, cfg.ArtifactBlobName)})

	return sinks, closeAll, nil
}
