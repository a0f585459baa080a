package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/chronic-disease-etl/internal/domain"
	"github.com/couchcryptid/chronic-disease-etl/internal/observability"
	"github.com/google/uuid"
)

// RowSource provides the raw indicator rows for one run.
type RowSource interface {
	LoadRows(ctx context.Context) ([]domain.RawRow, error)
}

// ArtifactSink delivers a finished artifact somewhere downstream.
type ArtifactSink interface {
	Deliver(ctx context.Context, runID string, artifact domain.Artifact) error
}

// Sink names an ArtifactSink for logs and metrics.
type Sink struct {
	Name string
	ArtifactSink
}

// ChartRenderer draws one state's history and forecast. Rendering is a side
// channel: failures are logged and never fail the run.
type ChartRenderer interface {
	Render(ctx context.Context, series domain.StateSeries, result domain.ForecastResult) error
}

// Options configures a Pipeline.
type Options struct {
	ExcludedYear int
	Workers      int
	Charts       ChartRenderer
}

// Result is the outcome of one successful run.
type Result struct {
	RunID     string
	Artifact  domain.Artifact
	Dropped   []domain.DroppedState
	Forecasts map[domain.Metric][]domain.ForecastResult
}

// Pipeline runs the forecast and premium-adjustment batch.
type Pipeline struct {
	source     RowSource
	forecaster domain.Forecaster
	sinks      []Sink
	charts     ChartRenderer
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool

	excludedYear int
	workers      int
}

// New creates a Pipeline. Sinks receive the artifact in order; the first
// failure aborts the run.
func New(src RowSource, f domain.Forecaster, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{
		source:       src,
		forecaster:   f,
		sinks:        sinks,
		charts:       opts.Charts,
		logger:       logger,
		metrics:      metrics,
		excludedYear: opts.ExcludedYear,
		workers:      opts.Workers,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run executes one batch. It either returns a complete Result or an error
// and no artifact.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	start := time.Now()

	logger.Info("pipeline run started", "workers", p.workers)
	p.metrics.PipelineActive.Set(1)
	defer p.metrics.PipelineActive.Set(0)

	res, err := p.run(ctx, runID, logger)
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("failure").Inc()
		logger.Error("pipeline run failed", "error", err, "duration", time.Since(start))
		return nil, err
	}

	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.LastSuccess.SetToCurrentTime()
	p.ready.Store(true)
	logger.Info("pipeline run complete",
		"states", len(res.Artifact.Rows),
		"dropped", len(res.Dropped),
		"duration", time.Since(start),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, logger *slog.Logger) (*Result, error) {
	rows, err := p.source.LoadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load raw rows: %w", err)
	}
	logger.Info("raw rows loaded", "rows", len(rows))

	forecasts := make(map[domain.Metric][]domain.ForecastResult, len(domain.Metrics))
	for _, metric := range domain.Metrics {
		records, err := domain.SelectIndicators(rows, metric, p.excludedYear)
		if err != nil {
			return nil, fmt.Errorf("select %s indicators: %w", metric, err)
		}
		p.metrics.RecordsSelected.WithLabelValues(string(metric)).Add(float64(len(records)))

		series := domain.Aggregate(records, metric)
		logger.Info("series aggregated", "metric", metric, "records", len(records), "states", len(series))

		results, err := p.forecastAll(ctx, series, logger)
		if err != nil {
			return nil, fmt.Errorf("forecast %s: %w", metric, err)
		}
		forecasts[metric] = results
		p.renderCharts(ctx, series, results, logger)
	}

	artifact, dropped, err := domain.BuildArtifact(forecasts[domain.Mortality], forecasts[domain.Hospitalization])
	if err != nil {
		return nil, fmt.Errorf("build artifact: %w", err)
	}
	for _, d := range dropped {
		logger.Warn("state dropped from artifact", "state", d.State, "missing", d.Missing)
		p.metrics.DroppedStates.WithLabelValues(string(d.Missing)).Inc()
	}
	if len(artifact.Rows) == 0 {
		logger.Warn("artifact has no rows")
	}
	p.metrics.ArtifactRows.Set(float64(len(artifact.Rows)))

	for _, s := range p.sinks {
		if err := s.Deliver(ctx, runID, artifact); err != nil {
			p.metrics.SinkErrors.WithLabelValues(s.Name).Inc()
			return nil, fmt.Errorf("deliver artifact to %s: %w", s.Name, err)
		}
		logger.Info("artifact delivered", "sink", s.Name, "rows", len(artifact.Rows))
	}

	return &Result{
		RunID:     runID,
		Artifact:  artifact,
		Dropped:   dropped,
		Forecasts: forecasts,
	}, nil
}

func (p *Pipeline) renderCharts(ctx context.Context, series []domain.StateSeries, results []domain.ForecastResult, logger *slog.Logger) {
	if p.charts == nil {
		return
	}
	for i, s := range series {
		if err := p.charts.Render(ctx, s, results[i]); err != nil {
			logger.Warn("chart render failed", "state", s.State, "metric", s.Metric, "error", err)
		}
	}
}
