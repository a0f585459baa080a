package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/chronic-disease-etl/internal/domain"
	"golang.org/x/sync/errgroup"
)

// forecastAll forecasts every series on at most p.workers goroutines.
// results[i] always belongs to series[i], so output order does not depend on
// scheduling. Only cancellation fails the batch; per-state fit problems are
// recorded in the result.
func (p *Pipeline) forecastAll(ctx context.Context, series []domain.StateSeries, logger *slog.Logger) ([]domain.ForecastResult, error) {
	results := make([]domain.ForecastResult, len(series))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, s := range series {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = domain.ForecastSeries(p.forecaster, s, logger)
			p.metrics.Forecasts.WithLabelValues(string(s.Metric), string(results[i].Outcome)).Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
