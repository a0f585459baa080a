package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/chronic-disease-etl/internal/domain"
	"github.com/jackc/pgx/v5"
)

// DefaultRefreshViews are the billing views derived from the forecast table.
var DefaultRefreshViews = []string{"lastinvoicedetailspercustomer", "customercontract"}

// Loader replaces the forecast table with an artifact. It implements
// pipeline.ArtifactSink.
type Loader struct {
	pool   *Pool
	views  []string
	logger *slog.Logger
}

// NewLoader refreshes views, in order, after each load.
func NewLoader(pool *Pool, views []string, logger *slog.Logger) *Loader {
	return &Loader{pool: pool, views: views, logger: logger}
}

// Deliver truncates the table, copies every row and refreshes the dependent
// views in one transaction. On any error nothing changes.
func (l *Loader) Deliver(ctx context.Context, runID string, artifact domain.Artifact) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, "TRUNCATE "+pgx.Identifier{forecastTable}.Sanitize()); err != nil {
		return fmt.Errorf("truncate %s: %w", forecastTable, err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{forecastTable}, forecastColumns, pgx.CopyFromSlice(len(artifact.Rows), func(i int) ([]any, error) {
		r := artifact.Rows[i]
		return []any{
			r.State,
			r.MortalityCurrent,
			r.MortalityNext.Ptr(),
			r.HospitalizationCurrent,
			r.HospitalizationNext.Ptr(),
			r.MortalityChange.Ptr(),
			r.HospitalizationChange.Ptr(),
			r.PremiumIncreaseRate.Ptr(),
			runID,
			artifact.GeneratedAt,
		}, nil
	}))
	if err != nil {
		return fmt.Errorf("copy into %s: %w", forecastTable, err)
	}

	for _, view := range l.views {
		if _, err := tx.Exec(ctx, "REFRESH MATERIALIZED VIEW "+pgx.Identifier{view}.Sanitize()); err != nil {
			return fmt.Errorf("refresh %s: %w", view, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit load: %w", err)
	}
	l.logger.Info("forecast table loaded", "rows", n, "views_refreshed", len(l.views))
	return nil
}
