// Package postgres loads forecast artifacts into the billing database and
// serves them back to the query API.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool wraps pgxpool.Pool.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a connection pool and verifies it with a ping.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// CheckReadiness pings the database.
func (p *Pool) CheckReadiness(ctx context.Context) error {
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("postgres unreachable: %w", err)
	}
	return nil
}

const forecastTable = "chronicdiseaseforecast"

// forecastColumns matches the table definition in sql/postgres.
var forecastColumns = []string{
	"state",
	"mortalitycountcurrentyear",
	"mortalitycountnextyear",
	"hospitalizationcountcurrentyear",
	"hospitalizationcountnextyear",
	"mortalitychange",
	"hospitalizationchange",
	"premiumamountincreaserate",
	"run_id",
	"generated_at",
}

func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
