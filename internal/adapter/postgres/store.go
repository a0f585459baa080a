package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchcryptid/chronic-disease-etl/internal/domain"
	"github.com/jackc/pgx/v5"
)

// Store reads the loaded forecasts for the query API.
type Store struct {
	pool *Pool
}

// NewStore creates a Store.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

var selectRows = `SELECT ` + strings.Join(forecastColumns[:8], ", ") + ` FROM ` + forecastTable

// List returns every row ordered by state.
func (s *Store) List(ctx context.Context) ([]domain.StateRow, error) {
	rows, err := s.pool.Query(ctx, selectRows+` ORDER BY state`)
	if err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanStateRow)
	if err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}
	return out, nil
}

// Get returns one state's row. Returns domain.ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, state string) (domain.StateRow, error) {
	rows, err := s.pool.Query(ctx, selectRows+` WHERE state = $1`, state)
	if err != nil {
		return domain.StateRow{}, fmt.Errorf("get forecast: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, scanStateRow)
	if err != nil {
		if isNotFoundError(err) {
			return domain.StateRow{}, fmt.Errorf("%w: %s", domain.ErrNotFound, state)
		}
		return domain.StateRow{}, fmt.Errorf("get forecast: %w", err)
	}
	return row, nil
}

func scanStateRow(row pgx.CollectableRow) (domain.StateRow, error) {
	var r domain.StateRow
	var mortNext, hospNext, mortChg, hospChg, rate *float64
	if err := row.Scan(
		&r.State,
		&r.MortalityCurrent,
		&mortNext,
		&r.HospitalizationCurrent,
		&hospNext,
		&mortChg,
		&hospChg,
		&rate,
	); err != nil {
		return domain.StateRow{}, err
	}
	r.MortalityNext = domain.FromPtr(mortNext)
	r.HospitalizationNext = domain.FromPtr(hospNext)
	r.MortalityChange = domain.FromPtr(mortChg)
	r.HospitalizationChange = domain.FromPtr(hospChg)
	r.PremiumIncreaseRate = domain.FromPtr(rate)
	return r, nil
}
