package blob

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/couchcryptid/chronic-disease-etl/internal/domain"
)

// Fetcher retrieves the raw dataset from its source.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]domain.RawRow, error)
}

// RowStager implements pipeline.RowSource. It optionally refreshes the
// staged raw CSV from a Fetcher, then always reads the staged copy back so a
// run sees exactly what was persisted.
type RowStager struct {
	fetcher Fetcher
	store   Store
	name    string
	logger  *slog.Logger
}

// NewRowStager stages under name. A nil fetcher reuses the existing blob.
func NewRowStager(fetcher Fetcher, store Store, name string, logger *slog.Logger) *RowStager {
	return &RowStager{fetcher: fetcher, store: store, name: name, logger: logger}
}

// LoadRows fetches and stages if configured, then decodes the staged CSV.
func (s *RowStager) LoadRows(ctx context.Context) ([]domain.RawRow, error) {
	if s.fetcher != nil {
		rows, err := s.fetcher.FetchAll(ctx)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := domain.WriteRawCSV(&buf, rows); err != nil {
			return nil, err
		}
		if err := s.store.Put(ctx, s.name, buf.Bytes()); err != nil {
			return nil, fmt.Errorf("stage raw rows: %w", err)
		}
		s.logger.Info("raw rows staged", "blob", s.name, "rows", len(rows), "bytes", buf.Len())
	} else {
		s.logger.Info("fetch skipped, using staged raw rows", "blob", s.name)
	}

	data, err := s.store.Get(ctx, s.name)
	if err != nil {
		return nil, fmt.Errorf("read staged raw rows: %w", err)
	}
	return domain.ReadRawCSV(bytes.NewReader(data))
}

// ArtifactStore writes the artifact CSV as a blob and serves it back by
// state. It implements pipeline.ArtifactSink and the query API's store.
type ArtifactStore struct {
	store Store
	name  string
}

// NewArtifactStore keeps the artifact under name.
func NewArtifactStore(store Store, name string) *ArtifactStore {
	return &ArtifactStore{store: store, name: name}
}

// Deliver overwrites the artifact blob.
func (a *ArtifactStore) Deliver(ctx context.Context, _ string, artifact domain.Artifact) error {
	var buf bytes.Buffer
	if err := artifact.WriteCSV(&buf); err != nil {
		return err
	}
	return a.store.Put(ctx, a.name, buf.Bytes())
}

// Read decodes the stored artifact.
func (a *ArtifactStore) Read(ctx context.Context) (domain.Artifact, error) {
	data, err := a.store.Get(ctx, a.name)
	if err != nil {
		return domain.Artifact{}, err
	}
	artifact, err := domain.ReadArtifactCSV(bytes.NewReader(data))
	if err != nil {
		return domain.Artifact{}, err
	}
	// Hand-edited files still answer Find correctly.
	slices.SortFunc(artifact.Rows, func(x, y domain.StateRow) int { return cmp.Compare(x.State, y.State) })
	return artifact, nil
}

// List returns every stored row ordered by state.
func (a *ArtifactStore) List(ctx context.Context) ([]domain.StateRow, error) {
	artifact, err := a.Read(ctx)
	if err != nil {
		return nil, err
	}
	return artifact.Rows, nil
}

// Get returns one state's row or domain.ErrNotFound.
func (a *ArtifactStore) Get(ctx context.Context, state string) (domain.StateRow, error) {
	artifact, err := a.Read(ctx)
	if err != nil {
		return domain.StateRow{}, err
	}
	row, ok := artifact.Find(state)
	if !ok {
		return domain.StateRow{}, fmt.Errorf("%w: %s", domain.ErrNotFound, state)
	}
	return row, nil
}

// CheckReadiness reports whether the artifact blob can be read.
func (a *ArtifactStore) CheckReadiness(ctx context.Context) error {
	_, err := a.store.Get(ctx, a.name)
	return err
}
