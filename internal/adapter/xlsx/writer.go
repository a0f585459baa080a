// Package xlsx writes the forecast artifact as a spreadsheet report.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/chronic-disease-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	ForecastSheet = "Forecast"
	RunSheet      = "Run"
)

// Writer delivers artifacts to an .xlsx file, replacing it on each run.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a Writer for path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Deliver renders the artifact and atomically replaces the report file.
func (w *Writer) Deliver(ctx context.Context, runID string, artifact domain.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory workbook

	if err := fill(f, runID, artifact); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	tmp := w.path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		os.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("replace report: %w", err)
	}

	w.logger.Debug("report written", "path", w.path, "rows", len(artifact.Rows))
	return nil
}

func fill(f *excelize.File, runID string, artifact domain.Artifact) error {
	if err := f.SetSheetName("Sheet1", ForecastSheet); err != nil {
		return err
	}

	header := make([]any, len(domain.ArtifactColumns))
	for i, c := range domain.ArtifactColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(ForecastSheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range artifact.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := cells(row)
		if err := f.SetSheetRow(ForecastSheet, cell, &values); err != nil {
			return fmt.Errorf("row %s: %w", row.State, err)
		}
	}
	if err := f.SetPanes(ForecastSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}
	if err := f.SetColWidth(ForecastSheet, "A", "A", 24); err != nil {
		return err
	}

	if _, err := f.NewSheet(RunSheet); err != nil {
		return err
	}
	meta := [][]any{
		{"RunID", runID},
		{"GeneratedAt", artifact.GeneratedAt.UTC().Format(time.RFC3339)},
		{"States", len(artifact.Rows)},
	}
	for i, kv := range meta {
		if err := f.SetSheetRow(RunSheet, fmt.Sprintf("A%d", i+1), &kv); err != nil {
			return err
		}
	}
	return nil
}

// cells leaves Missing values as blank cells.
func cells(r domain.StateRow) []any {
	count := func(v domain.Value) any {
		if f, ok := v.Get(); ok {
			return int64(f)
		}
		return nil
	}
	ratio := func(v domain.Value) any {
		if f, ok := v.Get(); ok {
			return f
		}
		return nil
	}
	return []any{
		r.State,
		r.MortalityCurrent,
		count(r.MortalityNext),
		r.HospitalizationCurrent,
		count(r.HospitalizationNext),
		ratio(r.MortalityChange),
		ratio(r.HospitalizationChange),
		ratio(r.PremiumIncreaseRate),
	}
}
