// Package chart draws per-state history and forecast plots.
package chart

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/chronic-disease-etl/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var forecastColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}

// Renderer writes one PNG per state and metric under dir/<metric>/.
type Renderer struct {
	dir           string
	width, height vg.Length
}

// NewRenderer creates a Renderer rooted at dir.
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir, width: 6 * vg.Inch, height: 4 * vg.Inch}
}

// Path returns the file a series is rendered to.
func (r *Renderer) Path(metric domain.Metric, state string) string {
	return filepath.Join(r.dir, strings.ToLower(string(metric)), fileName(state)+".png")
}

// Render plots the observed series and, when present, the forecast point.
func (r *Renderer) Render(ctx context.Context, series domain.StateSeries, result domain.ForecastResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if series.Len() == 0 {
		return nil
	}

	p, err := r.plot(series, result)
	if err != nil {
		return fmt.Errorf("plot %s %s: %w", series.State, series.Metric, err)
	}

	path := r.Path(series.Metric, series.State)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	if err := p.Save(r.width, r.height, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}

func (r *Renderer) plot(series domain.StateSeries, result domain.ForecastResult) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s %s", series.State, series.Metric)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Count"
	p.Y.Min = 0

	observed := make(plotter.XYs, len(series.Points))
	for i, pt := range series.Points {
		observed[i].X = float64(pt.Year)
		observed[i].Y = float64(pt.Count)
	}
	line, points, err := plotter.NewLinePoints(observed)
	if err != nil {
		return nil, err
	}
	p.Add(line, points)
	p.Legend.Add("observed", line, points)

	if next, ok := result.Next.Get(); ok {
		last := observed[len(observed)-1]
		projection := plotter.XYs{last, {X: float64(result.NextYear), Y: next}}
		proj, err := plotter.NewLine(projection)
		if err != nil {
			return nil, err
		}
		proj.Color = forecastColor
		proj.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

		mark, err := plotter.NewScatter(projection[1:])
		if err != nil {
			return nil, err
		}
		mark.Color = forecastColor
		mark.Shape = draw.CircleGlyph{}

		p.Add(proj, mark)
		p.Legend.Add("forecast", proj, mark)
	}
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

func fileName(state string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, state)
}
