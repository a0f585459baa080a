// Package arima fits the fixed-order ARIMA(1,1,1) model used to forecast
// yearly indicator totals one step ahead.
//
// The series is differenced once and a zero-mean ARMA(1,1)
//
//	w[t] = phi*w[t-1] + e[t] + theta*e[t-1]
//
// is fit to the differences by conditional sum of squares, conditioning on
// the first difference (e[0] = 0). phi and theta are optimized as
// tanh(x) so every fit is stationary and invertible. Differences are scaled
// by their largest magnitude before fitting so Nelder-Mead tolerances do not
// depend on the size of the counts.
package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

var (
	// ErrInsufficientData is returned for fewer than two observations.
	ErrInsufficientData = errors.New("arima: at least two observations required")

	// ErrFitFailed is returned when estimation produces no usable model.
	ErrFitFailed = errors.New("arima: fit failed")
)

const defaultMaxIterations = 400

// Model estimates ARIMA(1,1,1) fits. The zero value is ready to use.
type Model struct {
	// MaxIterations bounds Nelder-Mead iterations. Zero means 400.
	MaxIterations int
}

// Fit is an estimated model positioned at the end of its history.
type Fit struct {
	AR  float64
	MA  float64
	SSE float64 // in scaled units

	level     float64 // last observation
	scale     float64
	lastDiff  float64 // scaled
	lastResid float64 // scaled
}

// Fit estimates the model on history, oldest first. history is not modified.
func (m Model) Fit(history []float64) (Fit, error) {
	if len(history) < 2 {
		return Fit{}, ErrInsufficientData
	}
	for i, v := range history {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Fit{}, fmt.Errorf("%w: observation %d is not finite", ErrFitFailed, i)
		}
	}

	w, scale := scaledDifferences(history)
	fit := Fit{level: history[len(history)-1], scale: scale}
	// One difference or a flat series carries no information about the
	// ARMA terms; the fit degenerates to a random walk.
	if scale == 0 || len(w) < 2 {
		if len(w) > 0 {
			fit.lastDiff = w[len(w)-1]
		}
		return fit, nil
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			sse, _ := css(w, math.Tanh(x[0]), math.Tanh(x[1]))
			return sse
		},
	}
	settings := &optimize.Settings{
		MajorIterations: m.maxIterations(),
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Iterations: 25,
		},
	}

	result, err := optimize.Minimize(problem, []float64{0, 0}, settings, &optimize.NelderMead{})
	// Limit statuses still carry the best point found; only an unusable
	// point is a failure.
	if result == nil || len(result.X) != 2 {
		if err == nil {
			err = errors.New("optimizer returned no result")
		}
		return Fit{}, fmt.Errorf("%w: %w", ErrFitFailed, err)
	}

	phi, theta := math.Tanh(result.X[0]), math.Tanh(result.X[1])
	sse, lastResid := css(w, phi, theta)
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return Fit{}, fmt.Errorf("%w: non-finite objective", ErrFitFailed)
	}

	fit.AR = phi
	fit.MA = theta
	fit.SSE = sse
	fit.lastDiff = w[len(w)-1]
	fit.lastResid = lastResid
	return fit, nil
}

// Next returns the one-step-ahead forecast of the original series.
func (f Fit) Next() float64 {
	diff := f.AR*f.lastDiff + f.MA*f.lastResid
	return f.level + diff*f.scale
}

// ForecastNext fits history and forecasts the following value.
func (m Model) ForecastNext(history []float64) (float64, error) {
	fit, err := m.Fit(history)
	if err != nil {
		return 0, err
	}
	next := fit.Next()
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return 0, fmt.Errorf("%w: non-finite forecast", ErrFitFailed)
	}
	return next, nil
}

func (m Model) maxIterations() int {
	if m.MaxIterations > 0 {
		return m.MaxIterations
	}
	return defaultMaxIterations
}

// scaledDifferences returns the first differences divided by their largest
// magnitude, and that magnitude. A flat series returns scale 0.
func scaledDifferences(y []float64) ([]float64, float64) {
	w := make([]float64, len(y)-1)
	scale := 0.0
	for i := range w {
		w[i] = y[i+1] - y[i]
		scale = math.Max(scale, math.Abs(w[i]))
	}
	if scale == 0 {
		return w, 0
	}
	for i := range w {
		w[i] /= scale
	}
	return w, scale
}

// css returns the conditional sum of squared residuals and the final residual.
func css(w []float64, phi, theta float64) (float64, float64) {
	var sse, prev float64
	for t := 1; t < len(w); t++ {
		e := w[t] - phi*w[t-1] - theta*prev
		sse += e * e
		prev = e
	}
	return sse, prev
}
