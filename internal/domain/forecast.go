package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// MinObservations is the shortest series a forecaster is asked to fit.
const MinObservations = 2

// Forecaster predicts the value following the last element of history.
// Implementations must not retain or mutate history.
type Forecaster interface {
	ForecastNext(history []float64) (float64, error)
}

// ForecastOutcome classifies how a ForecastResult was produced.
type ForecastOutcome string

const (
	OutcomeOK           ForecastOutcome = "ok"
	OutcomeInsufficient ForecastOutcome = "insufficient"
	OutcomeFitFailed    ForecastOutcome = "fit_failed"
)

// ForecastResult is the current and next-year value of one state and metric.
type ForecastResult struct {
	State       string
	Metric      Metric
	CurrentYear int
	Current     int64
	NextYear    int
	Next        Value
	Outcome     ForecastOutcome
	Err         error
}

// ForecastSeries forecasts one year past the end of series. Short series and
// fit failures (including a forecaster panic) degrade to a Missing Next with
// Err set; they never fail the caller. A present forecast is rounded to the
// nearest whole count.
func ForecastSeries(f Forecaster, series StateSeries, logger *slog.Logger) ForecastResult {
	res := ForecastResult{State: series.State, Metric: series.Metric}
	if latest, ok := series.Latest(); ok {
		res.CurrentYear = latest.Year
		res.Current = latest.Count
		res.NextYear = latest.Year + 1
	}

	if series.Len() < MinObservations {
		res.Outcome = OutcomeInsufficient
		res.Err = fmt.Errorf("%w: %d observations", ErrInsufficientData, series.Len())
		logger.Debug("skipping forecast, not enough observations",
			"state", series.State,
			"metric", series.Metric,
			"observations", series.Len(),
		)
		return res
	}

	next, err := safeForecast(f, series.Counts())
	if err != nil {
		res.Outcome = OutcomeFitFailed
		res.Err = fmt.Errorf("%w: %w", ErrModelFit, err)
		logger.Warn("forecast failed, emitting missing value",
			"state", series.State,
			"metric", series.Metric,
			"error", err,
		)
		return res
	}

	res.Outcome = OutcomeOK
	res.Next = Present(math.Round(next))
	return res
}

func safeForecast(f Forecaster, history []float64) (next float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("forecaster panic: %v", r)
		}
	}()
	next, err = f.ForecastNext(history)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return 0, errors.New("non-finite forecast")
	}
	if next >= 1<<63 || next < -(1<<63) {
		return 0, fmt.Errorf("forecast %g outside the count range", next)
	}
	return next, nil
}
