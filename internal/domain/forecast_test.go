package domain

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type forecastFunc func([]float64) (float64, error)

func (f forecastFunc) ForecastNext(h []float64) (float64, error) { return f(h) }

// lastPlusStep continues the last observed difference.
var lastPlusStep = forecastFunc(func(h []float64) (float64, error) {
	n := len(h)
	return h[n-1] + (h[n-1] - h[n-2]), nil
})

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func series(state string, metric Metric, counts ...int64) StateSeries {
	s := StateSeries{State: state, Metric: metric}
	for i, c := range counts {
		s.Points = append(s.Points, YearCount{Year: 2017 + i, Count: c})
	}
	return s
}

func TestForecastSeries(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		res := ForecastSeries(lastPlusStep, series("California", Mortality, 100, 110, 120), discardLogger())

		assert.Equal(t, OutcomeOK, res.Outcome)
		assert.NoError(t, res.Err)
		assert.Equal(t, 2019, res.CurrentYear)
		assert.Equal(t, int64(120), res.Current)
		assert.Equal(t, 2020, res.NextYear)
		assert.Equal(t, Present(130), res.Next)
	})

	t.Run("rounds to whole counts", func(t *testing.T) {
		f := forecastFunc(func([]float64) (float64, error) { return 41.6, nil })
		res := ForecastSeries(f, series("Ohio", Mortality, 40, 41), discardLogger())
		assert.Equal(t, Present(42), res.Next)
	})

	t.Run("single observation is insufficient", func(t *testing.T) {
		called := false
		f := forecastFunc(func([]float64) (float64, error) { called = true; return 0, nil })
		res := ForecastSeries(f, series("Guam", Hospitalization, 12), discardLogger())

		assert.False(t, called)
		assert.Equal(t, OutcomeInsufficient, res.Outcome)
		require.ErrorIs(t, res.Err, ErrInsufficientData)
		assert.True(t, res.Next.IsMissing())
		assert.Equal(t, int64(12), res.Current)
		assert.Equal(t, 2018, res.NextYear)
	})

	t.Run("fit error degrades to missing", func(t *testing.T) {
		f := forecastFunc(func([]float64) (float64, error) { return 0, errors.New("singular") })
		res := ForecastSeries(f, series("Texas", Mortality, 1, 2, 3), discardLogger())

		assert.Equal(t, OutcomeFitFailed, res.Outcome)
		require.ErrorIs(t, res.Err, ErrModelFit)
		assert.True(t, res.Next.IsMissing())
	})

	t.Run("panic degrades to missing", func(t *testing.T) {
		f := forecastFunc(func([]float64) (float64, error) { panic("boom") })
		res := ForecastSeries(f, series("Texas", Mortality, 1, 2, 3), discardLogger())

		assert.Equal(t, OutcomeFitFailed, res.Outcome)
		assert.ErrorIs(t, res.Err, ErrModelFit)
	})

	t.Run("non-finite forecast degrades to missing", func(t *testing.T) {
		f := forecastFunc(func([]float64) (float64, error) { return posInf(), nil })
		res := ForecastSeries(f, series("Texas", Mortality, 1, 2, 3), discardLogger())

		assert.Equal(t, OutcomeFitFailed, res.Outcome)
	})

	t.Run("forecast beyond int64 degrades to missing", func(t *testing.T) {
		f := forecastFunc(func([]float64) (float64, error) { return 1e19, nil })
		res := ForecastSeries(f, series("Texas", Mortality, 1, 2, 3), discardLogger())

		assert.Equal(t, OutcomeFitFailed, res.Outcome)
		require.ErrorIs(t, res.Err, ErrModelFit)
		assert.True(t, res.Next.IsMissing())
	})

	t.Run("largest representable forecast is kept", func(t *testing.T) {
		f := forecastFunc(func([]float64) (float64, error) { return 9e18, nil })
		res := ForecastSeries(f, series("Texas", Mortality, 1, 2, 3), discardLogger())

		assert.Equal(t, OutcomeOK, res.Outcome)
		assert.Equal(t, Present(9e18), res.Next)
	})
}

func posInf() float64 {
	var zero float64
	return 1 / zero
}

func TestRelativeChange(t *testing.T) {
	assert.Equal(t, Present(0.5), RelativeChange(100, Present(150)))
	assert.Equal(t, Present(-0.25), RelativeChange(100, Present(75)))
	assert.True(t, RelativeChange(0, Present(10)).IsMissing())
	assert.True(t, RelativeChange(100, Missing).IsMissing())

	r := ForecastResult{Current: 120, Next: Present(130)}
	got, ok := r.Change().Get()
	require.True(t, ok)
	assert.InDelta(t, 1.0/12, got, 1e-12)
}
