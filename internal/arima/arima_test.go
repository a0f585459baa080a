package arima

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastNext_InsufficientData(t *testing.T) {
	var m Model
	for _, history := range [][]float64{nil, {}, {42}} {
		_, err := m.ForecastNext(history)
		require.ErrorIs(t, err, ErrInsufficientData)
	}
}

func TestForecastNext_NonFiniteInput(t *testing.T) {
	var m Model
	_, err := m.ForecastNext([]float64{1, math.NaN(), 3})
	require.ErrorIs(t, err, ErrFitFailed)

	_, err = m.ForecastNext([]float64{1, 2, math.Inf(1)})
	require.ErrorIs(t, err, ErrFitFailed)
}

func TestForecastNext_ConstantSeries(t *testing.T) {
	var m Model
	next, err := m.ForecastNext([]float64{50, 50, 50})
	require.NoError(t, err)
	assert.Equal(t, 50.0, next)
}

func TestForecastNext_TwoPointsIsRandomWalk(t *testing.T) {
	var m Model
	next, err := m.ForecastNext([]float64{100, 110})
	require.NoError(t, err)
	assert.Equal(t, 110.0, next)
}

func TestForecastNext_LinearGrowth(t *testing.T) {
	var m Model
	next, err := m.ForecastNext([]float64{100, 110, 120})
	require.NoError(t, err)
	assert.Greater(t, next, 120.0)
	assert.InDelta(t, 130.0, next, 1.0)
}

func TestForecastNext_LargeCountsScaleInvariant(t *testing.T) {
	var m Model
	small, err := m.ForecastNext([]float64{100, 110, 120, 130})
	require.NoError(t, err)
	large, err := m.ForecastNext([]float64{100000, 110000, 120000, 130000})
	require.NoError(t, err)
	assert.InDelta(t, small*1000, large, 1000*0.5)
}

func TestFit_CoefficientsAreStationaryAndInvertible(t *testing.T) {
	var m Model
	fit, err := m.Fit([]float64{50, 53, 49, 55, 52, 58, 54, 61})
	require.NoError(t, err)
	assert.Less(t, math.Abs(fit.AR), 1.0)
	assert.Less(t, math.Abs(fit.MA), 1.0)
	assert.False(t, math.IsNaN(fit.Next()))
}

func TestFit_DoesNotMutateHistory(t *testing.T) {
	history := []float64{10, 14, 13, 19, 22}
	snapshot := append([]float64(nil), history...)

	_, err := Model{}.Fit(history)
	require.NoError(t, err)
	assert.Equal(t, snapshot, history)
}

func TestCSS(t *testing.T) {
	w := []float64{1, 1, 1}
	sse, last := css(w, 1, 0)
	assert.Equal(t, 0.0, sse)
	assert.Equal(t, 0.0, last)

	sse, last = css(w, 0, 0)
	assert.Equal(t, 2.0, sse)
	assert.Equal(t, 1.0, last)
}

func TestScaledDifferences(t *testing.T) {
	w, scale := scaledDifferences([]float64{10, 30, 20})
	assert.Equal(t, 20.0, scale)
	assert.Equal(t, []float64{1, -0.5}, w)

	_, scale = scaledDifferences([]float64{7, 7, 7})
	assert.Equal(t, 0.0, scale)
}
