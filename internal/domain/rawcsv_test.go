package domain

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRawCSV(t *testing.T) {
	t.Run("matches columns by name", func(t *testing.T) {
		in := "\ufeffYearEnd,LocationDesc,extra,YearStart,Topic,Question,DataValueType,DataValue\n" +
			"2019,Texas,x,2019,Asthma,Hospitalization for asthma,Number,12\n"
		rows, err := ReadRawCSV(strings.NewReader(in))

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Texas", rows[0].LocationDesc)
		assert.Equal(t, "2019", rows[0].YearStart)
		assert.Equal(t, "12", rows[0].DataValue)
		assert.Empty(t, rows[0].Stratification1)
	})

	t.Run("missing required column", func(t *testing.T) {
		in := "yearstart,yearend,locationdesc,topic,question,datavaluetype\n"
		_, err := ReadRawCSV(strings.NewReader(in))

		require.ErrorIs(t, err, ErrStructural)
		assert.Contains(t, err.Error(), "datavalue")
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ReadRawCSV(strings.NewReader(""))
		require.ErrorIs(t, err, ErrStructural)
	})

	t.Run("ragged row", func(t *testing.T) {
		in := strings.Join(RawColumns, ",") + "\n2019,2019,Texas\n"
		_, err := ReadRawCSV(strings.NewReader(in))
		require.ErrorIs(t, err, ErrStructural)
	})
}

func TestRawCSVRoundTrip(t *testing.T) {
	rows := []RawRow{
		rawRow("2019", "California", testMortalityQ, "Number", "100"),
		rawRow("2020", "California", `Quoted "title", with comma`, "Number", "110"),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteRawCSV(&buf, rows))

	got, err := ReadRawCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadRawCSV_Fixture(t *testing.T) {
	f, err := os.Open("testdata/raw_sample.csv")
	require.NoError(t, err)
	defer f.Close()

	rows, err := ReadRawCSV(f)
	require.NoError(t, err)

	mort, err := SelectIndicators(rows, Mortality, DefaultExcludedYear)
	require.NoError(t, err)
	hosp, err := SelectIndicators(rows, Hospitalization, DefaultExcludedYear)
	require.NoError(t, err)

	mortSeries := Aggregate(mort, Mortality)
	hospSeries := Aggregate(hosp, Hospitalization)
	require.Len(t, mortSeries, 2)
	require.Len(t, hospSeries, 2)

	assert.Equal(t, "California", mortSeries[0].State)
	assert.Equal(t, []float64{100, 110, 120}, mortSeries[0].Counts())
	assert.Equal(t, []float64{50, 50, 50}, mortSeries[1].Counts())
	assert.Equal(t, []float64{40, 44, 48}, hospSeries[0].Counts())
	assert.Equal(t, []float64{20, 20, 20}, hospSeries[1].Counts())
}
