package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	records := []IndicatorRecord{
		{Year: 2019, State: "Texas", Metric: Mortality, Count: 30},
		{Year: 2017, State: "California", Metric: Mortality, Count: 60},
		{Year: 2019, State: "Texas", Metric: Mortality, Count: 20},
		{Year: 2017, State: "California", Metric: Mortality, Count: 40},
		{Year: 2018, State: "California", Metric: Mortality, Count: 110},
		{Year: 2017, State: "Texas", Metric: Mortality, Count: 50},
		{Year: 2017, State: "Texas", Metric: Hospitalization, Count: 999},
	}

	got := Aggregate(records, Mortality)
	want := []StateSeries{
		{State: "California", Metric: Mortality, Points: []YearCount{{2017, 100}, {2018, 110}}},
		{State: "Texas", Metric: Mortality, Points: []YearCount{{2017, 50}, {2019, 50}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	records := []IndicatorRecord{
		{Year: 2018, State: "Ohio", Metric: Hospitalization, Count: 1},
		{Year: 2017, State: "Iowa", Metric: Hospitalization, Count: 2},
		{Year: 2019, State: "Utah", Metric: Hospitalization, Count: 3},
		{Year: 2017, State: "Ohio", Metric: Hospitalization, Count: 4},
	}
	reversed := make([]IndicatorRecord, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}

	assert.Equal(t, Aggregate(records, Hospitalization), Aggregate(reversed, Hospitalization))
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, Mortality))
}

func TestStateSeries(t *testing.T) {
	s := StateSeries{Points: []YearCount{{2017, 5}, {2018, 7}}}
	latest, ok := s.Latest()
	assert.True(t, ok)
	assert.Equal(t, YearCount{2018, 7}, latest)

	counts := s.Counts()
	counts[0] = 99
	assert.Equal(t, int64(5), s.Points[0].Count)

	_, ok = StateSeries{}.Latest()
	assert.False(t, ok)
}
