package domain

import (
	"cmp"
	"slices"
)

// Aggregate sums counts per (state, year) for one metric and returns one
// series per state, ordered by state name, each ascending by year. Records of
// other metrics are ignored. Missing years are not interpolated.
func Aggregate(records []IndicatorRecord, metric Metric) []StateSeries {
	totals := make(map[string]map[int]int64)
	for _, r := range records {
		if r.Metric != metric {
			continue
		}
		years, ok := totals[r.State]
		if !ok {
			years = make(map[int]int64)
			totals[r.State] = years
		}
		years[r.Year] += r.Count
	}

	out := make([]StateSeries, 0, len(totals))
	for state, years := range totals {
		points := make([]YearCount, 0, len(years))
		for year, count := range years {
			points = append(points, YearCount{Year: year, Count: count})
		}
		slices.SortFunc(points, func(a, b YearCount) int { return cmp.Compare(a.Year, b.Year) })
		out = append(out, StateSeries{State: state, Metric: metric, Points: points})
	}
	slices.SortFunc(out, func(a, b StateSeries) int { return cmp.Compare(a.State, b.State) })
	return out
}
