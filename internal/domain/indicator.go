package domain

import "fmt"

// Metric identifies one of the two tracked count series.
type Metric string

const (
	Mortality       Metric = "Mortality"
	Hospitalization Metric = "Hospitalization"
)

// Metrics lists every metric in artifact column order.
var Metrics = []Metric{Mortality, Hospitalization}

// ParseMetric accepts the canonical metric names, case-sensitively.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case Mortality, Hospitalization:
		return Metric(s), nil
	default:
		return "", fmt.Errorf("unknown metric %q", s)
	}
}

// RawRow is one row of the staged CDI dataset. Fields keep the Socrata column
// names and are untyped strings until selection.
type RawRow struct {
	YearStart               string `json:"yearstart"`
	YearEnd                 string `json:"yearend"`
	LocationDesc            string `json:"locationdesc"`
	Topic                   string `json:"topic"`
	Question                string `json:"question"`
	DataValueType           string `json:"datavaluetype"`
	DataValue               string `json:"datavalue"`
	StratificationCategory1 string `json:"stratificationcategory1"`
	Stratification1         string `json:"stratification1"`
}

// IndicatorRecord is one selected count observation.
type IndicatorRecord struct {
	Year   int    `validate:"gte=1900,lte=2200"`
	State  string `validate:"required"`
	Metric Metric `validate:"oneof=Mortality Hospitalization"`
	Count  int64  `validate:"gte=0"`
}

// YearCount is one point of a StateSeries.
type YearCount struct {
	Year  int
	Count int64
}

// StateSeries is the yearly count history of one state for one metric,
// strictly ascending by year.
type StateSeries struct {
	State  string
	Metric Metric
	Points []YearCount
}

// Len returns the number of observations.
func (s StateSeries) Len() int { return len(s.Points) }

// Latest returns the point with the greatest year. ok is false for an empty
// series.
func (s StateSeries) Latest() (YearCount, bool) {
	if len(s.Points) == 0 {
		return YearCount{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Counts returns a copy of the counts as float64, oldest first.
func (s StateSeries) Counts() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = float64(p.Count)
	}
	return out
}
