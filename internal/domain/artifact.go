package domain

import (
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ArtifactColumns is the output column contract. The downstream bulk load
// maps columns by position, so order is part of the contract.
var ArtifactColumns = []string{
	"State",
	"MortalityCountCurrentYear",
	"MortalityCountNextYear",
	"HospitalizationCountCurrentYear",
	"HospitalizationCountNextYear",
	"MortalityChange",
	"HospitalizationChange",
	"PremiumAmountIncreaseRate",
}

// StateRow is one output record.
type StateRow struct {
	State                  string `json:"State"`
	MortalityCurrent       int64  `json:"MortalityCountCurrentYear"`
	MortalityNext          Value  `json:"MortalityCountNextYear"`
	HospitalizationCurrent int64  `json:"HospitalizationCountCurrentYear"`
	HospitalizationNext    Value  `json:"HospitalizationCountNextYear"`
	MortalityChange        Value  `json:"MortalityChange"`
	HospitalizationChange  Value  `json:"HospitalizationChange"`
	PremiumIncreaseRate    Value  `json:"PremiumAmountIncreaseRate"`
}

// Artifact is the complete output of one run, sorted by state.
type Artifact struct {
	GeneratedAt time.Time
	Rows        []StateRow
}

// DroppedState is a state present in only one metric's forecasts.
type DroppedState struct {
	State   string
	Missing Metric
}

// BuildArtifact inner-joins both metrics' forecasts on state, derives the
// changes and premium rates, and rounds the derived fields for output.
// States missing from either side are returned as dropped, not as errors.
// A state forecast twice for the same metric is ErrStructural.
func BuildArtifact(mortality, hospitalization []ForecastResult) (Artifact, []DroppedState, error) {
	mort, err := indexByState(mortality, Mortality)
	if err != nil {
		return Artifact{}, nil, err
	}
	hosp, err := indexByState(hospitalization, Hospitalization)
	if err != nil {
		return Artifact{}, nil, err
	}

	var dropped []DroppedState
	states := make([]string, 0, len(mort))
	for state := range mort {
		if _, ok := hosp[state]; ok {
			states = append(states, state)
		} else {
			dropped = append(dropped, DroppedState{State: state, Missing: Hospitalization})
		}
	}
	for state := range hosp {
		if _, ok := mort[state]; !ok {
			dropped = append(dropped, DroppedState{State: state, Missing: Mortality})
		}
	}
	slices.Sort(states)
	slices.SortFunc(dropped, func(a, b DroppedState) int { return cmp.Compare(a.State, b.State) })

	changes := make([]StateChange, len(states))
	for i, state := range states {
		changes[i] = StateChange{
			State:           state,
			Mortality:       mort[state].Change(),
			Hospitalization: hosp[state].Change(),
		}
	}
	rates := PremiumRates(changes)

	rows := make([]StateRow, len(states))
	for i, state := range states {
		m, h := mort[state], hosp[state]
		rows[i] = StateRow{
			State:                  state,
			MortalityCurrent:       m.Current,
			MortalityNext:          m.Next,
			HospitalizationCurrent: h.Current,
			HospitalizationNext:    h.Next,
			MortalityChange:        RoundPresentation(changes[i].Mortality),
			HospitalizationChange:  RoundPresentation(changes[i].Hospitalization),
			PremiumIncreaseRate:    RoundPresentation(rates[i]),
		}
	}

	return Artifact{GeneratedAt: clock.Now().UTC(), Rows: rows}, dropped, nil
}

func indexByState(results []ForecastResult, metric Metric) (map[string]ForecastResult, error) {
	idx := make(map[string]ForecastResult, len(results))
	for _, r := range results {
		if r.Metric != metric {
			return nil, fmt.Errorf("%w: %s forecast for %s passed as %s", ErrStructural, r.Metric, r.State, metric)
		}
		if _, dup := idx[r.State]; dup {
			return nil, fmt.Errorf("%w: duplicate %s forecast for %s", ErrStructural, metric, r.State)
		}
		idx[r.State] = r
	}
	return idx, nil
}

// Find returns the row for state.
func (a Artifact) Find(state string) (StateRow, bool) {
	i, ok := slices.BinarySearchFunc(a.Rows, state, func(r StateRow, s string) int {
		return cmp.Compare(r.State, s)
	})
	if !ok {
		return StateRow{}, false
	}
	return a.Rows[i], true
}

// Record renders the row in ArtifactColumns order. Missing values are empty.
func (r StateRow) Record() []string {
	return []string{
		r.State,
		strconv.FormatInt(r.MortalityCurrent, 10),
		formatCount(r.MortalityNext),
		strconv.FormatInt(r.HospitalizationCurrent, 10),
		formatCount(r.HospitalizationNext),
		formatRatio(r.MortalityChange),
		formatRatio(r.HospitalizationChange),
		formatRatio(r.PremiumIncreaseRate),
	}
}

// WriteCSV serializes the artifact with a header row.
func (a Artifact) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ArtifactColumns); err != nil {
		return fmt.Errorf("write artifact header: %w", err)
	}
	for _, row := range a.Rows {
		if err := cw.Write(row.Record()); err != nil {
			return fmt.Errorf("write artifact row %s: %w", row.State, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadArtifactCSV parses an artifact written by WriteCSV. The header must
// match ArtifactColumns exactly.
func ReadArtifactCSV(r io.Reader) (Artifact, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: read artifact header: %w", ErrStructural, err)
	}
	if !slices.Equal(header, ArtifactColumns) {
		return Artifact{}, fmt.Errorf("%w: artifact columns %v, want %v", ErrStructural, header, ArtifactColumns)
	}

	var a Artifact
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Artifact{}, fmt.Errorf("%w: line %d: %w", ErrStructural, line, err)
		}
		row, err := parseRecord(rec)
		if err != nil {
			return Artifact{}, fmt.Errorf("%w: line %d: %w", ErrStructural, line, err)
		}
		a.Rows = append(a.Rows, row)
	}
	return a, nil
}

func parseRecord(rec []string) (StateRow, error) {
	var (
		row  StateRow
		errs []error
	)
	parseInt := func(s string) int64 {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}
	parseValue := func(s string) Value {
		s = strings.TrimSpace(s)
		if s == "" {
			return Missing
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			errs = append(errs, err)
			return Missing
		}
		return Present(f)
	}

	row.State = rec[0]
	row.MortalityCurrent = parseInt(rec[1])
	row.MortalityNext = parseValue(rec[2])
	row.HospitalizationCurrent = parseInt(rec[3])
	row.HospitalizationNext = parseValue(rec[4])
	row.MortalityChange = parseValue(rec[5])
	row.HospitalizationChange = parseValue(rec[6])
	row.PremiumIncreaseRate = parseValue(rec[7])
	return row, errors.Join(errs...)
}

func formatCount(v Value) string {
	f, ok := v.Get()
	if !ok {
		return ""
	}
	return strconv.FormatInt(int64(f), 10)
}

func formatRatio(v Value) string {
	f, ok := v.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
