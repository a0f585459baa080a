package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultExcludedYear is the CDI collection year known to carry bad data.
const DefaultExcludedYear = 2001

var validate = validator.New()

// SelectIndicators filters raw rows down to the count observations of one
// metric. Rows that are not counts for the metric are skipped silently; a
// selected row whose year or count cannot be parsed fails the whole
// selection with ErrStructural.
func SelectIndicators(rows []RawRow, metric Metric, excludedYear int) ([]IndicatorRecord, error) {
	excluded := strconv.Itoa(excludedYear)
	out := make([]IndicatorRecord, 0, len(rows)/4)

	for i, row := range rows {
		if !selects(row, metric, excluded) {
			continue
		}
		rec, err := toRecord(row, metric)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrStructural, i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func selects(row RawRow, metric Metric, excludedYear string) bool {
	if strings.TrimSpace(row.DataValue) == "" {
		return false
	}
	if strings.TrimSpace(row.YearStart) == excludedYear {
		return false
	}
	question := strings.ToLower(row.Question)
	switch metric {
	case Mortality:
		if !strings.Contains(question, "mortality") {
			return false
		}
	case Hospitalization:
		if !strings.Contains(question, "hospital") || row.Topic == "Older Adults" {
			return false
		}
	default:
		return false
	}
	// Only lowercase "rate" excludes; "Rate of ..." titles stay when the
	// value type is Number.
	return row.DataValueType == "Number" && !strings.Contains(row.Question, "rate")
}

func toRecord(row RawRow, metric Metric) (IndicatorRecord, error) {
	year, err := parseYear(row.YearEnd)
	if err != nil {
		return IndicatorRecord{}, fmt.Errorf("yearend %q: %w", row.YearEnd, err)
	}
	count, err := parseCount(row.DataValue)
	if err != nil {
		return IndicatorRecord{}, fmt.Errorf("datavalue %q: %w", row.DataValue, err)
	}

	rec := IndicatorRecord{
		Year:   year,
		State:  strings.TrimSpace(row.LocationDesc),
		Metric: metric,
		Count:  count,
	}
	if err := validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return IndicatorRecord{}, fmt.Errorf("field %s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return IndicatorRecord{}, err
	}
	return rec, nil
}

// parseYear accepts "2019" as well as "2019.0", which is how float columns
// round-trip through spreadsheet tooling.
func parseYear(s string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if f != math.Trunc(f) {
		return 0, errors.New("not a whole year")
	}
	return int(f), nil
}

// parseCount truncates toward zero, like an integer cast of the source value.
func parseCount(s string) (int64, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("not a number")
	}
	return int64(math.Trunc(f)), nil
}
