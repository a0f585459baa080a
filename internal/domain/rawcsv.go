package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RawColumns is the column set staged for every raw CDI row.
var RawColumns = []string{
	"yearstart",
	"yearend",
	"locationdesc",
	"topic",
	"question",
	"datavaluetype",
	"datavalue",
	"stratificationcategory1",
	"stratification1",
}

// requiredRawColumns must be present in a staged CSV. The stratification
// columns are informational.
var requiredRawColumns = RawColumns[:7]

// ReadRawCSV decodes a staged CDI CSV. Columns are matched by header name so
// extra columns from the source dataset are ignored; a missing required
// column is ErrStructural.
func ReadRawCSV(r io.Reader) ([]RawRow, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty raw csv", ErrStructural)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrStructural, err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, col := range requiredRawColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrStructural, col)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []RawRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrStructural, line, err)
		}
		rows = append(rows, RawRow{
			YearStart:               field(rec, "yearstart"),
			YearEnd:                 field(rec, "yearend"),
			LocationDesc:            field(rec, "locationdesc"),
			Topic:                   field(rec, "topic"),
			Question:                field(rec, "question"),
			DataValueType:           field(rec, "datavaluetype"),
			DataValue:               field(rec, "datavalue"),
			StratificationCategory1: field(rec, "stratificationcategory1"),
			Stratification1:         field(rec, "stratification1"),
		})
	}
	return rows, nil
}

// WriteRawCSV stages rows in RawColumns order.
func WriteRawCSV(w io.Writer, rows []RawRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RawColumns); err != nil {
		return fmt.Errorf("write raw header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.YearStart, r.YearEnd, r.LocationDesc, r.Topic, r.Question,
			r.DataValueType, r.DataValue, r.StratificationCategory1, r.Stratification1,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write raw row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
