// Command genmock writes a deterministic synthetic CDI raw CSV shaped like the
// staged Socrata export, for local runs with -skip-fetch. Every live row is
// run through the domain selection rules so the printed summary matches what
// the pipeline will see.
//
// Usage:
//
//	go run ./cmd/genmock -out data/data-lake/chronic-disease-indicators.csv
//	go run ./cmd/genmock -states 10 -from 2012 -to 2021 -seed 7 -out /tmp/raw.csv
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/chronic-disease-etl/internal/domain"
)

// indicator is one CDI question the generator emits per state and year.
// The last three are decoys the selection rules must skip.
type indicator struct {
	topic     string
	question  string
	valueType string
	base      float64
}

var indicators = []indicator{
	{topic: "Cardiovascular Disease", question: "Mortality from heart failure", valueType: "Number", base: 4000},
	{topic: "Cardiovascular Disease", question: "Mortality from cerebrovascular disease (stroke)", valueType: "Number", base: 2500},
	{topic: "Cardiovascular Disease", question: "Hospitalization for heart failure among Medicare-eligible persons aged 65 years and older", valueType: "Number", base: 9000},
	{topic: "Diabetes", question: "Mortality due to diabetes reported as any listed cause of death", valueType: "Crude Rate", base: 80},
	{topic: "Older Adults", question: "Hospitalization for hip fracture among Medicare-eligible persons aged 65 years and older", valueType: "Number", base: 1500},
	{topic: "Chronic Kidney Disease", question: "Mortality with end-stage renal disease rate", valueType: "Number", base: 700},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	states := flag.Int("states", 0, "number of jurisdictions to include (0 = all)")
	from := flag.Int("from", 2014, "first year")
	to := flag.Int("to", 2021, "last year")
	seed := flag.Uint64("seed", 1, "random seed")
	out := flag.String("out", "", "output path for the raw CSV")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *to < *from {
		return fmt.Errorf("-to %d before -from %d", *to, *from)
	}

	names := domain.Jurisdictions()
	if *states > 0 && *states < len(names) {
		names = names[:*states]
	}

	rows := generate(names, *from, *to, rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)))

	var buf bytes.Buffer
	if err := domain.WriteRawCSV(&buf, rows); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o600); err != nil {
		return err
	}
	log.Printf("wrote %d rows for %d jurisdictions to %s", len(rows), len(names), *out)

	return printStats(rows)
}

func generate(states []string, from, to int, rng *rand.Rand) []domain.RawRow {
	var rows []domain.RawRow //nolint:prealloc // size depends on skipped cells
	for _, state := range states {
		scale := 0.2 + rng.Float64()*1.8
		trend := make([]float64, len(indicators))
		for i := range indicators {
			trend[i] = -0.03 + rng.Float64()*0.08
		}

		for year := from; year <= to; year++ {
			for i, ind := range indicators {
				// Roughly one cell in twenty is suppressed in the real export.
				value := ""
				if rng.IntN(20) != 0 {
					v := ind.base * scale * (1 + trend[i]*float64(year-from)) * (0.95 + rng.Float64()*0.1)
					value = strconv.FormatFloat(max(v, 0), 'f', 0, 64)
				}
				rows = append(rows, rawRow(year, state, ind, value))
			}
		}
		// A stray row from the year known to carry bad data.
		rows = append(rows, rawRow(domain.DefaultExcludedYear, state, indicators[0], "999999"))
	}
	return rows
}

func rawRow(year int, state string, ind indicator, value string) domain.RawRow {
	y := strconv.Itoa(year)
	return domain.RawRow{
		YearStart:               y,
		YearEnd:                 y,
		LocationDesc:            state,
		Topic:                   ind.topic,
		Question:                ind.question,
		DataValueType:           ind.valueType,
		DataValue:               value,
		StratificationCategory1: "Overall",
		Stratification1:         "Overall",
	}
}

func printStats(rows []domain.RawRow) error {
	for _, m := range domain.Metrics {
		records, err := domain.SelectIndicators(rows, m, domain.DefaultExcludedYear)
		if err != nil {
			return fmt.Errorf("select %s: %w", m, err)
		}
		series := domain.Aggregate(records, m)
		short := 0
		for _, s := range series {
			if s.Len() < domain.MinObservations {
				short++
			}
		}
		log.Printf("%-15s %6d records  %3d series  %d too short to forecast", m, len(records), len(series), short)
	}
	return nil
}
