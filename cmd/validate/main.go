// Command validate checks a forecast artifact against its output contract:
// column layout, one sorted row per known jurisdiction, premium rate bounds,
// and consistency between counts, forecasts and derived changes. With -raw it
// also recomputes the current-year counts from the staged raw CSV.
//
// Usage:
//
//	go run ./cmd/validate -artifact data/data-lake/ChronicDiseaseForecast.csv
//	go run ./cmd/validate \
//	  -artifact data/data-lake/ChronicDiseaseForecast.csv \
//	  -raw data/data-lake/chronic-disease-indicators.csv
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/chronic-disease-etl/internal/domain"
)

// Rounded ratios may differ from a recomputation by half a unit in the last
// place.
const ratioTolerance = 0.005 + 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	artifactPath := flag.String("artifact", "", "path to the forecast artifact CSV")
	rawPath := flag.String("raw", "", "optional path to the staged raw CDI CSV")
	excluded := flag.Int("excluded-year", domain.DefaultExcludedYear, "year skipped during selection")
	flag.Parse()

	if *artifactPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*artifactPath, *rawPath, *excluded))
}

func run(artifactPath, rawPath string, excludedYear int) int {
	fmt.Println("=== Chronic Disease Forecast Validation ===")
	fmt.Println()

	artifact, err := loadArtifact(artifactPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load artifact: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRows(artifact),
		validateChanges(artifact),
		validatePremiumRates(artifact),
	}

	if rawPath != "" {
		rows, err := loadRaw(rawPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load raw CSV: %v\n", err)
			return 1
		}
		p, err := validateCurrentCounts(artifact, rows, excludedYear)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: recompute counts: %v\n", err)
			return 1
		}
		phases = append(phases, p)
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("States: %d\n", len(artifact.Rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadArtifact(path string) (domain.Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Artifact{}, err
	}
	defer f.Close()
	return domain.ReadArtifactCSV(f)
}

func loadRaw(path string) ([]domain.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return domain.ReadRawCSV(f)
}

// ── Validation phases ──

func validateRows(a domain.Artifact) *phase {
	p := &phase{name: "Row integrity"}
	seen := make(map[string]bool, len(a.Rows))
	for i, r := range a.Rows {
		line := i + 2
		if r.State == "" {
			p.errorf("line %d: empty state", line)
			continue
		}
		if seen[r.State] {
			p.errorf("line %d: duplicate state %q", line, r.State)
		}
		seen[r.State] = true
		if i > 0 && a.Rows[i-1].State >= r.State {
			p.errorf("line %d: %q not sorted after %q", line, r.State, a.Rows[i-1].State)
		}
		if !domain.IsJurisdiction(r.State) {
			p.errorf("line %d: unknown jurisdiction %q", line, r.State)
		}
		if r.MortalityCurrent < 0 || r.HospitalizationCurrent < 0 {
			p.errorf("line %d: %s has a negative current count", line, r.State)
		}
		for _, v := range []domain.Value{r.MortalityNext, r.HospitalizationNext} {
			if f, ok := v.Get(); ok && f != math.Trunc(f) {
				p.errorf("line %d: %s forecast %v is not a whole count", line, r.State, f)
			}
		}
	}
	return p
}

func validateChanges(a domain.Artifact) *phase {
	p := &phase{name: "Change consistency"}
	for _, r := range a.Rows {
		checkChange(p, r.State, domain.Mortality, r.MortalityCurrent, r.MortalityNext, r.MortalityChange)
		checkChange(p, r.State, domain.Hospitalization, r.HospitalizationCurrent, r.HospitalizationNext, r.HospitalizationChange)

		bothPresent := !r.MortalityChange.IsMissing() && !r.HospitalizationChange.IsMissing()
		if bothPresent == r.PremiumIncreaseRate.IsMissing() {
			p.errorf("%s: premium rate presence %v does not match change presence %v",
				r.State, !r.PremiumIncreaseRate.IsMissing(), bothPresent)
		}
	}
	return p
}

func checkChange(p *phase, state string, metric domain.Metric, current int64, next, change domain.Value) {
	want := domain.RelativeChange(current, next)
	w, wantOK := want.Get()
	got, gotOK := change.Get()
	switch {
	case wantOK != gotOK:
		p.errorf("%s %s: change present=%v, expected present=%v", state, metric, gotOK, wantOK)
	case wantOK && math.Abs(w-got) > ratioTolerance:
		p.errorf("%s %s: change %v, recomputed %.4f", state, metric, got, w)
	}
}

func validatePremiumRates(a domain.Artifact) *phase {
	p := &phase{name: "Premium rate bounds"}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range a.Rows {
		rate, ok := r.PremiumIncreaseRate.Get()
		if !ok {
			continue
		}
		if rate < domain.MinPremiumRate-1e-9 || rate > domain.MaxPremiumRate+1e-9 {
			p.errorf("%s: rate %v outside [%v, %v]", r.State, rate, domain.MinPremiumRate, domain.MaxPremiumRate)
		}
		lo, hi = math.Min(lo, rate), math.Max(hi, rate)
	}
	if math.IsInf(lo, 1) {
		return p
	}
	if math.Abs(lo-domain.MinPremiumRate) > 1e-9 {
		p.errorf("lowest rate %v, want %v", lo, domain.MinPremiumRate)
	}
	if hi != lo && math.Abs(hi-domain.MaxPremiumRate) > 1e-9 {
		p.errorf("highest rate %v, want %v", hi, domain.MaxPremiumRate)
	}
	return p
}

func validateCurrentCounts(a domain.Artifact, rows []domain.RawRow, excludedYear int) (*phase, error) {
	p := &phase{name: "Current counts match raw data"}
	for _, m := range domain.Metrics {
		records, err := domain.SelectIndicators(rows, m, excludedYear)
		if err != nil {
			return nil, err
		}
		for _, s := range domain.Aggregate(records, m) {
			latest, ok := s.Latest()
			if !ok {
				continue
			}
			row, found := a.Find(s.State)
			if !found {
				continue
			}
			got := row.MortalityCurrent
			if m == domain.Hospitalization {
				got = row.HospitalizationCurrent
			}
			if got != latest.Count {
				p.errorf("%s %s: artifact %d, raw data %d (%d)", s.State, m, got, latest.Count, latest.Year)
			}
		}
	}
	return p, nil
}
