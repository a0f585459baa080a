package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Blend weights and output bounds for the premium increase rate.
const (
	HospitalizationWeight = 0.75
	MortalityWeight       = 0.25

	MinPremiumRate = 0.05
	MaxPremiumRate = 0.30
)

// StateChange holds one state's relative changes for both metrics.
type StateChange struct {
	State           string
	Mortality       Value
	Hospitalization Value
}

// Blend combines both changes. It is Missing unless both are present.
func Blend(mortality, hospitalization Value) Value {
	return WeightedSum(HospitalizationWeight, hospitalization, MortalityWeight, mortality)
}

// PremiumRates blends every state's changes and rescales the present scores
// linearly onto [MinPremiumRate, MaxPremiumRate]. The result is
// index-aligned with changes. States with a Missing blend take no part in
// the min/max and get a Missing rate. If all present scores are equal the
// range is empty and every present rate is MinPremiumRate.
func PremiumRates(changes []StateChange) []Value {
	blended := make([]Value, len(changes))
	lo, hi := 0.0, 0.0
	seen := false
	for i, c := range changes {
		blended[i] = Blend(c.Mortality, c.Hospitalization)
		b, ok := blended[i].Get()
		if !ok {
			continue
		}
		if !seen || b < lo {
			lo = b
		}
		if !seen || b > hi {
			hi = b
		}
		seen = true
	}

	// Halving is exact and keeps hi-lo finite for scores near the float range.
	half := 1.0
	if math.IsInf(hi-lo, 0) {
		half = 0.5
	}
	span := hi*half - lo*half
	rates := make([]Value, len(changes))
	for i, b := range blended {
		rates[i] = b.Map(func(score float64) float64 {
			scaled := 0.0
			if span != 0 {
				scaled = (score*half - lo*half) / span
			}
			rate := scaled*(MaxPremiumRate-MinPremiumRate) + MinPremiumRate
			return math.Min(MaxPremiumRate, math.Max(MinPremiumRate, rate))
		})
	}
	return rates
}

// RoundPresentation rounds to two decimal places, half to even. Apply it
// only when rendering; all arithmetic uses unrounded values.
func RoundPresentation(v Value) Value {
	return v.Map(func(f float64) float64 {
		r, _ := decimal.NewFromFloat(f).RoundBank(2).Float64()
		return r
	})
}
