package main

import (
	"testing"

	"github.com/couchcryptid/chronic-disease-etl/internal/domain"
	"github.com/stretchr/testify/assert"
)

func validArtifact() domain.Artifact {
	return domain.Artifact{Rows: []domain.StateRow{
		{
			State: "California", MortalityCurrent: 120, MortalityNext: domain.Present(130),
			HospitalizationCurrent: 48, HospitalizationNext: domain.Present(52),
			MortalityChange: domain.Present(0.08), HospitalizationChange: domain.Present(0.08),
			PremiumIncreaseRate: domain.Present(0.3),
		},
		{
			State: "Ohio", MortalityCurrent: 80, MortalityNext: domain.Missing,
			HospitalizationCurrent: 30, HospitalizationNext: domain.Present(33),
			MortalityChange: domain.Missing, HospitalizationChange: domain.Present(0.1),
			PremiumIncreaseRate: domain.Missing,
		},
		{
			State: "Texas", MortalityCurrent: 50, MortalityNext: domain.Present(50),
			HospitalizationCurrent: 20, HospitalizationNext: domain.Present(20),
			MortalityChange: domain.Present(0), HospitalizationChange: domain.Present(0),
			PremiumIncreaseRate: domain.Present(0.05),
		},
	}}
}

func TestPhases_ValidArtifactPasses(t *testing.T) {
	a := validArtifact()
	for _, p := range []*phase{validateRows(a), validateChanges(a), validatePremiumRates(a)} {
		assert.True(t, p.passed(), "%s: %v", p.name, p.errors)
	}
}

func TestValidateRows(t *testing.T) {
	a := validArtifact()
	a.Rows[0].State = "Atlantis"
	a.Rows[2].State = "Ohio"

	p := validateRows(a)
	assert.Len(t, p.errors, 3) // unknown, duplicate, unsorted
}

func TestValidateChanges(t *testing.T) {
	a := validArtifact()
	a.Rows[0].MortalityChange = domain.Present(0.5)
	a.Rows[1].PremiumIncreaseRate = domain.Present(0.1)

	p := validateChanges(a)
	assert.Len(t, p.errors, 2)
}

func TestValidatePremiumRates(t *testing.T) {
	a := validArtifact()
	a.Rows[0].PremiumIncreaseRate = domain.Present(0.35)

	p := validatePremiumRates(a)
	assert.Len(t, p.errors, 2) // out of bounds, max not at the bound
}

func TestValidatePremiumRates_AllEqual(t *testing.T) {
	a := validArtifact()
	a.Rows[0].PremiumIncreaseRate = domain.Present(0.05)

	assert.True(t, validatePremiumRates(a).passed())
}

func TestValidateCurrentCounts(t *testing.T) {
	row := func(year, value string) domain.RawRow {
		return domain.RawRow{
			YearStart: year, YearEnd: year, LocationDesc: "Texas", Topic: "Cardiovascular Disease",
			Question: "Mortality from heart failure", DataValueType: "Number", DataValue: value,
		}
	}
	raw := []domain.RawRow{row("2020", "40"), row("2021", "50")}

	p, err := validateCurrentCounts(validArtifact(), raw, domain.DefaultExcludedYear)
	assert.NoError(t, err)
	assert.True(t, p.passed(), p.errors)

	raw[1].DataValue = "51"
	p, err = validateCurrentCounts(validArtifact(), raw, domain.DefaultExcludedYear)
	assert.NoError(t, err)
	assert.Len(t, p.errors, 1)
}
