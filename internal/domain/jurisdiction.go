package domain

import (
	"maps"
	"slices"
)

// jurisdictions are the locationdesc values the CDI dataset reports.
var jurisdictions = map[string]struct{}{
	"Alabama": {}, "Alaska": {}, "Arizona": {}, "Arkansas": {}, "California": {},
	"Colorado": {}, "Connecticut": {}, "Delaware": {}, "District of Columbia": {},
	"Florida": {}, "Georgia": {}, "Hawaii": {}, "Idaho": {}, "Illinois": {},
	"Indiana": {}, "Iowa": {}, "Kansas": {}, "Kentucky": {}, "Louisiana": {},
	"Maine": {}, "Maryland": {}, "Massachusetts": {}, "Michigan": {},
	"Minnesota": {}, "Mississippi": {}, "Missouri": {}, "Montana": {},
	"Nebraska": {}, "Nevada": {}, "New Hampshire": {}, "New Jersey": {},
	"New Mexico": {}, "New York": {}, "North Carolina": {}, "North Dakota": {},
	"Ohio": {}, "Oklahoma": {}, "Oregon": {}, "Pennsylvania": {},
	"Rhode Island": {}, "South Carolina": {}, "South Dakota": {},
	"Tennessee": {}, "Texas": {}, "Utah": {}, "Vermont": {}, "Virginia": {},
	"Washington": {}, "West Virginia": {}, "Wisconsin": {}, "Wyoming": {},
	"United States": {}, "Puerto Rico": {}, "Guam": {}, "Virgin Islands": {},
}

// IsJurisdiction reports whether name is a location the dataset reports on.
func IsJurisdiction(name string) bool {
	_, ok := jurisdictions[name]
	return ok
}

// Jurisdictions returns every known location, sorted.
func Jurisdictions() []string {
	return slices.Sorted(maps.Keys(jurisdictions))
}
