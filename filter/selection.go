// Package filter implements the facet filtering engine over the holiday and
// passenger tables.
//
// A Selection holds one session's facet choices; Engine.Apply maps it onto a
// dataset.Store and produces a View. Composition rules: selections intersect
// across facet categories and union within one category, so months {1,2} and
// continents {Europe} return European records in January or February.
//
// Key concepts:
//   - Stored facets match columns directly (years, months, countries, ...)
//   - Derived facets (holiday period, impact level, temporal pattern,
//     seasons, growth categories) are computed against the full dataset,
//     never stored
//   - An empty Selection is the identity transform
//   - Zero matching rows is a legitimate result, not an error
package filter

import (
	"fmt"
	"time"

	"github.com/feriadolabs/feriado/dataset"
)

// Period classifies a passenger month relative to the nearest holiday in the
// same country.
type Period string

// Period constants.
const (
	PeriodBefore Period = "before"
	PeriodDuring Period = "during"
	PeriodAfter  Period = "after"
)

// ValidPeriod reports whether p is a declared period value.
func ValidPeriod(p Period) bool {
	switch p {
	case PeriodBefore, PeriodDuring, PeriodAfter:
		return true
	}
	return false
}

// Impact buckets the percent change of a holiday month against its trailing
// baseline.
type Impact string

// Impact constants.
const (
	ImpactHigh     Impact = "high"
	ImpactMedium   Impact = "medium"
	ImpactLow      Impact = "low"
	ImpactNegative Impact = "negative"
)

// ValidImpact reports whether i is a declared impact level.
func ValidImpact(i Impact) bool {
	switch i {
	case ImpactHigh, ImpactMedium, ImpactLow, ImpactNegative:
		return true
	}
	return false
}

// Pattern classifies the shape of the three-month window around a holiday
// month by the signs of its month-over-month deltas.
type Pattern string

// Pattern constants: rising-then-falling is a peak, rising-only a lead-in,
// falling-then-rising a rebound, anything else no pattern.
const (
	PatternPeak    Pattern = "peak"
	PatternLeadIn  Pattern = "lead_in"
	PatternRebound Pattern = "rebound"
	PatternNone    Pattern = "none"
)

// ValidPattern reports whether p is a declared temporal pattern.
func ValidPattern(p Pattern) bool {
	switch p {
	case PatternPeak, PatternLeadIn, PatternRebound, PatternNone:
		return true
	}
	return false
}

// FlightType selects which passenger-volume column a record must carry.
type FlightType string

// Flight type constants.
const (
	FlightDomestic      FlightType = "domestic"
	FlightInternational FlightType = "international"
	FlightTotal         FlightType = "total"
)

// ValidFlightType reports whether f is a declared flight type.
func ValidFlightType(f FlightType) bool {
	switch f {
	case FlightDomestic, FlightInternational, FlightTotal:
		return true
	}
	return false
}

// Season buckets a record's volume against the dataset-wide quartiles:
// below P25 is low, above P75 is high, in between is mid.
type Season string

// Season constants.
const (
	SeasonLow  Season = "low"
	SeasonMid  Season = "mid"
	SeasonHigh Season = "high"
)

// ValidSeason reports whether s is a declared season bucket.
func ValidSeason(s Season) bool {
	switch s {
	case SeasonLow, SeasonMid, SeasonHigh:
		return true
	}
	return false
}

// GrowthCategory buckets a country's year-over-year volume growth.
type GrowthCategory string

// Growth category constants. Boundaries in percent: declining below 0,
// stable in [0, 5), growing in [5, 15), booming at 15 and above.
const (
	GrowthDeclining GrowthCategory = "declining"
	GrowthStable    GrowthCategory = "stable"
	GrowthGrowing   GrowthCategory = "growing"
	GrowthBooming   GrowthCategory = "booming"
)

// ValidGrowthCategory reports whether g is a declared growth category.
func ValidGrowthCategory(g GrowthCategory) bool {
	switch g {
	case GrowthDeclining, GrowthStable, GrowthGrowing, GrowthBooming:
		return true
	}
	return false
}

// Selection is one session's set of facet choices. The zero value selects
// everything; every field narrows the result when set. A Selection is owned
// by exactly one session and read (never mutated) by the engine.
type Selection struct {
	YearMin int `json:"year_min,omitempty"`
	YearMax int `json:"year_max,omitempty"`

	Months []int `json:"months,omitempty"`

	// Period is singular: a record month is in at most one period bucket.
	Period Period `json:"holiday_period,omitempty"`

	Countries  []string `json:"countries,omitempty"`
	Continents []string `json:"continents,omitempty"`

	HolidayTypes       []dataset.HolidayType      `json:"holiday_types,omitempty"`
	CulturalCategories []dataset.CulturalCategory `json:"cultural_categories,omitempty"`

	FlightTypes []FlightType `json:"flight_types,omitempty"`
	VolumeMin   *float64     `json:"volume_min,omitempty"`
	VolumeMax   *float64     `json:"volume_max,omitempty"`

	ImpactLevels     []Impact  `json:"impact_levels,omitempty"`
	TemporalPatterns []Pattern `json:"temporal_patterns,omitempty"`

	Quarters         []int            `json:"quarters,omitempty"`
	Weekdays         []time.Weekday   `json:"weekdays,omitempty"`
	Seasons          []Season         `json:"seasons,omitempty"`
	GrowthCategories []GrowthCategory `json:"growth_categories,omitempty"`
}

// NewSelection returns the all-inclusive default selection.
func NewSelection() *Selection {
	return &Selection{}
}

// IsEmpty reports whether the selection constrains nothing, i.e. Apply would
// be the identity transform.
func (s *Selection) IsEmpty() bool {
	return s.YearMin == 0 && s.YearMax == 0 &&
		len(s.Months) == 0 &&
		s.Period == "" &&
		len(s.Countries) == 0 &&
		len(s.Continents) == 0 &&
		len(s.HolidayTypes) == 0 &&
		len(s.CulturalCategories) == 0 &&
		len(s.FlightTypes) == 0 &&
		s.VolumeMin == nil && s.VolumeMax == nil &&
		len(s.ImpactLevels) == 0 &&
		len(s.TemporalPatterns) == 0 &&
		len(s.Quarters) == 0 &&
		len(s.Weekdays) == 0 &&
		len(s.Seasons) == 0 &&
		len(s.GrowthCategories) == 0
}

// ActiveFacets counts the facet groups the selection constrains. The year
// and volume ranges each count once regardless of how many bounds are set.
func (s *Selection) ActiveFacets() int {
	n := 0
	if s.YearMin != 0 || s.YearMax != 0 {
		n++
	}
	if len(s.Months) > 0 {
		n++
	}
	if s.Period != "" {
		n++
	}
	if len(s.Countries) > 0 {
		n++
	}
	if len(s.Continents) > 0 {
		n++
	}
	if len(s.HolidayTypes) > 0 {
		n++
	}
	if len(s.CulturalCategories) > 0 {
		n++
	}
	if len(s.FlightTypes) > 0 {
		n++
	}
	if s.VolumeMin != nil || s.VolumeMax != nil {
		n++
	}
	if len(s.ImpactLevels) > 0 {
		n++
	}
	if len(s.TemporalPatterns) > 0 {
		n++
	}
	if len(s.Quarters) > 0 {
		n++
	}
	if len(s.Weekdays) > 0 {
		n++
	}
	if len(s.Seasons) > 0 {
		n++
	}
	if len(s.GrowthCategories) > 0 {
		n++
	}
	return n
}

// ValidationError reports a user-correctable problem with a Selection. It
// identifies the offending facet so the caller can surface it against the
// right control.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid selection: %s: %s", e.Field, e.Reason)
}

// Validate checks range ordering and enum membership. It returns a
// *ValidationError describing the first violation, or nil. Validation never
// panics; an invalid selection is a user mistake, not a program fault.
func (s *Selection) Validate() error {
	if s.YearMin != 0 && s.YearMax != 0 && s.YearMin > s.YearMax {
		return &ValidationError{
			Field:  "year_range",
			Reason: fmt.Sprintf("min %d greater than max %d", s.YearMin, s.YearMax),
		}
	}
	if s.VolumeMin != nil && s.VolumeMax != nil && *s.VolumeMin > *s.VolumeMax {
		return &ValidationError{
			Field:  "passenger_range",
			Reason: fmt.Sprintf("min %v greater than max %v", *s.VolumeMin, *s.VolumeMax),
		}
	}
	for _, m := range s.Months {
		if m < 1 || m > 12 {
			return &ValidationError{Field: "months", Reason: fmt.Sprintf("month %d outside 1..12", m)}
		}
	}
	if s.Period != "" && !ValidPeriod(s.Period) {
		return &ValidationError{Field: "holiday_period", Reason: fmt.Sprintf("unknown period %q", s.Period)}
	}
	for _, ht := range s.HolidayTypes {
		if !ht.Valid() {
			return &ValidationError{Field: "holiday_types", Reason: fmt.Sprintf("unknown holiday type %q", ht)}
		}
	}
	for _, cc := range s.CulturalCategories {
		if !dataset.ValidCulturalCategory(cc) {
			return &ValidationError{Field: "cultural_categories", Reason: fmt.Sprintf("unknown category %q", cc)}
		}
	}
	for _, ft := range s.FlightTypes {
		if !ValidFlightType(ft) {
			return &ValidationError{Field: "flight_types", Reason: fmt.Sprintf("unknown flight type %q", ft)}
		}
	}
	for _, il := range s.ImpactLevels {
		if !ValidImpact(il) {
			return &ValidationError{Field: "impact_levels", Reason: fmt.Sprintf("unknown impact level %q", il)}
		}
	}
	for _, tp := range s.TemporalPatterns {
		if !ValidPattern(tp) {
			return &ValidationError{Field: "temporal_patterns", Reason: fmt.Sprintf("unknown pattern %q", tp)}
		}
	}
	for _, q := range s.Quarters {
		if q < 1 || q > 4 {
			return &ValidationError{Field: "quarters", Reason: fmt.Sprintf("quarter %d outside 1..4", q)}
		}
	}
	for _, w := range s.Weekdays {
		if w < time.Sunday || w > time.Saturday {
			return &ValidationError{Field: "weekdays", Reason: fmt.Sprintf("weekday %d outside Sunday..Saturday", w)}
		}
	}
	for _, se := range s.Seasons {
		if !ValidSeason(se) {
			return &ValidationError{Field: "seasons", Reason: fmt.Sprintf("unknown season %q", se)}
		}
	}
	for _, gc := range s.GrowthCategories {
		if !ValidGrowthCategory(gc) {
			return &ValidationError{Field: "growth_categories", Reason: fmt.Sprintf("unknown growth category %q", gc)}
		}
	}
	return nil
}
