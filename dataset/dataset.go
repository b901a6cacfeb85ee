// Package dataset holds the three normalized in-memory tables the analytics
// core operates on: holidays, monthly passenger counts, and country metadata.
//
// The package owns no business logic beyond lookup. Tables are populated by an
// external loader (see dataset/csvload) and are immutable once a Store is
// built; filtered views reference records by index instead of copying them.
package dataset

import (
	"fmt"
	"time"
)

// HolidayType classifies a holiday record.
type HolidayType string

// Holiday type constants. Unknown raw labels normalize to HolidayObservance.
const (
	HolidayPublic     HolidayType = "public"
	HolidaySchool     HolidayType = "school"
	HolidayLocal      HolidayType = "local"
	HolidayObservance HolidayType = "observance"
)

// ParseHolidayType normalizes a raw holiday-type label from the source data.
// Labels like "Public holiday" or "School holiday" map to their enum value;
// anything unrecognized falls back to HolidayObservance.
func ParseHolidayType(raw string) HolidayType {
	switch raw {
	case "public", "Public holiday", "Public Holiday":
		return HolidayPublic
	case "school", "School holiday", "School Holiday":
		return HolidaySchool
	case "local", "Local holiday", "Local Holiday":
		return HolidayLocal
	case "observance", "Observance":
		return HolidayObservance
	default:
		return HolidayObservance
	}
}

// Valid reports whether t is one of the declared holiday types.
func (t HolidayType) Valid() bool {
	switch t {
	case HolidayPublic, HolidaySchool, HolidayLocal, HolidayObservance:
		return true
	}
	return false
}

// CulturalCategory is derived from the holiday type, never stored in the
// source data.
type CulturalCategory string

// Cultural category constants.
const (
	CategoryNational    CulturalCategory = "national"
	CategoryEducational CulturalCategory = "educational"
	CategoryLocal       CulturalCategory = "local"
	CategoryReligious   CulturalCategory = "religious"
)

// CulturalCategory maps a holiday type to its cultural category:
// public holidays are national, school holidays educational, local holidays
// local, and observances religious.
func (t HolidayType) CulturalCategory() CulturalCategory {
	switch t {
	case HolidayPublic:
		return CategoryNational
	case HolidaySchool:
		return CategoryEducational
	case HolidayLocal:
		return CategoryLocal
	default:
		return CategoryReligious
	}
}

// ValidCulturalCategory reports whether c is a declared category.
func ValidCulturalCategory(c CulturalCategory) bool {
	switch c {
	case CategoryNational, CategoryEducational, CategoryLocal, CategoryReligious:
		return true
	}
	return false
}

// Holiday is one holiday observed in one country on one date.
//
// Invariant: Year, Month, Day and Weekday always agree with Date. Use
// NewHoliday (or Normalize) so the derived fields cannot drift. CountryCode
// should exist in the countries table; unmatched rows are kept but excluded
// from geography-joined views.
type Holiday struct {
	CountryCode string       `json:"country_code"`
	Date        time.Time    `json:"date"`
	Type        HolidayType  `json:"holiday_type"`
	Name        string       `json:"name"`
	Year        int          `json:"year"`
	Month       int          `json:"month"`
	Day         int          `json:"day"`
	Weekday     time.Weekday `json:"weekday"`
}

// NewHoliday builds a Holiday with the date-derived fields filled in.
func NewHoliday(countryCode string, date time.Time, typ HolidayType, name string) Holiday {
	h := Holiday{
		CountryCode: countryCode,
		Date:        date,
		Type:        typ,
		Name:        name,
	}
	h.Normalize()
	return h
}

// Normalize recomputes Year/Month/Day/Weekday from Date.
func (h *Holiday) Normalize() {
	h.Year = h.Date.Year()
	h.Month = int(h.Date.Month())
	h.Day = h.Date.Day()
	h.Weekday = h.Date.Weekday()
}

// Category returns the derived cultural category of the holiday.
func (h Holiday) Category() CulturalCategory {
	return h.Type.CulturalCategory()
}

// PassengerMonth is one country's air-passenger volume for one calendar
// month. The four volume columns are nullable in the source data; a record is
// usable in volume terms only when at least one of TotalOfficial/TotalOther
// is present.
type PassengerMonth struct {
	CountryCode   string    `json:"country_code"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	TotalOfficial *float64  `json:"total_official"`
	TotalOther    *float64  `json:"total_other_source"`
	Domestic      *float64  `json:"domestic"`
	International *float64  `json:"international"`
	Date          time.Time `json:"date"`
}

// NewPassengerMonth builds a record with Date set to the first of the month.
func NewPassengerMonth(countryCode string, year, month int) (PassengerMonth, error) {
	if month < 1 || month > 12 {
		return PassengerMonth{}, fmt.Errorf("month must be in 1..12, got %d", month)
	}
	return PassengerMonth{
		CountryCode: countryCode,
		Year:        year,
		Month:       month,
		Date:        time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

// Total returns the record's aggregate passenger volume, preferring the
// official figure over the other-source figure. Both are never averaged; the
// official column wins whenever it is present so validation against external
// sources stays comparable. The second return is false when neither column
// has a value.
func (p PassengerMonth) Total() (float64, bool) {
	if p.TotalOfficial != nil {
		return *p.TotalOfficial, true
	}
	if p.TotalOther != nil {
		return *p.TotalOther, true
	}
	return 0, false
}

// MonthIndex returns a monotonically increasing index for the record's
// calendar month (year*12 + month-1), used for adjacency arithmetic across
// year boundaries.
func (p PassengerMonth) MonthIndex() int {
	return MonthIndex(p.Year, p.Month)
}

// MonthIndex converts a (year, month) pair into a linear month index.
func MonthIndex(year, month int) int {
	return year*12 + month - 1
}

// Country is one row of the country metadata table, keyed by its ISO 3166-1
// alpha-3 code.
type Country struct {
	Code      string `json:"alpha_3"`
	Name      string `json:"name"`
	Continent string `json:"continent"`
	Region    string `json:"region"`
}
