package filter

import (
	"time"

	"github.com/feriadolabs/feriado/dataset"
)

// Engine applies Selections to a Store. It is stateless apart from its
// config, so one Engine can serve every session concurrently.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine. Zero config fields fall back to defaults.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Apply evaluates the selection against the store and returns the matching
// View. A nil or empty selection is the identity transform. An invalid
// selection returns a *ValidationError and no view; a selection that matches
// nothing returns an empty View and a nil error.
func (e *Engine) Apply(store *dataset.Store, sel *Selection) (*View, error) {
	if sel == nil || sel.IsEmpty() {
		return FullView(store), nil
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	m := newMatcher(store, sel, e.cfg)

	var holidayIdx []int
	for i := 0; i < store.NumHolidays(); i++ {
		if m.matchHoliday(store.Holiday(i)) {
			holidayIdx = append(holidayIdx, i)
		}
	}

	var passengerIdx []int
	for i := 0; i < store.NumPassengers(); i++ {
		if m.matchPassenger(store.Passenger(i)) {
			passengerIdx = append(passengerIdx, i)
		}
	}

	return NewView(store, holidayIdx, passengerIdx), nil
}

// matcher holds one Apply call's precomputed lookup sets plus the derived
// facet computer. Facets compose by intersection across categories and union
// within a category; a facet that references columns a table lacks leaves
// that table unconstrained (volume ranges do not filter holidays).
type matcher struct {
	store *dataset.Store
	sel   *Selection
	cfg   Config

	derived *derivedIndex

	months     map[int]bool
	countries  map[string]bool
	continents map[string]bool
	types      map[dataset.HolidayType]bool
	categories map[dataset.CulturalCategory]bool
	quarters   map[int]bool
	weekdays   map[time.Weekday]bool
	flights    map[FlightType]bool
	impacts    map[Impact]bool
	patterns   map[Pattern]bool
	seasons    map[Season]bool
	growth     map[GrowthCategory]bool
}

func newMatcher(store *dataset.Store, sel *Selection, cfg Config) *matcher {
	m := &matcher{
		store:      store,
		sel:        sel,
		cfg:        cfg,
		months:     toSet(sel.Months),
		countries:  toSet(sel.Countries),
		continents: toSet(sel.Continents),
		types:      toSet(sel.HolidayTypes),
		categories: toSet(sel.CulturalCategories),
		quarters:   toSet(sel.Quarters),
		weekdays:   toSet(sel.Weekdays),
		flights:    toSet(sel.FlightTypes),
		impacts:    toSet(sel.ImpactLevels),
		patterns:   toSet(sel.TemporalPatterns),
		seasons:    toSet(sel.Seasons),
		growth:     toSet(sel.GrowthCategories),
	}
	if sel.Period != "" || len(m.impacts) > 0 || len(m.patterns) > 0 ||
		len(m.seasons) > 0 || len(m.growth) > 0 {
		m.derived = newDerivedIndex(store, cfg)
	}
	return m
}

func toSet[T comparable](vals []T) map[T]bool {
	if len(vals) == 0 {
		return nil
	}
	set := make(map[T]bool, len(vals))
	for _, v := range vals {
		set[v] = true
	}
	return set
}

func (m *matcher) matchHoliday(h dataset.Holiday) bool {
	if !m.yearInRange(h.Year) {
		return false
	}
	if len(m.months) > 0 && !m.months[h.Month] {
		return false
	}
	if len(m.quarters) > 0 && !m.quarters[quarterOf(h.Month)] {
		return false
	}
	if len(m.weekdays) > 0 && !m.weekdays[h.Weekday] {
		return false
	}
	if len(m.countries) > 0 && !m.countries[h.CountryCode] {
		return false
	}
	if len(m.continents) > 0 && !m.continents[m.store.Continent(h.CountryCode)] {
		return false
	}
	if len(m.types) > 0 && !m.types[h.Type] {
		return false
	}
	if len(m.categories) > 0 && !m.categories[h.Category()] {
		return false
	}
	return true
}

func (m *matcher) matchPassenger(p dataset.PassengerMonth) bool {
	if !m.yearInRange(p.Year) {
		return false
	}
	if len(m.months) > 0 && !m.months[p.Month] {
		return false
	}
	if len(m.quarters) > 0 && !m.quarters[quarterOf(p.Month)] {
		return false
	}
	if len(m.countries) > 0 && !m.countries[p.CountryCode] {
		return false
	}
	if len(m.continents) > 0 && !m.continents[m.store.Continent(p.CountryCode)] {
		return false
	}
	if !m.matchVolume(p) {
		return false
	}
	if m.sel.Period != "" {
		period, ok := m.derived.period(p)
		if !ok || period != m.sel.Period {
			return false
		}
	}
	if len(m.impacts) > 0 {
		impact, ok := m.derived.impact(p)
		if !ok || !m.impacts[impact] {
			return false
		}
	}
	if len(m.patterns) > 0 {
		pattern, ok := m.derived.pattern(p)
		if !ok || !m.patterns[pattern] {
			return false
		}
	}
	if len(m.seasons) > 0 {
		season, ok := m.derived.season(p)
		if !ok || !m.seasons[season] {
			return false
		}
	}
	if len(m.growth) > 0 {
		category, ok := m.derived.growth(p)
		if !ok || !m.growth[category] {
			return false
		}
	}
	return true
}

// matchVolume enforces the flight-type and volume-range facets together. With
// flight types selected the record must carry at least one of the selected
// columns, and the range (when set) must admit at least one of their values.
// With no flight types selected the range checks the usable total.
func (m *matcher) matchVolume(p dataset.PassengerMonth) bool {
	rangeSet := m.sel.VolumeMin != nil || m.sel.VolumeMax != nil
	if len(m.flights) == 0 && !rangeSet {
		return true
	}

	var values []float64
	if len(m.flights) > 0 {
		values = m.flightValues(p)
		if len(values) == 0 {
			return false
		}
	} else if v, ok := p.Total(); ok {
		values = append(values, v)
	} else {
		return false
	}

	if !rangeSet {
		return true
	}
	for _, v := range values {
		if m.inVolumeRange(v) {
			return true
		}
	}
	return false
}

func (m *matcher) flightValues(p dataset.PassengerMonth) []float64 {
	var out []float64
	if m.flights[FlightDomestic] && p.Domestic != nil {
		out = append(out, *p.Domestic)
	}
	if m.flights[FlightInternational] && p.International != nil {
		out = append(out, *p.International)
	}
	if m.flights[FlightTotal] {
		if v, ok := p.Total(); ok {
			out = append(out, v)
		}
	}
	return out
}

func (m *matcher) inVolumeRange(v float64) bool {
	if m.sel.VolumeMin != nil && v < *m.sel.VolumeMin {
		return false
	}
	if m.sel.VolumeMax != nil && v > *m.sel.VolumeMax {
		return false
	}
	return true
}

func (m *matcher) yearInRange(year int) bool {
	if m.sel.YearMin != 0 && year < m.sel.YearMin {
		return false
	}
	if m.sel.YearMax != 0 && year > m.sel.YearMax {
		return false
	}
	return true
}

func quarterOf(month int) int {
	return (month-1)/3 + 1
}
