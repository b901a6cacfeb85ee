package dataset

import (
	"sort"
)

// Store holds the three tables plus the indexes the filter engine needs.
// A Store is immutable after construction, so it is safe to share across
// sessions without locking.
type Store struct {
	holidays   []Holiday
	passengers []PassengerMonth
	countries  map[string]Country

	holidaysByCountry   map[string][]int
	passengersByCountry map[string][]int

	// holidayMonths marks, per country, every linear month index that
	// contains at least one holiday. The derived holiday-period and
	// impact facets are computed against this calendar.
	holidayMonths map[string]map[int]bool

	// passengerByMonth resolves (country, month index) to a record index,
	// for baseline and window lookups.
	passengerByMonth map[string]map[int]int

	years      []int
	codes      []string
	continents []string
}

// NewStore builds a Store and its indexes from already-cleaned tables.
// The slices are retained, not copied; callers must not mutate them after
// handing them over.
func NewStore(holidays []Holiday, passengers []PassengerMonth, countries []Country) *Store {
	s := &Store{
		holidays:            holidays,
		passengers:          passengers,
		countries:           make(map[string]Country, len(countries)),
		holidaysByCountry:   make(map[string][]int),
		passengersByCountry: make(map[string][]int),
		holidayMonths:       make(map[string]map[int]bool),
		passengerByMonth:    make(map[string]map[int]int),
	}

	for _, c := range countries {
		s.countries[c.Code] = c
	}

	for i, h := range holidays {
		s.holidaysByCountry[h.CountryCode] = append(s.holidaysByCountry[h.CountryCode], i)
		months, ok := s.holidayMonths[h.CountryCode]
		if !ok {
			months = make(map[int]bool)
			s.holidayMonths[h.CountryCode] = months
		}
		months[MonthIndex(h.Year, h.Month)] = true
	}

	yearSet := make(map[int]bool)
	codeSet := make(map[string]bool)
	continentSet := make(map[string]bool)
	for i, p := range passengers {
		s.passengersByCountry[p.CountryCode] = append(s.passengersByCountry[p.CountryCode], i)
		byMonth, ok := s.passengerByMonth[p.CountryCode]
		if !ok {
			byMonth = make(map[int]int)
			s.passengerByMonth[p.CountryCode] = byMonth
		}
		byMonth[p.MonthIndex()] = i
		yearSet[p.Year] = true
		codeSet[p.CountryCode] = true
		if c, ok := s.countries[p.CountryCode]; ok && c.Continent != "" {
			continentSet[c.Continent] = true
		}
	}

	s.years = make([]int, 0, len(yearSet))
	for y := range yearSet {
		s.years = append(s.years, y)
	}
	sort.Ints(s.years)

	s.codes = make([]string, 0, len(codeSet))
	for c := range codeSet {
		s.codes = append(s.codes, c)
	}
	sort.Strings(s.codes)

	s.continents = make([]string, 0, len(continentSet))
	for c := range continentSet {
		s.continents = append(s.continents, c)
	}
	sort.Strings(s.continents)

	return s
}

// NumHolidays returns the holiday table size.
func (s *Store) NumHolidays() int { return len(s.holidays) }

// NumPassengers returns the passenger table size.
func (s *Store) NumPassengers() int { return len(s.passengers) }

// Holiday returns the holiday record at index i.
func (s *Store) Holiday(i int) Holiday { return s.holidays[i] }

// Passenger returns the passenger record at index i.
func (s *Store) Passenger(i int) PassengerMonth { return s.passengers[i] }

// Country looks up country metadata by alpha-3 code.
func (s *Store) Country(code string) (Country, bool) {
	c, ok := s.countries[code]
	return c, ok
}

// Continent resolves the continent for a country code. Returns "" for codes
// missing from the countries table; such records stay in the store but drop
// out of geography-joined views.
func (s *Store) Continent(code string) string {
	return s.countries[code].Continent
}

// HasHolidayInMonth reports whether the country observes at least one
// holiday in the given calendar month.
func (s *Store) HasHolidayInMonth(countryCode string, year, month int) bool {
	return s.holidayMonths[countryCode][MonthIndex(year, month)]
}

// HasHolidayAtIndex is the linear-month-index form of HasHolidayInMonth.
func (s *Store) HasHolidayAtIndex(countryCode string, monthIndex int) bool {
	return s.holidayMonths[countryCode][monthIndex]
}

// NearestHolidayOffset returns the signed distance in months from the given
// calendar month to the closest month containing a holiday in the same
// country, scanning up to maxOffset months in both directions. A positive
// offset means the holiday month lies in the future, negative in the past,
// zero that the month itself contains a holiday. When two holiday months are
// equidistant the upcoming one wins. The second return is false when no
// holiday month exists within the scanned range.
func (s *Store) NearestHolidayOffset(countryCode string, year, month, maxOffset int) (int, bool) {
	base := MonthIndex(year, month)
	if s.HasHolidayAtIndex(countryCode, base) {
		return 0, true
	}
	for d := 1; d <= maxOffset; d++ {
		if s.HasHolidayAtIndex(countryCode, base+d) {
			return d, true
		}
		if s.HasHolidayAtIndex(countryCode, base-d) {
			return -d, true
		}
	}
	return 0, false
}

// PassengerAt resolves the passenger record for a (country, year, month)
// cell. The second return is false when the cell has no record.
func (s *Store) PassengerAt(countryCode string, year, month int) (PassengerMonth, bool) {
	i, ok := s.passengerByMonth[countryCode][MonthIndex(year, month)]
	if !ok {
		return PassengerMonth{}, false
	}
	return s.passengers[i], true
}

// passengerAtIndex is the linear-month-index form of PassengerAt.
func (s *Store) passengerAtIndex(countryCode string, monthIndex int) (PassengerMonth, bool) {
	i, ok := s.passengerByMonth[countryCode][monthIndex]
	if !ok {
		return PassengerMonth{}, false
	}
	return s.passengers[i], true
}

// TotalAt returns the usable passenger total for a (country, linear month
// index) cell. False when the cell is missing or has no usable total.
func (s *Store) TotalAt(countryCode string, monthIndex int) (float64, bool) {
	p, ok := s.passengerAtIndex(countryCode, monthIndex)
	if !ok {
		return 0, false
	}
	return p.Total()
}

// HolidayIndicesByCountry returns the indices of all holidays for a country.
func (s *Store) HolidayIndicesByCountry(code string) []int {
	return s.holidaysByCountry[code]
}

// PassengerIndicesByCountry returns the indices of all passenger records for
// a country.
func (s *Store) PassengerIndicesByCountry(code string) []int {
	return s.passengersByCountry[code]
}

// Years returns the sorted distinct years present in the passenger table.
func (s *Store) Years() []int {
	out := make([]int, len(s.years))
	copy(out, s.years)
	return out
}

// CountryCodes returns the sorted distinct country codes present in the
// passenger table, including codes missing from the countries table.
func (s *Store) CountryCodes() []string {
	out := make([]string, len(s.codes))
	copy(out, s.codes)
	return out
}

// Continents returns the sorted distinct continents covered by the passenger
// table, resolved through the countries table.
func (s *Store) Continents() []string {
	out := make([]string, len(s.continents))
	copy(out, s.continents)
	return out
}

// YearTotal sums the usable totals of one country's records in one year.
// The second return is false when the country has no usable record that year.
func (s *Store) YearTotal(countryCode string, year int) (float64, bool) {
	var sum float64
	found := false
	for _, i := range s.passengersByCountry[countryCode] {
		p := s.passengers[i]
		if p.Year != year {
			continue
		}
		if v, ok := p.Total(); ok {
			sum += v
			found = true
		}
	}
	return sum, found
}
