// Package csvload ingests the three source CSV files into dataset tables.
//
// Decoding is header-driven via csvutil; row structs carry csv tags matching
// the source headers exactly. The loader applies the same cleaning rules as
// the upstream dataset: holiday dates are normalized so the derived calendar
// fields agree with the date, and passenger rows survive only when a usable
// total exists or can be back-filled from the domestic/international split.
package csvload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/feriadolabs/feriado/dataset"
)

// holidayRow mirrors the global_holidays.csv header.
type holidayRow struct {
	ISO3 string `csv:"ISO3"`
	Date string `csv:"Date"`
	Name string `csv:"Name"`
	Type string `csv:"Type"`
}

// passengerRow mirrors the monthly_passengers.csv header. The four volume
// columns are nullable in the source, hence the pointers.
type passengerRow struct {
	ISO3          string   `csv:"ISO3"`
	Year          int      `csv:"Year"`
	Month         int      `csv:"Month"`
	Total         *float64 `csv:"Total"`
	TotalOS       *float64 `csv:"Total_OS"`
	Domestic      *float64 `csv:"Domestic"`
	International *float64 `csv:"International"`
}

// countryRow mirrors the countries.csv header. The region column is optional
// in the source; rows without it decode with an empty Region.
type countryRow struct {
	Alpha3    string `csv:"alpha_3"`
	Name      string `csv:"name"`
	Continent string `csv:"continent"`
	Region    string `csv:"region"`
}

// Files names the three source CSV paths.
type Files struct {
	Holidays   string
	Passengers string
	Countries  string
}

// LoadStore reads the three CSV files and builds an immutable store over the
// cleaned tables.
func LoadStore(files Files) (*dataset.Store, error) {
	holidays, err := loadFile(files.Holidays, LoadHolidays)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}
	passengers, err := loadFile(files.Passengers, LoadPassengers)
	if err != nil {
		return nil, fmt.Errorf("load passengers: %w", err)
	}
	countries, err := loadFile(files.Countries, LoadCountries)
	if err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	return dataset.NewStore(holidays, passengers, countries), nil
}

func loadFile[T any](path string, load func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return load(f)
}

// LoadHolidays decodes holiday rows, parsing dates and normalizing the
// derived year/month/day/weekday fields. Raw type labels are mapped onto the
// holiday type enum; unrecognized labels become observances. Rows whose
// country code never appears in the countries table are kept.
func LoadHolidays(r io.Reader) ([]dataset.Holiday, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("read holidays header: %w", err)
	}

	var holidays []dataset.Holiday
	for n := 1; ; n++ {
		var row holidayRow
		if err := dec.Decode(&row); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decode holiday row %d: %w", n, err)
		}

		date, err := parseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday row %d: %w", n, err)
		}
		holidays = append(holidays, dataset.NewHoliday(
			strings.TrimSpace(row.ISO3),
			date,
			dataset.ParseHolidayType(strings.TrimSpace(row.Type)),
			strings.TrimSpace(row.Name),
		))
	}
	return holidays, nil
}

// LoadPassengers decodes passenger rows and applies the usable-total fallback
// chain: a row is kept when the official or other-source total is present, or
// when the domestic/international split can back-fill the other-source
// column. Rows with no volume figure at all are dropped.
func LoadPassengers(r io.Reader) ([]dataset.PassengerMonth, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("read passengers header: %w", err)
	}

	var passengers []dataset.PassengerMonth
	for n := 1; ; n++ {
		var row passengerRow
		if err := dec.Decode(&row); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decode passenger row %d: %w", n, err)
		}

		p, err := dataset.NewPassengerMonth(strings.TrimSpace(row.ISO3), row.Year, row.Month)
		if err != nil {
			return nil, fmt.Errorf("passenger row %d: %w", n, err)
		}
		p.TotalOfficial = row.Total
		p.TotalOther = row.TotalOS
		p.Domestic = row.Domestic
		p.International = row.International

		if p.TotalOfficial == nil && p.TotalOther == nil {
			if row.Domestic == nil && row.International == nil {
				continue
			}
			sum := deref(row.Domestic) + deref(row.International)
			p.TotalOther = &sum
		}
		passengers = append(passengers, p)
	}
	return passengers, nil
}

// LoadCountries decodes country metadata rows keyed by alpha-3 code.
func LoadCountries(r io.Reader) ([]dataset.Country, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("read countries header: %w", err)
	}

	var countries []dataset.Country
	for n := 1; ; n++ {
		var row countryRow
		if err := dec.Decode(&row); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decode country row %d: %w", n, err)
		}
		countries = append(countries, dataset.Country{
			Code:      strings.TrimSpace(row.Alpha3),
			Name:      strings.TrimSpace(row.Name),
			Continent: strings.TrimSpace(row.Continent),
			Region:    strings.TrimSpace(row.Region),
		})
	}
	return countries, nil
}

// dateLayouts are tried in order when parsing holiday dates.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
