// Package metrics computes descriptive and derived statistics over filtered
// views of the holiday and passenger tables.
//
// All metrics are recomputed from the view on every call; nothing is cached
// against the selection. Metrics that need data the view cannot supply come
// back as nil pointers rather than zeros, so callers can distinguish "zero
// passengers" from "cannot be computed".
//
// Example:
//
//	view, _ := engine.Apply(store, sel)
//	summary := metrics.Compute(view)
//	if summary.GrowthRatePct != nil {
//	    fmt.Printf("growth: %+.1f%%\n", *summary.GrowthRatePct)
//	}
package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/feriadolabs/feriado/dataset"
	"github.com/feriadolabs/feriado/filter"
)

// Summary is the standard per-view metric block. Volume metrics cover only
// records with a usable total (official preferred over the other source,
// never averaged); pointer fields are nil when the view cannot support the
// computation.
type Summary struct {
	Records       int `json:"records"`
	UsableRecords int `json:"usable_records"`
	Holidays      int `json:"holidays"`
	Countries     int `json:"countries"`
	Years         int `json:"years"`

	TotalPassengers float64  `json:"total_passengers"`
	MeanMonthly     *float64 `json:"mean_monthly,omitempty"`
	MedianMonthly   *float64 `json:"median_monthly,omitempty"`
	StdDevMonthly   *float64 `json:"stddev_monthly,omitempty"`
	MinMonthly      *float64 `json:"min_monthly,omitempty"`
	MaxMonthly      *float64 `json:"max_monthly,omitempty"`
	Q25Monthly      *float64 `json:"q25_monthly,omitempty"`
	Q75Monthly      *float64 `json:"q75_monthly,omitempty"`

	// MonthlyDistribution maps calendar month to the summed usable total for
	// that month. Months with no usable records are absent.
	MonthlyDistribution map[int]float64 `json:"monthly_distribution"`

	// PeakMonth is the calendar month with the highest mean volume across
	// the view; ties resolve to the earliest month.
	PeakMonth     *int     `json:"peak_month,omitempty"`
	PeakMonthMean *float64 `json:"peak_month_mean,omitempty"`

	// GrowthRatePct is the percent change between the first and last year
	// totals in the view. Nil when the view spans fewer than two years with
	// usable data or the first year total is zero.
	GrowthRatePct *float64 `json:"growth_rate_pct,omitempty"`

	HolidaysByType map[dataset.HolidayType]int `json:"holidays_by_type"`
}

// Compute builds the Summary for a view. An empty view produces a Summary of
// zero counts and nil metrics, never an error.
func Compute(view *filter.View) Summary {
	s := Summary{
		Records:             view.NumPassengers(),
		Holidays:            view.NumHolidays(),
		MonthlyDistribution: make(map[int]float64),
		HolidaysByType:      make(map[dataset.HolidayType]int),
	}

	countries := make(map[string]bool)
	years := make(map[int]bool)
	monthSums := make(map[int]float64)
	monthCounts := make(map[int]int)
	yearSums := make(map[int]float64)
	yearsWithData := make(map[int]bool)

	var totals []float64
	for i := 0; i < view.NumPassengers(); i++ {
		p := view.Passenger(i)
		countries[p.CountryCode] = true
		years[p.Year] = true
		v, ok := p.Total()
		if !ok {
			continue
		}
		totals = append(totals, v)
		s.TotalPassengers += v
		s.MonthlyDistribution[p.Month] += v
		monthSums[p.Month] += v
		monthCounts[p.Month]++
		yearSums[p.Year] += v
		yearsWithData[p.Year] = true
	}
	for i := 0; i < view.NumHolidays(); i++ {
		h := view.Holiday(i)
		countries[h.CountryCode] = true
		s.HolidaysByType[h.Type]++
	}

	s.UsableRecords = len(totals)
	s.Countries = len(countries)
	s.Years = len(years)

	if len(totals) > 0 {
		sorted := make([]float64, len(totals))
		copy(sorted, totals)
		sort.Float64s(sorted)

		s.MeanMonthly = fp(stat.Mean(totals, nil))
		s.MedianMonthly = fp(stat.Quantile(0.5, stat.Empirical, sorted, nil))
		s.MinMonthly = fp(sorted[0])
		s.MaxMonthly = fp(sorted[len(sorted)-1])
		s.Q25Monthly = fp(stat.Quantile(0.25, stat.Empirical, sorted, nil))
		s.Q75Monthly = fp(stat.Quantile(0.75, stat.Empirical, sorted, nil))
		if len(totals) > 1 {
			s.StdDevMonthly = fp(stat.StdDev(totals, nil))
		}
	}

	s.PeakMonth, s.PeakMonthMean = peakMonth(monthSums, monthCounts)
	s.GrowthRatePct = growthRate(yearSums, yearsWithData)

	return s
}

// peakMonth scans calendar months in ascending order with a strict greater
// comparison, so equal means keep the earliest month.
func peakMonth(sums map[int]float64, counts map[int]int) (*int, *float64) {
	var bestMonth *int
	var bestMean float64
	for m := 1; m <= 12; m++ {
		n := counts[m]
		if n == 0 {
			continue
		}
		mean := sums[m] / float64(n)
		if bestMonth == nil || mean > bestMean {
			month := m
			bestMonth = &month
			bestMean = mean
		}
	}
	if bestMonth == nil {
		return nil, nil
	}
	return bestMonth, fp(bestMean)
}

func growthRate(yearSums map[int]float64, yearsWithData map[int]bool) *float64 {
	if len(yearsWithData) < 2 {
		return nil
	}
	years := make([]int, 0, len(yearsWithData))
	for y := range yearsWithData {
		years = append(years, y)
	}
	sort.Ints(years)

	first := yearSums[years[0]]
	last := yearSums[years[len(years)-1]]
	if first == 0 {
		return nil
	}
	return fp((last - first) / first * 100)
}

func fp(v float64) *float64 { return &v }
