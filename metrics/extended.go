package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/feriadolabs/feriado/filter"
)

// Quality score weights: completeness carries 0.4, consistency and accuracy
// 0.3 each.
const (
	qualityCompletenessWeight = 0.4
	qualityConsistencyWeight  = 0.3
	qualityAccuracyWeight     = 0.3
)

// consistencyTolerancePct is the maximum relative disagreement between the
// official and other-source totals for a record to count as consistent.
const consistencyTolerancePct = 10.0

// Seasonality describes how volume varies across the calendar year within a
// view.
type Seasonality struct {
	// MonthlyMeans holds the mean usable total per calendar month, only for
	// months the view has data for.
	MonthlyMeans map[int]float64 `json:"monthly_means"`

	PeakMonth *int `json:"peak_month,omitempty"`
	LowMonth  *int `json:"low_month,omitempty"`

	// Index is (peak mean - low mean) divided by the mean of the monthly
	// means. Zero when every month moves the same volume; nil when the view
	// has no usable data or that mean is zero.
	Index *float64 `json:"index,omitempty"`
}

// HolidayImpact compares mean volume in holiday months against non-holiday
// months. Months are classified against the full holiday calendar, the same
// calendar the filter facets use.
type HolidayImpact struct {
	HolidayMean    *float64 `json:"holiday_mean,omitempty"`
	NonHolidayMean *float64 `json:"non_holiday_mean,omitempty"`

	// DiffPct is the holiday mean's percent difference from the non-holiday
	// mean. Nil when either bucket is empty or the non-holiday mean is zero.
	DiffPct *float64 `json:"diff_pct,omitempty"`
}

// Correlations holds pairwise Pearson correlations between the volume
// columns, computed over records carrying both columns of a pair. Nil when a
// pair has fewer than two complete records or a column has no variance.
type Correlations struct {
	DomesticInternational *float64 `json:"domestic_international,omitempty"`
	TotalDomestic         *float64 `json:"total_domestic,omitempty"`
	TotalInternational    *float64 `json:"total_international,omitempty"`
}

// Quality scores the view's data health in [0, 1]: completeness is the share
// of records with a usable total, consistency the share of dual-source
// records whose totals agree within tolerance, accuracy the share of usable
// totals that are finite and non-negative.
type Quality struct {
	Completeness float64 `json:"completeness"`
	Consistency  float64 `json:"consistency"`
	Accuracy     float64 `json:"accuracy"`
	Score        float64 `json:"score"`
}

// Extended is the deep-analysis metric block served alongside Summary.
type Extended struct {
	Seasonality   Seasonality   `json:"seasonality"`
	HolidayImpact HolidayImpact `json:"holiday_impact"`
	Correlations  Correlations  `json:"correlations"`
	Quality       Quality       `json:"quality"`
}

// ComputeExtended builds the Extended block for a view. Like Compute it
// never fails; sections the view cannot support come back with nil fields.
func ComputeExtended(view *filter.View) Extended {
	return Extended{
		Seasonality:   computeSeasonality(view),
		HolidayImpact: computeHolidayImpact(view),
		Correlations:  computeCorrelations(view),
		Quality:       computeQuality(view),
	}
}

func computeSeasonality(view *filter.View) Seasonality {
	sums := make(map[int]float64)
	counts := make(map[int]int)

	for i := 0; i < view.NumPassengers(); i++ {
		p := view.Passenger(i)
		v, ok := p.Total()
		if !ok {
			continue
		}
		sums[p.Month] += v
		counts[p.Month]++
	}

	out := Seasonality{MonthlyMeans: make(map[int]float64, len(sums))}
	if len(sums) == 0 {
		return out
	}

	var peak, low *int
	var peakMean, lowMean float64
	for m := 1; m <= 12; m++ {
		n := counts[m]
		if n == 0 {
			continue
		}
		mean := sums[m] / float64(n)
		out.MonthlyMeans[m] = mean
		if peak == nil || mean > peakMean {
			month := m
			peak = &month
			peakMean = mean
		}
		if low == nil || mean < lowMean {
			month := m
			low = &month
			lowMean = mean
		}
	}
	out.PeakMonth = peak
	out.LowMonth = low

	var meanOfMeans float64
	for _, mean := range out.MonthlyMeans {
		meanOfMeans += mean
	}
	meanOfMeans /= float64(len(out.MonthlyMeans))
	if meanOfMeans != 0 {
		out.Index = fp((peakMean - lowMean) / meanOfMeans)
	}
	return out
}

func computeHolidayImpact(view *filter.View) HolidayImpact {
	store := view.Store()
	var holidaySum, otherSum float64
	var holidayN, otherN int

	for i := 0; i < view.NumPassengers(); i++ {
		p := view.Passenger(i)
		v, ok := p.Total()
		if !ok {
			continue
		}
		if store.HasHolidayInMonth(p.CountryCode, p.Year, p.Month) {
			holidaySum += v
			holidayN++
		} else {
			otherSum += v
			otherN++
		}
	}

	var out HolidayImpact
	if holidayN > 0 {
		out.HolidayMean = fp(holidaySum / float64(holidayN))
	}
	if otherN > 0 {
		out.NonHolidayMean = fp(otherSum / float64(otherN))
	}
	if out.HolidayMean != nil && out.NonHolidayMean != nil && *out.NonHolidayMean != 0 {
		out.DiffPct = fp((*out.HolidayMean - *out.NonHolidayMean) / *out.NonHolidayMean * 100)
	}
	return out
}

func computeCorrelations(view *filter.View) Correlations {
	var domDI, intDI []float64
	var totTD, domTD []float64
	var totTI, intTI []float64

	for i := 0; i < view.NumPassengers(); i++ {
		p := view.Passenger(i)
		total, hasTotal := p.Total()
		if p.Domestic != nil && p.International != nil {
			domDI = append(domDI, *p.Domestic)
			intDI = append(intDI, *p.International)
		}
		if hasTotal && p.Domestic != nil {
			totTD = append(totTD, total)
			domTD = append(domTD, *p.Domestic)
		}
		if hasTotal && p.International != nil {
			totTI = append(totTI, total)
			intTI = append(intTI, *p.International)
		}
	}

	return Correlations{
		DomesticInternational: correlation(domDI, intDI),
		TotalDomestic:         correlation(totTD, domTD),
		TotalInternational:    correlation(totTI, intTI),
	}
}

func correlation(x, y []float64) *float64 {
	if len(x) < 2 {
		return nil
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return nil
	}
	return fp(r)
}

func computeQuality(view *filter.View) Quality {
	records := view.NumPassengers()
	if records == 0 {
		return Quality{}
	}

	var usable, accurate int
	var dualSource, consistent int
	for i := 0; i < records; i++ {
		p := view.Passenger(i)
		v, ok := p.Total()
		if ok {
			usable++
			if !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 {
				accurate++
			}
		}
		if p.TotalOfficial != nil && p.TotalOther != nil {
			dualSource++
			if sourcesAgree(*p.TotalOfficial, *p.TotalOther) {
				consistent++
			}
		}
	}

	q := Quality{
		Completeness: float64(usable) / float64(records),
		// With no dual-source records there is no disagreement to observe.
		Consistency: 1,
	}
	if dualSource > 0 {
		q.Consistency = float64(consistent) / float64(dualSource)
	}
	if usable > 0 {
		q.Accuracy = float64(accurate) / float64(usable)
	}
	q.Score = qualityCompletenessWeight*q.Completeness +
		qualityConsistencyWeight*q.Consistency +
		qualityAccuracyWeight*q.Accuracy
	return q
}

func sourcesAgree(official, other float64) bool {
	if official == 0 {
		return other == 0
	}
	return math.Abs(official-other)/math.Abs(official)*100 <= consistencyTolerancePct
}
