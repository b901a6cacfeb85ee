package filter

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/feriadolabs/feriado/dataset"
)

// Derived facet boundaries that are not part of Config. Growth categories
// are bucketed at 0 / 5 / 15 percent year-over-year; seasons split at the
// dataset-wide P25 and P75 volume quantiles.
const (
	growthStableMaxPct  = 5.0
	growthBoomingMinPct = 15.0

	seasonLowQuantile  = 0.25
	seasonHighQuantile = 0.75
)

// baselineScanLimit caps how many calendar months the impact baseline walks
// backwards while looking for non-holiday months.
const baselineScanLimit = 36

// derivedIndex computes the derived categorical facets for passenger
// records. All classifications run against the full store, not the filtered
// subset, so a record's bucket never depends on which other facets are
// active. Season thresholds and growth categories are memoized per Apply
// call.
type derivedIndex struct {
	store *dataset.Store
	cfg   Config

	seasonsReady bool
	seasonP25    float64
	seasonP75    float64
	seasonUsable bool

	growthMemo map[string]map[int]growthEntry
}

type growthEntry struct {
	category GrowthCategory
	ok       bool
}

func newDerivedIndex(store *dataset.Store, cfg Config) *derivedIndex {
	return &derivedIndex{
		store:      store,
		cfg:        cfg,
		growthMemo: make(map[string]map[int]growthEntry),
	}
}

// period classifies the record's month relative to the nearest holiday in
// the same country. The second return is false when no holiday falls within
// the window on either side, in which case the record matches no period
// facet.
func (d *derivedIndex) period(p dataset.PassengerMonth) (Period, bool) {
	offset, found := d.store.NearestHolidayOffset(p.CountryCode, p.Year, p.Month, d.cfg.PeriodWindowMonths)
	if !found {
		return "", false
	}
	switch {
	case offset == 0:
		return PeriodDuring, true
	case offset > 0:
		return PeriodBefore, true
	default:
		return PeriodAfter, true
	}
}

// impact classifies a holiday month's percent change against its trailing
// baseline. Only months containing a holiday have an impact level; the
// baseline is the mean usable total of the prior BaselineMonths non-holiday
// months. The second return is false when the record is not a holiday month,
// has no usable total, or no baseline could be assembled.
func (d *derivedIndex) impact(p dataset.PassengerMonth) (Impact, bool) {
	if !d.store.HasHolidayInMonth(p.CountryCode, p.Year, p.Month) {
		return "", false
	}
	volume, ok := p.Total()
	if !ok {
		return "", false
	}

	baseline, ok := d.trailingBaseline(p.CountryCode, p.MonthIndex())
	if !ok || baseline <= 0 {
		return "", false
	}

	changePct := (volume - baseline) / baseline * 100
	switch {
	case changePct < 0:
		return ImpactNegative, true
	case changePct >= d.cfg.ImpactHighPct:
		return ImpactHigh, true
	case changePct >= d.cfg.ImpactMediumPct:
		return ImpactMedium, true
	default:
		return ImpactLow, true
	}
}

// trailingBaseline walks backwards from the month before monthIndex,
// skipping holiday months, until BaselineMonths non-holiday months have been
// seen. It averages the usable totals found among them; months without data
// still count toward the window.
func (d *derivedIndex) trailingBaseline(countryCode string, monthIndex int) (float64, bool) {
	var sum float64
	counted := 0
	collected := 0
	for back := 1; back <= baselineScanLimit && counted < d.cfg.BaselineMonths; back++ {
		mi := monthIndex - back
		if d.store.HasHolidayAtIndex(countryCode, mi) {
			continue
		}
		counted++
		if v, ok := d.store.TotalAt(countryCode, mi); ok {
			sum += v
			collected++
		}
	}
	if collected == 0 {
		return 0, false
	}
	return sum / float64(collected), true
}

// pattern classifies the shape of the three-month window centered on a
// holiday month by delta signs: rising then falling is a peak, rising only a
// lead-in, falling then rising a rebound, anything else (including missing
// neighbors) no pattern. The second return is false for non-holiday months,
// which match no pattern facet at all.
func (d *derivedIndex) pattern(p dataset.PassengerMonth) (Pattern, bool) {
	if !d.store.HasHolidayInMonth(p.CountryCode, p.Year, p.Month) {
		return "", false
	}
	mi := p.MonthIndex()
	prev, okPrev := d.store.TotalAt(p.CountryCode, mi-1)
	cur, okCur := p.Total()
	next, okNext := d.store.TotalAt(p.CountryCode, mi+1)
	if !okPrev || !okCur || !okNext {
		return PatternNone, true
	}

	rise := sign(cur - prev)
	fall := sign(next - cur)
	switch {
	case rise > 0 && fall < 0:
		return PatternPeak, true
	case rise > 0 && fall >= 0:
		return PatternLeadIn, true
	case rise < 0 && fall > 0:
		return PatternRebound, true
	default:
		return PatternNone, true
	}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// season buckets the record's usable total against the dataset-wide P25/P75
// volume quantiles. False when the record has no usable total or the store
// has no usable totals at all.
func (d *derivedIndex) season(p dataset.PassengerMonth) (Season, bool) {
	v, ok := p.Total()
	if !ok {
		return "", false
	}
	d.ensureSeasonThresholds()
	if !d.seasonUsable {
		return "", false
	}
	switch {
	case v < d.seasonP25:
		return SeasonLow, true
	case v > d.seasonP75:
		return SeasonHigh, true
	default:
		return SeasonMid, true
	}
}

func (d *derivedIndex) ensureSeasonThresholds() {
	if d.seasonsReady {
		return
	}
	d.seasonsReady = true

	totals := make([]float64, 0, d.store.NumPassengers())
	for i := 0; i < d.store.NumPassengers(); i++ {
		if v, ok := d.store.Passenger(i).Total(); ok {
			totals = append(totals, v)
		}
	}
	if len(totals) == 0 {
		return
	}
	sort.Float64s(totals)
	d.seasonP25 = stat.Quantile(seasonLowQuantile, stat.Empirical, totals, nil)
	d.seasonP75 = stat.Quantile(seasonHighQuantile, stat.Empirical, totals, nil)
	d.seasonUsable = true
}

// growth buckets the record's country by its year-over-year total change.
// False when the prior year has no usable data, so first-year records match
// no growth facet.
func (d *derivedIndex) growth(p dataset.PassengerMonth) (GrowthCategory, bool) {
	byYear, ok := d.growthMemo[p.CountryCode]
	if !ok {
		byYear = make(map[int]growthEntry)
		d.growthMemo[p.CountryCode] = byYear
	}
	if e, ok := byYear[p.Year]; ok {
		return e.category, e.ok
	}

	e := d.computeGrowth(p.CountryCode, p.Year)
	byYear[p.Year] = e
	return e.category, e.ok
}

func (d *derivedIndex) computeGrowth(countryCode string, year int) growthEntry {
	current, ok := d.store.YearTotal(countryCode, year)
	if !ok {
		return growthEntry{}
	}
	previous, ok := d.store.YearTotal(countryCode, year-1)
	if !ok || previous <= 0 {
		return growthEntry{}
	}

	changePct := (current - previous) / previous * 100
	switch {
	case changePct < 0:
		return growthEntry{GrowthDeclining, true}
	case changePct < growthStableMaxPct:
		return growthEntry{GrowthStable, true}
	case changePct < growthBoomingMinPct:
		return growthEntry{GrowthGrowing, true}
	default:
		return growthEntry{GrowthBooming, true}
	}
}
