package filter

import (
	"testing"

	"github.com/feriadolabs/feriado/dataset"
)

func derivedWith(store *dataset.Store) *derivedIndex {
	return newDerivedIndex(store, DefaultConfig())
}

func TestDerivedIndex_Period(t *testing.T) {
	store := dataset.NewStore(
		[]dataset.Holiday{hol("PAN", 2018, 6, 15, dataset.HolidayPublic, "Corpus Christi")},
		seriesPM(t, "PAN", 2018, 3, 9, 1000),
		testCountries(),
	)
	d := derivedWith(store)

	tests := []struct {
		name   string
		month  int
		want   Period
		wantOK bool
	}{
		{"two months before is outside the window", 4, "", false},
		{"month before", 5, PeriodBefore, true},
		{"holiday month", 6, PeriodDuring, true},
		{"month after", 7, PeriodAfter, true},
		{"two months after is outside the window", 8, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := store.PassengerAt("PAN", 2018, tt.month)
			if !ok {
				t.Fatalf("fixture missing PAN 2018-%02d", tt.month)
			}
			got, gotOK := d.period(p)
			if gotOK != tt.wantOK {
				t.Fatalf("period ok = %v, want %v", gotOK, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("period = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDerivedIndex_Period_DuringWinsOverNeighbors(t *testing.T) {
	store := dataset.NewStore(
		[]dataset.Holiday{
			hol("PAN", 2018, 6, 15, dataset.HolidayPublic, "Corpus Christi"),
			hol("PAN", 2018, 7, 1, dataset.HolidayPublic, "Half-Year Day"),
		},
		seriesPM(t, "PAN", 2018, 5, 8, 1000),
		testCountries(),
	)
	d := derivedWith(store)

	june, _ := store.PassengerAt("PAN", 2018, 6)
	if got, ok := d.period(june); !ok || got != PeriodDuring {
		t.Errorf("june = (%q, %v), want during", got, ok)
	}
	may, _ := store.PassengerAt("PAN", 2018, 5)
	if got, ok := d.period(may); !ok || got != PeriodBefore {
		t.Errorf("may = (%q, %v), want before", got, ok)
	}
	august, _ := store.PassengerAt("PAN", 2018, 8)
	if got, ok := d.period(august); !ok || got != PeriodAfter {
		t.Errorf("august = (%q, %v), want after", got, ok)
	}
}

func TestDerivedIndex_Period_UpcomingWinsTie(t *testing.T) {
	store := dataset.NewStore(
		[]dataset.Holiday{
			hol("PAN", 2018, 4, 1, dataset.HolidayPublic, "April Fiesta"),
			hol("PAN", 2018, 8, 1, dataset.HolidayPublic, "August Fiesta"),
		},
		seriesPM(t, "PAN", 2018, 4, 8, 1000),
		testCountries(),
	)
	cfg := DefaultConfig()
	cfg.PeriodWindowMonths = 2
	d := newDerivedIndex(store, cfg)

	// June sits two months from both holidays; the upcoming one decides.
	june, _ := store.PassengerAt("PAN", 2018, 6)
	got, ok := d.period(june)
	if !ok || got != PeriodBefore {
		t.Errorf("june = (%q, %v), want before", got, ok)
	}
}

func TestDerivedIndex_Period_YearBoundary(t *testing.T) {
	store := dataset.NewStore(
		[]dataset.Holiday{hol("PAN", 2019, 1, 1, dataset.HolidayPublic, "New Year's Day")},
		[]dataset.PassengerMonth{pm(t, "PAN", 2018, 12, 1000)},
		testCountries(),
	)
	d := derivedWith(store)

	december, _ := store.PassengerAt("PAN", 2018, 12)
	got, ok := d.period(december)
	if !ok || got != PeriodBefore {
		t.Errorf("december = (%q, %v), want before", got, ok)
	}
}

func impactStore(t *testing.T, juneTotal float64) *dataset.Store {
	t.Helper()
	passengers := []dataset.PassengerMonth{
		pm(t, "PAN", 2018, 3, 1000),
		pm(t, "PAN", 2018, 4, 1000),
		pm(t, "PAN", 2018, 5, 1000),
		pm(t, "PAN", 2018, 6, juneTotal),
	}
	return dataset.NewStore(
		[]dataset.Holiday{hol("PAN", 2018, 6, 15, dataset.HolidayPublic, "Corpus Christi")},
		passengers,
		testCountries(),
	)
}

func TestDerivedIndex_Impact_Boundaries(t *testing.T) {
	// Baseline is the mean of March through May, all 1000.
	tests := []struct {
		name      string
		juneTotal float64
		want      Impact
	}{
		{"exactly high threshold", 1150, ImpactHigh},
		{"just under high", 1149, ImpactMedium},
		{"exactly medium threshold", 1050, ImpactMedium},
		{"just under medium", 1049, ImpactLow},
		{"flat", 1000, ImpactLow},
		{"below baseline", 999, ImpactNegative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := impactStore(t, tt.juneTotal)
			d := derivedWith(store)
			june, _ := store.PassengerAt("PAN", 2018, 6)
			got, ok := d.impact(june)
			if !ok {
				t.Fatal("impact not classified")
			}
			if got != tt.want {
				t.Errorf("impact = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDerivedIndex_Impact_NonHolidayMonthUnclassified(t *testing.T) {
	store := impactStore(t, 1150)
	d := derivedWith(store)

	may, _ := store.PassengerAt("PAN", 2018, 5)
	if _, ok := d.impact(may); ok {
		t.Error("non-holiday month must not carry an impact level")
	}
}

func TestDerivedIndex_Impact_NoBaseline(t *testing.T) {
	store := dataset.NewStore(
		[]dataset.Holiday{hol("PAN", 2018, 6, 15, dataset.HolidayPublic, "Corpus Christi")},
		[]dataset.PassengerMonth{pm(t, "PAN", 2018, 6, 1500)},
		testCountries(),
	)
	d := derivedWith(store)

	june, _ := store.PassengerAt("PAN", 2018, 6)
	if _, ok := d.impact(june); ok {
		t.Error("impact classified with no prior data to baseline against")
	}
}

func TestDerivedIndex_Impact_BaselineSkipsHolidayMonths(t *testing.T) {
	// May is itself a holiday month with an outlier total; the June baseline
	// must step over it to February through April.
	passengers := []dataset.PassengerMonth{
		pm(t, "PAN", 2018, 2, 1000),
		pm(t, "PAN", 2018, 3, 1000),
		pm(t, "PAN", 2018, 4, 1000),
		pm(t, "PAN", 2018, 5, 9999),
		pm(t, "PAN", 2018, 6, 1100),
	}
	store := dataset.NewStore(
		[]dataset.Holiday{
			hol("PAN", 2018, 5, 1, dataset.HolidayPublic, "Labour Day"),
			hol("PAN", 2018, 6, 15, dataset.HolidayPublic, "Corpus Christi"),
		},
		passengers,
		testCountries(),
	)
	d := derivedWith(store)

	june, _ := store.PassengerAt("PAN", 2018, 6)
	got, ok := d.impact(june)
	if !ok {
		t.Fatal("impact not classified")
	}
	if got != ImpactMedium {
		t.Errorf("impact = %q, want %q (baseline contaminated by holiday month?)", got, ImpactMedium)
	}
}

func TestDerivedIndex_Impact_BaselineToleratesGaps(t *testing.T) {
	// April has no record. It still consumes a baseline slot; the mean is
	// taken over the months that do have data.
	passengers := []dataset.PassengerMonth{
		pm(t, "PAN", 2018, 3, 1000),
		pm(t, "PAN", 2018, 5, 1000),
		pm(t, "PAN", 2018, 6, 1150),
	}
	store := dataset.NewStore(
		[]dataset.Holiday{hol("PAN", 2018, 6, 15, dataset.HolidayPublic, "Corpus Christi")},
		passengers,
		testCountries(),
	)
	d := derivedWith(store)

	june, _ := store.PassengerAt("PAN", 2018, 6)
	got, ok := d.impact(june)
	if !ok {
		t.Fatal("impact not classified")
	}
	if got != ImpactHigh {
		t.Errorf("impact = %q, want %q", got, ImpactHigh)
	}
}

func TestDerivedIndex_Pattern_Shapes(t *testing.T) {
	tests := []struct {
		name            string
		may, june, july float64
		want            Pattern
	}{
		{"rise then fall", 800, 1200, 900, PatternPeak},
		{"rise then rise", 800, 1200, 1300, PatternLeadIn},
		{"rise then flat", 800, 1200, 1200, PatternLeadIn},
		{"fall then rise", 1200, 800, 1000, PatternRebound},
		{"fall then fall", 1200, 1000, 900, PatternNone},
		{"flat", 1000, 1000, 1000, PatternNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passengers := []dataset.PassengerMonth{
				pm(t, "PAN", 2018, 5, tt.may),
				pm(t, "PAN", 2018, 6, tt.june),
				pm(t, "PAN", 2018, 7, tt.july),
			}
			store := dataset.NewStore(
				[]dataset.Holiday{hol("PAN", 2018, 6, 15, dataset.HolidayPublic, "Corpus Christi")},
				passengers,
				testCountries(),
			)
			d := derivedWith(store)

			june, _ := store.PassengerAt("PAN", 2018, 6)
			got, ok := d.pattern(june)
			if !ok {
				t.Fatal("pattern not classified")
			}
			if got != tt.want {
				t.Errorf("pattern = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDerivedIndex_Pattern_MissingNeighborIsNone(t *testing.T) {
	store := dataset.NewStore(
		[]dataset.Holiday{hol("PAN", 2018, 6, 15, dataset.HolidayPublic, "Corpus Christi")},
		[]dataset.PassengerMonth{
			pm(t, "PAN", 2018, 6, 1200),
			pm(t, "PAN", 2018, 7, 900),
		},
		testCountries(),
	)
	d := derivedWith(store)

	june, _ := store.PassengerAt("PAN", 2018, 6)
	got, ok := d.pattern(june)
	if !ok {
		t.Fatal("holiday month must classify even with gaps")
	}
	if got != PatternNone {
		t.Errorf("pattern = %q, want %q", got, PatternNone)
	}
}

func TestDerivedIndex_Pattern_NonHolidayMonthUnclassified(t *testing.T) {
	store := dataset.NewStore(
		[]dataset.Holiday{hol("PAN", 2018, 6, 15, dataset.HolidayPublic, "Corpus Christi")},
		seriesPM(t, "PAN", 2018, 3, 9, 1000),
		testCountries(),
	)
	d := derivedWith(store)

	april, _ := store.PassengerAt("PAN", 2018, 4)
	if _, ok := d.pattern(april); ok {
		t.Error("non-holiday month must not carry a temporal pattern")
	}
}

func TestDerivedIndex_Season_QuartileBuckets(t *testing.T) {
	// Eight usable totals 10..80: P25 = 20 and P75 = 60, so only 10 is low
	// and only 70 and 80 are high.
	passengers := make([]dataset.PassengerMonth, 0, 9)
	for m := 1; m <= 8; m++ {
		passengers = append(passengers, pm(t, "PAN", 2018, m, float64(m)*10))
	}
	passengers = append(passengers, pmEmpty(t, "PAN", 2018, 9))
	store := dataset.NewStore(nil, passengers, testCountries())
	d := derivedWith(store)

	tests := []struct {
		month int
		want  Season
	}{
		{1, SeasonLow},
		{2, SeasonMid},
		{5, SeasonMid},
		{6, SeasonMid},
		{7, SeasonHigh},
		{8, SeasonHigh},
	}
	for _, tt := range tests {
		p, _ := store.PassengerAt("PAN", 2018, tt.month)
		got, ok := d.season(p)
		if !ok {
			t.Fatalf("month %d: season not classified", tt.month)
		}
		if got != tt.want {
			t.Errorf("month %d: season = %q, want %q", tt.month, got, tt.want)
		}
	}

	september, _ := store.PassengerAt("PAN", 2018, 9)
	if _, ok := d.season(september); ok {
		t.Error("record without a usable total must not carry a season")
	}
}

func TestDerivedIndex_Growth(t *testing.T) {
	passengers := []dataset.PassengerMonth{
		pm(t, "PAN", 2018, 6, 1000), pm(t, "PAN", 2019, 6, 900),
		pm(t, "ESP", 2018, 6, 1000), pm(t, "ESP", 2019, 6, 1030),
		pm(t, "JPN", 2018, 6, 1000), pm(t, "JPN", 2019, 6, 1100),
		pm(t, "USA", 2018, 6, 1000), pm(t, "USA", 2019, 6, 1200),
		pm(t, "MEX", 2018, 6, 1000), pm(t, "MEX", 2019, 6, 1000),
		pm(t, "BRA", 2018, 6, 1000), pm(t, "BRA", 2019, 6, 1050),
		pm(t, "ARG", 2018, 6, 1000), pm(t, "ARG", 2019, 6, 1150),
	}
	store := dataset.NewStore(nil, passengers, testCountries())
	d := derivedWith(store)

	tests := []struct {
		name    string
		country string
		want    GrowthCategory
	}{
		{"shrinking market", "PAN", GrowthDeclining},
		{"modest growth", "ESP", GrowthStable},
		{"solid growth", "JPN", GrowthGrowing},
		{"surging market", "USA", GrowthBooming},
		{"exactly flat", "MEX", GrowthStable},
		{"exactly stable boundary", "BRA", GrowthGrowing},
		{"exactly growing boundary", "ARG", GrowthBooming},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := store.PassengerAt(tt.country, 2019, 6)
			got, ok := d.growth(p)
			if !ok {
				t.Fatal("growth not classified")
			}
			if got != tt.want {
				t.Errorf("growth = %q, want %q", got, tt.want)
			}
		})
	}

	firstYear, _ := store.PassengerAt("PAN", 2018, 6)
	if _, ok := d.growth(firstYear); ok {
		t.Error("first observed year must not carry a growth category")
	}
}
