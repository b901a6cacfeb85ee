package filter

// Config names every constant behind the derived facets. The defaults are
// the documented behavior; tests assert the exact boundaries, so changing a
// value here changes bucket membership everywhere it is recomputed.
type Config struct {
	// PeriodWindowMonths bounds the before/after classification: a month is
	// "before" when a holiday falls within the following window months and
	// "after" when one falls within the preceding window months. A month
	// containing a holiday is always "during" (during wins over before,
	// before over after).
	PeriodWindowMonths int

	// BaselineMonths is the number of prior non-holiday months averaged
	// into the trailing baseline for impact classification.
	BaselineMonths int

	// ImpactHighPct and ImpactMediumPct partition non-negative percent
	// change into high (>= high), medium (>= medium), and low buckets.
	// Negative change is always ImpactNegative.
	ImpactHighPct   float64
	ImpactMediumPct float64
}

// DefaultConfig returns the documented derived-facet constants: a one-month
// period window, a three-month baseline, and 15% / 5% impact boundaries.
func DefaultConfig() Config {
	return Config{
		PeriodWindowMonths: 1,
		BaselineMonths:     3,
		ImpactHighPct:      15.0,
		ImpactMediumPct:    5.0,
	}
}

// withDefaults fills unset fields so a zero Config behaves like
// DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PeriodWindowMonths <= 0 {
		c.PeriodWindowMonths = d.PeriodWindowMonths
	}
	if c.BaselineMonths <= 0 {
		c.BaselineMonths = d.BaselineMonths
	}
	if c.ImpactHighPct <= 0 {
		c.ImpactHighPct = d.ImpactHighPct
	}
	if c.ImpactMediumPct <= 0 {
		c.ImpactMediumPct = d.ImpactMediumPct
	}
	return c
}
