package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Confidence expresses how strongly a KS result supports the drift flag.
type Confidence string

const (
	// ConfidenceLow means the statistic stayed below the 95% critical value.
	ConfidenceLow Confidence = "low"
	// ConfidenceMedium means the statistic exceeded the 95% critical value.
	ConfidenceMedium Confidence = "medium"
	// ConfidenceHigh means the statistic exceeded the 99% critical value.
	ConfidenceHigh Confidence = "high"
)

// MinKSSamples is the smallest sample size, on either side, for which the
// KS statistic is computed at all.
const MinKSSamples = 2

// Result holds the outcome of a two-sample Kolmogorov-Smirnov test.
//
// CriticalValue is the asymptotic rejection threshold at the 95% level,
// c(0.05)*sqrt((n+m)/(n*m)). The asymptotic form is an approximation for
// small samples; treat Confidence as a band, not an exact p-value.
type Result struct {
	// Statistic is the KS D statistic in [0,1]: the maximum absolute
	// difference between the two empirical CDFs.
	Statistic float64 `json:"statistic"`

	// CriticalValue is the 95% rejection threshold for the given sizes.
	CriticalValue float64 `json:"critical_value"`

	// EffectiveN is the effective sample size n*m/(n+m).
	EffectiveN float64 `json:"effective_n"`

	// Confidence is the band the statistic falls in (low/medium/high).
	Confidence Confidence `json:"confidence"`

	// Drift is true when Statistic exceeds CriticalValue.
	Drift bool `json:"drift"`

	// InsufficientData is true when either sample was smaller than
	// MinKSSamples; no statistic was computed in that case.
	InsufficientData bool `json:"insufficient_data"`
}

// KolmogorovSmirnov runs a two-sample KS test between a and b.
//
// The statistic is symmetric: KolmogorovSmirnov(a, b) and
// KolmogorovSmirnov(b, a) report the same D. Input slices are not
// modified; sorting happens on copies.
func KolmogorovSmirnov(a, b []float64) Result {
	if len(a) < MinKSSamples || len(b) < MinKSSamples {
		return Result{Confidence: ConfidenceLow, InsufficientData: true}
	}

	as := make([]float64, len(a))
	copy(as, a)
	sort.Float64s(as)

	bs := make([]float64, len(b))
	copy(bs, b)
	sort.Float64s(bs)

	d := stat.KolmogorovSmirnov(as, nil, bs, nil)

	n := float64(len(a))
	m := float64(len(b))
	crit95 := ksCritical(0.05, n, m)
	crit99 := ksCritical(0.01, n, m)

	res := Result{
		Statistic:     d,
		CriticalValue: crit95,
		EffectiveN:    n * m / (n + m),
		Confidence:    ConfidenceLow,
		Drift:         d > crit95,
	}
	switch {
	case d > crit99:
		res.Confidence = ConfidenceHigh
	case d > crit95:
		res.Confidence = ConfidenceMedium
	}
	return res
}

// ksCritical returns the asymptotic two-sample critical value at the given
// significance level: c(alpha)*sqrt((n+m)/(n*m)) with
// c(alpha) = sqrt(-ln(alpha/2)/2). For alpha=0.05 the coefficient is
// approximately 1.358, for alpha=0.01 approximately 1.628.
func ksCritical(alpha, n, m float64) float64 {
	c := math.Sqrt(-0.5 * math.Log(alpha/2))
	return c * math.Sqrt((n+m)/(n*m))
}
