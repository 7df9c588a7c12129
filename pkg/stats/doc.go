// Package stats provides the statistical primitives used for drift
// detection: Shannon entropy over text samples and the two-sample
// Kolmogorov-Smirnov test, plus small descriptive helpers.
//
// All functions are pure and safe for concurrent use. Entropy is reported
// in bits (log base 2). The KS test reports the D statistic together with
// the asymptotic critical values at the 95% and 99% levels; callers decide
// what to do with a drift flag, this package only measures.
//
// # Basic Usage
//
//	h := stats.CharEntropy([]string{"the quick brown fox"})
//
//	res := stats.KolmogorovSmirnov(baseline, current)
//	if res.Drift {
//		// distributions differ at the 95% level
//	}
//
// The critical values use the asymptotic approximation
// c(alpha) * sqrt((n+m)/(n*m)); for very small samples this is an
// approximation, not an exact p-value. See the Result documentation.
package stats
