// Package tokens provides token estimation for recorded pipeline stages.
//
// This package implements a character-based token estimator with
// model-specific ratios. Stages recorded without explicit token counts
// get estimates derived from their text samples, so that token
// distributions remain comparable across units even when some pipelines
// are only partially instrumented.
//
// # Estimation Accuracy
//
// Character-based estimation with a per-model ratio achieves roughly
// <5% error for English prose:
//
//   - GPT family: ~4 characters per token
//   - Claude family: ~3.5 characters per token
//
// Ratios are configured per model (exact or prefix match) with a global
// fallback.
//
// # Usage
//
//	estimator := tokens.NewEstimator(&cfg.Processing.Tokens)
//
//	in, out := estimator.EstimatePair(stage.InputSample, stage.OutputSample, stage.Model)
//
// Estimates are a floor for comparability, not billing-grade counts.
package tokens
