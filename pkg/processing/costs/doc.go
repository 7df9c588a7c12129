// Package costs provides cost calculation for recorded pipeline stages.
//
// Stages recorded without explicit costs get them backfilled from token
// counts using a per-model pricing table (USD per 1000 tokens). The
// table supports exact and prefix model matching with a "default"
// fallback entry, and can be hot-swapped at runtime.
//
// # Usage
//
//	calculator := costs.NewCalculator(&cfg.Processing.Costs)
//
//	cost := calculator.StageCost(stage.InputTokens, stage.OutputTokens, stage.Model)
//
// Costs computed here are estimates for drift comparison, not billing
// records.
package costs
