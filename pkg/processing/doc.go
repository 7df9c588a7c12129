// Package processing provides metric backfill for recorded pipeline stages.
//
// Stages arrive with whatever instrumentation the caller has: some carry
// real token counts and costs, some carry only text. The sub-packages
// fill the gaps so every finalized unit has a complete, comparable set
// of metrics:
//
//   - tokens: character-based token estimation with model-specific ratios
//   - costs: cost derivation from per-model token pricing
//
// Both are consulted by the recorder during stage assembly and never
// overwrite values the caller supplied. Estimated values are flagged on
// the stage record so downstream analysis can tell them apart.
package processing
