// Package recorder is the ingestion boundary of the telemetry engine.
// It turns caller-reported stage outcomes into validated, finalized
// UnitRecords and hands them to the record store.
//
// # Two Ingestion Paths
//
// Live pipelines open a unit before execution and report stages as they
// complete:
//
//	unit := rec.StartUnit("three_hop", map[string]string{"tenant": "acme"})
//	unit.AddStage(recorder.StageOutcome{Stage: "retrieval", DurationMS: 120, Success: true})
//	unit.AddStage(recorder.StageOutcome{Stage: "synthesis", DurationMS: 840, Success: true})
//	record, err := unit.Finalize(true)
//
// Batch callers that already hold a complete execution trace ingest it
// in one call:
//
//	record, err := rec.Record(recorder.UnitInput{
//	    Strategy: "three_hop",
//	    Stages:   outcomes,
//	    Success:  true,
//	})
//
// Both paths apply the same validation and backfill rules; the live path
// derives the unit duration from the wall clock, the one-shot path from
// the sum of stage durations.
//
// # Validation
//
// Negative durations, token counts or costs are rejected with a
// ValidationError before anything is recorded, as is finalizing a unit
// twice or appending a stage after finalization. A rejected call leaves
// no partial state anywhere.
//
// # Backfill
//
// Stages reported without token counts get estimates from their full
// input and output text (before sample truncation) via the configured
// character ratios. Stages reported without a cost get one computed from
// the token counts and the pricing table. Caller-supplied non-zero
// values are never overwritten.
package recorder
