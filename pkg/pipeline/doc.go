// Package pipeline defines the telemetry model for multi-stage agent
// pipelines: per-stage and per-unit metric records, versioned statistical
// baselines, drift reports, and the error taxonomy shared by the engine's
// subsystems.
//
// # Architecture
//
// The engine is composed of small subsystems layered on these types:
//
//  1. Recorder (pipeline/recorder) - Opens units, appends validated stage
//     outcomes, finalizes exactly once
//  2. Store (pipeline/store) - Bounded recent-history cache plus a durable
//     date-partitioned journal with retention cleanup
//  3. Baseline Manager (pipeline/baseline) - Snapshots historical windows
//     into versioned, immutable baselines
//  4. Drift Detector (pipeline/drift) - Compares recent behavior against
//     the active baseline and classifies severity
//  5. Aggregator (pipeline/summary) - Windowed summaries and drift alerts
//
// # Record Flow
//
//	Pipeline stage completes → StageRecord appended to open UnitRecord
//	     ↓ (finalize: totals recomputed)
//	Store.Record
//	     ↓
//	Cache insert (FIFO, bounded) + journal append (dated partition)
//	     ↓
//	Feed publish (optional downstream sink)
//
// # Units and Stages
//
// A UnitRecord is one end-to-end request; its StageRecords are the ordered
// per-agent executions inside it. Units are open from creation until
// finalized exactly once; stage appends are only accepted while open, and
// every numeric metric field must be non-negative. Finalized units are
// immutable: stores and managers hand out clones, never shared pointers.
//
// # Baselines and Drift
//
// A Baseline freezes the numeric samples (duration/tokens/cost) and
// aggregate text entropy of a historical window. The drift detector
// compares the current window against the active baseline using Shannon
// entropy deltas and two-sample Kolmogorov-Smirnov tests, then classifies
// the result into ordered severities (none < low < medium < high <
// critical). Reports are append-only and bounded.
//
// # Errors
//
// Three error types cover the engine:
//   - ValidationError: malformed records, double finalize; rejected
//     synchronously, nothing partially recorded
//   - StorageError: durable append/read failures; cache stays
//     authoritative and appends are retried
//   - InsufficientDataError: too few samples for a baseline or analysis;
//     recoverable by retrying later
//
// No error is fatal to the process; every failure is scoped to one call.
package pipeline
