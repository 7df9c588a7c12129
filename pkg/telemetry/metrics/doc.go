// Package metrics provides Prometheus metrics collection for Ganymede.
//
// # Overview
//
// The metrics package implements Prometheus self-instrumentation for the
// telemetry engine: unit and stage ingestion, store and journal health,
// feed delivery, and drift analysis outcomes.
//
// # Metrics Categories
//
//   - Unit Metrics: Finalized unit count, durations, tokens, and costs
//   - Store Metrics: Cache occupancy, journal appends, feed delivery, cleanup
//   - Drift Metrics: Analysis cycles, KS statistics, entropy change, baseline
//
// # Usage
//
//	// Create collector
//	collector := metrics.NewCollector(cfg, registry)
//
//	// Record a finalized unit
//	collector.RecordUnit(
//	    "three_hop",  // strategy
//	    "success",    // status
//	    1.2,          // duration in seconds
//	    1500,         // tokens
//	    0.05,         // cost in USD
//	)
//
//	// Record store activity
//	collector.UpdateCacheSize(87)
//	collector.RecordJournalAppend("ok")
//
//	// Record analysis outcomes
//	collector.RecordAnalysis("high")
//	collector.UpdateKSStatistic("duration", 0.42)
//
// # Cardinality
//
// Strategy and stage labels are supplied by instrumented pipelines, so
// the collector caps their cardinality and folds overflow into "other".
//
// # Prometheus Endpoint
//
// The engine registers everything on a private registry and never runs
// an HTTP server. Embedding applications expose the metrics through
// Collector.Handler or by merging Collector.Registry into their own
// exposition setup.
package metrics
