// Package store is the record store for finalized units and drift
// reports: a bounded in-memory cache in front of a date-partitioned
// append-only journal.
//
// # Layout
//
// The journal lives under the configured data directory as one JSONL
// file per UTC calendar day, named metrics_YYYYMMDD.jsonl. Every line is
// an independently parseable envelope:
//
//	{"type":"unit_record","timestamp":"2026-08-23T10:15:00Z","data":{...}}
//
// Corrupt lines are skipped on read with a logged warning, so one bad
// write never hides a day of records.
//
// # Durability Model
//
// Ingestion writes to the cache first and the journal second. A failed
// append parks the encoded line for retry on the next write; the caller
// is never blocked or failed by the disk. Parked lines surface through
// Flush, which reports a StorageError while any remain. The cache stays
// authoritative for everything it holds, and WindowSince merges it over
// the journal so degraded-durability windows stay complete.
//
// # Retention
//
// Cleanup removes partitions strictly older than the retention period.
// It never touches the current day's partition or the cache. A
// CleanupScheduler can run it on a cron expression.
//
// # Feed
//
// Subscribe attaches a buffered channel that receives every newly
// recorded unit and report as a pipeline.Event. Delivery never blocks
// the producer: events for a full subscriber are dropped and counted.
package store
