package observer

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/pipeline/summary"
)

// Observe ingests a complete unit of work in one call. Every stage
// outcome is validated and backfilled, totals are computed and the
// finalized unit is recorded. It returns the finalized record, or a
// ValidationError if any stage carries a negative numeric field;
// nothing is recorded on failure.
func (o *Observer) Observe(ctx context.Context, input ObserveInput) (*pipeline.UnitRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return o.recorder.Record(input)
}

// StartUnit opens a unit of work for incremental ingestion. Stages are
// appended with AddStage as they complete; the unit becomes visible to
// queries only once Finalize is called.
func (o *Observer) StartUnit(strategy string, attrs map[string]string) *ActiveUnit {
	return o.recorder.StartUnit(strategy, attrs)
}

// Recent returns up to limit most recently finalized units, newest
// first, from the in-memory cache.
func (o *Observer) Recent(limit int) []*pipeline.UnitRecord {
	return o.store.Recent(limit)
}

// Unit returns the cached unit with the given id, or nil if it is not
// in the cache.
func (o *Observer) Unit(id string) (*pipeline.UnitRecord, error) {
	return o.store.Unit(id)
}

// Window returns the units completed in [start, end), oldest first,
// reading through the durable journal. A read failure may return
// partial results alongside the error.
func (o *Observer) Window(start, end time.Time) ([]*pipeline.UnitRecord, error) {
	return o.store.WindowSince(start, end)
}

// Summarize aggregates the units completed in the last hours. A
// non-positive hours uses the default 24-hour window.
func (o *Observer) Summarize(hours int) (*summary.Summary, error) {
	return o.aggregator.Summarize(hours)
}

// Alerts returns the most recent drift reports with severity above
// none, newest first. A non-positive limit returns all of them.
func (o *Observer) Alerts(limit int) []*pipeline.DriftReport {
	return o.aggregator.Alerts(limit)
}

// DriftHistory returns up to limit drift reports, newest first. A
// non-positive limit returns the whole history.
func (o *Observer) DriftHistory(limit int) []*pipeline.DriftReport {
	return o.store.ReportHistory(limit)
}

// SetBaseline establishes a new baseline from the most recent
// sampleCount units and makes it active. A non-positive sampleCount
// uses the configured default. It fails with InsufficientDataError when
// too few units have been recorded.
func (o *Observer) SetBaseline(ctx context.Context, sampleCount int) (*pipeline.Baseline, error) {
	return o.baselines.Establish(ctx, sampleCount)
}

// Baseline returns a copy of the active baseline, or false if none has
// been established.
func (o *Observer) Baseline() (*pipeline.Baseline, bool) {
	return o.baselines.Active()
}

// BaselineHistory returns up to limit persisted baselines, newest
// version first.
func (o *Observer) BaselineHistory(ctx context.Context, limit int) ([]*pipeline.Baseline, error) {
	return o.baselines.History(ctx, limit)
}

// Analyze runs one drift analysis cycle on demand and returns its
// report. Analysis never fails: without an active baseline or enough
// recent units it degrades to a none-severity report. The report is
// also appended to the drift history.
func (o *Observer) Analyze() *pipeline.DriftReport {
	return o.detector.Analyze()
}

// Thresholds returns the severity thresholds currently applied by the
// drift detector.
func (o *Observer) Thresholds() config.ThresholdsConfig {
	return o.detector.Thresholds()
}

// SetThresholds replaces the drift detector's severity thresholds at
// runtime. Zero fields fall back to defaults.
func (o *Observer) SetThresholds(t config.ThresholdsConfig) {
	o.detector.SetThresholds(t)
}

// Subscribe registers a downstream feed subscriber and returns its id
// and channel. The feed delivers every newly recorded unit and drift
// report; events for a subscriber whose buffer is full are dropped,
// never queued.
func (o *Observer) Subscribe(buffer int) (int, <-chan pipeline.Event) {
	return o.store.Subscribe(buffer)
}

// Unsubscribe removes a feed subscriber and closes its channel.
func (o *Observer) Unsubscribe(id int) {
	o.store.Unsubscribe(id)
}

// Flush retries any journal lines parked by earlier disk failures. It
// returns the error of the first line that still cannot be written.
func (o *Observer) Flush() error {
	return o.store.Flush()
}

// Cleanup deletes journal partitions older than retentionDays and
// returns how many were removed. The current day's partition is never
// touched.
func (o *Observer) Cleanup(retentionDays int) (int, error) {
	return o.store.Cleanup(retentionDays)
}

// MetricsHandler returns the Prometheus exposition handler for the
// engine's private registry. Embedding applications mount it wherever
// their metrics surface lives.
func (o *Observer) MetricsHandler() http.Handler {
	return o.collector.Handler()
}

// Registry returns the engine's private Prometheus registry, for hosts
// that gather it into their own exposition.
func (o *Observer) Registry() *prometheus.Registry {
	return o.collector.Registry()
}
