package metrics

import (
	"fmt"
	"sync"

	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for all Prometheus metrics in the
// telemetry engine. It manages metric registration and provides a unified
// interface for recording metrics across all components.
//
// Every recording method is safe on a nil receiver and checks the
// Enabled flag first, so an absent or disabled collector can be wired
// through the engine unconditionally.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Unit ingestion metrics
	unitMetrics *UnitMetrics

	// Store and journal metrics
	storeMetrics *StoreMetrics

	// Drift analysis metrics
	driftMetrics *DriftMetrics

	// Cardinality tracking for caller-supplied labels
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a private
// registry is created; the engine never touches the global default
// registry, so embedding applications keep full control of their
// exposition surface.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = "ganymede"
	}
	if len(cfg.DurationBuckets) == 0 {
		// Optimized for agent stage latencies (100ms - 30s)
		cfg.DurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}
	}
	if len(cfg.TokenBuckets) == 0 {
		// Optimized for token counts (100 - 100K tokens)
		cfg.TokenBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000}
	}
	if len(cfg.CostBuckets) == 0 {
		cfg.CostBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	// Initialize metric subsystems
	c.unitMetrics = NewUnitMetrics(cfg, registry)
	c.storeMetrics = NewStoreMetrics(cfg, registry)
	c.driftMetrics = NewDriftMetrics(cfg, registry)

	return c
}

// RecordUnit records metrics for a finalized pipeline unit.
//
// Parameters:
//   - strategy: pipeline strategy label (caller-supplied, cardinality capped)
//   - status: "success" or "failure"
//   - durationSeconds: wall-clock unit duration
//   - tokens: total token count across stages
//   - cost: total unit cost in USD
func (c *Collector) RecordUnit(strategy, status string, durationSeconds float64, tokens int, cost float64) {
	if c == nil || !c.config.Enabled {
		return
	}

	// Strategy labels come from callers, so cap their cardinality and
	// fold the overflow into "other".
	labelSet := fmt.Sprintf("unit:%s", strategy)
	if !c.cardinalityLimiter.Allow(labelSet) {
		strategy = "other"
	}

	c.unitMetrics.RecordUnit(strategy, status, durationSeconds, tokens, cost)
}

// RecordStage records metrics for a single pipeline stage outcome.
func (c *Collector) RecordStage(stage, status string, durationSeconds float64) {
	if c == nil || !c.config.Enabled {
		return
	}

	labelSet := fmt.Sprintf("stage:%s", stage)
	if !c.cardinalityLimiter.Allow(labelSet) {
		stage = "other"
	}

	c.unitMetrics.RecordStage(stage, status, durationSeconds)
}

// UpdateCacheSize updates the current number of units held in the
// in-memory cache.
func (c *Collector) UpdateCacheSize(size int) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.storeMetrics.UpdateCacheSize(size)
}

// RecordCacheEviction records a FIFO eviction from the unit cache.
func (c *Collector) RecordCacheEviction() {
	if c == nil || !c.config.Enabled {
		return
	}
	c.storeMetrics.RecordEviction()
}

// RecordJournalAppend records the outcome of a journal append.
//
// Parameters:
//   - status: "ok", "retried", or "failed"
func (c *Collector) RecordJournalAppend(status string) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.storeMetrics.RecordAppend(status)
}

// UpdateJournalPending updates the number of journal lines parked for
// retry after a failed append.
func (c *Collector) UpdateJournalPending(pending int) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.storeMetrics.UpdatePending(pending)
}

// RecordFeedEvent records delivery of a feed event to a subscriber.
func (c *Collector) RecordFeedEvent(kind string) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.storeMetrics.RecordFeedEvent(kind)
}

// RecordFeedDrop records a feed event dropped because a subscriber
// channel was full.
func (c *Collector) RecordFeedDrop(kind string) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.storeMetrics.RecordFeedDrop(kind)
}

// RecordCleanup records a retention cleanup run and the number of
// journal partitions it removed.
func (c *Collector) RecordCleanup(removed int) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.storeMetrics.RecordCleanup(removed)
}

// RecordAnalysis records a completed drift analysis cycle.
//
// Parameters:
//   - severity: report severity ("none" through "critical")
func (c *Collector) RecordAnalysis(severity string) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.driftMetrics.RecordAnalysis(severity)
}

// RecordDriftDetected records that a specific metric distribution
// drifted in an analysis cycle.
//
// Parameters:
//   - metric: "duration", "tokens", or "cost"
func (c *Collector) RecordDriftDetected(metric string) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.driftMetrics.RecordDrift(metric)
}

// UpdateKSStatistic updates the last observed KS statistic for a metric
// distribution.
func (c *Collector) UpdateKSStatistic(metric string, statistic float64) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.driftMetrics.UpdateKSStatistic(metric, statistic)
}

// UpdateEntropyChange updates the last observed entropy change fraction
// for a text dimension ("char" or "word").
func (c *Collector) UpdateEntropyChange(kind string, change float64) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.driftMetrics.UpdateEntropyChange(kind, change)
}

// UpdateBaseline updates the active baseline version and sample count
// gauges.
func (c *Collector) UpdateBaseline(version, samples int) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.driftMetrics.UpdateBaseline(version, samples)
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric. Strategy and stage
// names are chosen by instrumented pipelines, not by this engine.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
