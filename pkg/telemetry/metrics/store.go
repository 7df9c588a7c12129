package metrics

import (
	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics tracks metrics for the record store: the in-memory cache,
// the JSONL journal, the downstream feed, and retention cleanup.
//
// Metrics:
//   - ganymede_cache_units: Current units held in the recent-history cache
//   - ganymede_cache_evictions_total: FIFO evictions from the cache
//   - ganymede_journal_appends_total: Journal appends by status
//   - ganymede_journal_pending_lines: Lines parked for retry
//   - ganymede_feed_events_total: Feed events delivered by kind
//   - ganymede_feed_dropped_total: Feed events dropped by kind
//   - ganymede_cleanup_runs_total: Retention cleanup runs
//   - ganymede_cleanup_partitions_removed_total: Journal partitions removed
type StoreMetrics struct {
	cacheUnits        prometheus.Gauge
	cacheEvictions    prometheus.Counter
	journalAppends    *prometheus.CounterVec
	journalPending    prometheus.Gauge
	feedEvents        *prometheus.CounterVec
	feedDropped       *prometheus.CounterVec
	cleanupRuns       prometheus.Counter
	partitionsRemoved prometheus.Counter
}

// NewStoreMetrics creates and registers store metrics with the provided registry.
func NewStoreMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *StoreMetrics {
	sm := &StoreMetrics{
		cacheUnits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "cache_units",
			Help:      "Current number of units held in the recent-history cache",
		}),

		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "cache_evictions_total",
			Help:      "Total number of FIFO evictions from the unit cache",
		}),

		journalAppends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "journal_appends_total",
				Help:      "Total number of journal appends by status",
			},
			[]string{"status"},
		),

		journalPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "journal_pending_lines",
			Help:      "Journal lines parked for retry after a failed append",
		}),

		feedEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "feed_events_total",
				Help:      "Total number of feed events delivered to subscribers",
			},
			[]string{"kind"},
		),

		feedDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "feed_dropped_total",
				Help:      "Total number of feed events dropped on full subscriber channels",
			},
			[]string{"kind"},
		),

		cleanupRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "cleanup_runs_total",
			Help:      "Total number of retention cleanup runs",
		}),

		partitionsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "cleanup_partitions_removed_total",
			Help:      "Total number of journal partitions removed by cleanup",
		}),
	}

	registry.MustRegister(
		sm.cacheUnits,
		sm.cacheEvictions,
		sm.journalAppends,
		sm.journalPending,
		sm.feedEvents,
		sm.feedDropped,
		sm.cleanupRuns,
		sm.partitionsRemoved,
	)

	return sm
}

// UpdateCacheSize updates the cache size gauge.
func (sm *StoreMetrics) UpdateCacheSize(size int) {
	sm.cacheUnits.Set(float64(size))
}

// RecordEviction records a FIFO cache eviction.
func (sm *StoreMetrics) RecordEviction() {
	sm.cacheEvictions.Inc()
}

// RecordAppend records a journal append outcome.
func (sm *StoreMetrics) RecordAppend(status string) {
	sm.journalAppends.WithLabelValues(status).Inc()
}

// UpdatePending updates the pending-lines gauge.
func (sm *StoreMetrics) UpdatePending(pending int) {
	sm.journalPending.Set(float64(pending))
}

// RecordFeedEvent records a delivered feed event.
func (sm *StoreMetrics) RecordFeedEvent(kind string) {
	sm.feedEvents.WithLabelValues(kind).Inc()
}

// RecordFeedDrop records a dropped feed event.
func (sm *StoreMetrics) RecordFeedDrop(kind string) {
	sm.feedDropped.WithLabelValues(kind).Inc()
}

// RecordCleanup records a cleanup run and the partitions it removed.
func (sm *StoreMetrics) RecordCleanup(removed int) {
	sm.cleanupRuns.Inc()
	if removed > 0 {
		sm.partitionsRemoved.Add(float64(removed))
	}
}
