package metrics

import (
	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// UnitMetrics tracks metrics related to pipeline unit ingestion.
//
// Metrics:
//   - ganymede_units_total: Total finalized units by strategy, status
//   - ganymede_unit_duration_seconds: Unit duration histogram
//   - ganymede_unit_tokens: Unit token count histogram
//   - ganymede_unit_cost_usd: Unit cost histogram
//   - ganymede_stages_total: Total stage outcomes by stage, status
//   - ganymede_stage_duration_seconds: Stage duration histogram
type UnitMetrics struct {
	// Total finalized unit count
	unitsTotal *prometheus.CounterVec

	// Unit duration histogram
	unitDuration *prometheus.HistogramVec

	// Unit token count histogram
	unitTokens *prometheus.HistogramVec

	// Unit cost histogram
	unitCost *prometheus.HistogramVec

	// Total stage outcome count
	stagesTotal *prometheus.CounterVec

	// Stage duration histogram
	stageDuration *prometheus.HistogramVec
}

// NewUnitMetrics creates and registers unit metrics with the provided registry.
func NewUnitMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UnitMetrics {
	um := &UnitMetrics{
		unitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "units_total",
				Help:      "Total number of finalized pipeline units",
			},
			[]string{"strategy", "status"},
		),

		unitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "unit_duration_seconds",
				Help:      "Wall-clock duration of pipeline units in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"strategy"},
		),

		unitTokens: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "unit_tokens",
				Help:      "Total token count per pipeline unit",
				Buckets:   cfg.TokenBuckets,
			},
			[]string{"strategy"},
		),

		unitCost: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "unit_cost_usd",
				Help:      "Total cost per pipeline unit in USD",
				Buckets:   cfg.CostBuckets,
			},
			[]string{"strategy"},
		),

		stagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "stages_total",
				Help:      "Total number of recorded stage outcomes",
			},
			[]string{"stage", "status"},
		),

		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"stage"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		um.unitsTotal,
		um.unitDuration,
		um.unitTokens,
		um.unitCost,
		um.stagesTotal,
		um.stageDuration,
	)

	return um
}

// RecordUnit records metrics for a finalized unit.
func (um *UnitMetrics) RecordUnit(strategy, status string, durationSeconds float64, tokens int, cost float64) {
	um.unitsTotal.WithLabelValues(strategy, status).Inc()
	um.unitDuration.WithLabelValues(strategy).Observe(durationSeconds)

	if tokens > 0 {
		um.unitTokens.WithLabelValues(strategy).Observe(float64(tokens))
	}
	if cost > 0 {
		um.unitCost.WithLabelValues(strategy).Observe(cost)
	}
}

// RecordStage records metrics for a single stage outcome.
func (um *UnitMetrics) RecordStage(stage, status string, durationSeconds float64) {
	um.stagesTotal.WithLabelValues(stage, status).Inc()
	um.stageDuration.WithLabelValues(stage).Observe(durationSeconds)
}
