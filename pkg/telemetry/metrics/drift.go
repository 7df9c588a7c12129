package metrics

import (
	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DriftMetrics tracks metrics for drift analysis and baseline management.
//
// Metrics:
//   - ganymede_analyses_total: Analysis cycles by severity
//   - ganymede_drift_detected_total: Distribution drift detections by metric
//   - ganymede_ks_statistic: Last KS statistic by metric
//   - ganymede_entropy_change: Last entropy change fraction by kind
//   - ganymede_baseline_version: Active baseline version
//   - ganymede_baseline_samples: Active baseline sample count
type DriftMetrics struct {
	analysesTotal   *prometheus.CounterVec
	driftDetected   *prometheus.CounterVec
	ksStatistic     *prometheus.GaugeVec
	entropyChange   *prometheus.GaugeVec
	baselineVersion prometheus.Gauge
	baselineSamples prometheus.Gauge
}

// NewDriftMetrics creates and registers drift metrics with the provided registry.
func NewDriftMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DriftMetrics {
	dm := &DriftMetrics{
		analysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "analyses_total",
				Help:      "Total number of drift analysis cycles by severity",
			},
			[]string{"severity"},
		),

		driftDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "drift_detected_total",
				Help:      "Total number of distribution drift detections by metric",
			},
			[]string{"metric"},
		),

		ksStatistic: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "ks_statistic",
				Help:      "Kolmogorov-Smirnov statistic from the last analysis by metric",
			},
			[]string{"metric"},
		),

		entropyChange: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "entropy_change",
				Help:      "Entropy change fraction from the last analysis by kind",
			},
			[]string{"kind"},
		),

		baselineVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "baseline_version",
			Help:      "Version number of the active baseline",
		}),

		baselineSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "baseline_samples",
			Help:      "Sample count of the active baseline",
		}),
	}

	registry.MustRegister(
		dm.analysesTotal,
		dm.driftDetected,
		dm.ksStatistic,
		dm.entropyChange,
		dm.baselineVersion,
		dm.baselineSamples,
	)

	return dm
}

// RecordAnalysis records a completed analysis cycle.
func (dm *DriftMetrics) RecordAnalysis(severity string) {
	dm.analysesTotal.WithLabelValues(severity).Inc()
}

// RecordDrift records a drift detection for one metric distribution.
func (dm *DriftMetrics) RecordDrift(metric string) {
	dm.driftDetected.WithLabelValues(metric).Inc()
}

// UpdateKSStatistic updates the last KS statistic gauge for a metric.
func (dm *DriftMetrics) UpdateKSStatistic(metric string, statistic float64) {
	dm.ksStatistic.WithLabelValues(metric).Set(statistic)
}

// UpdateEntropyChange updates the last entropy change gauge for a kind.
func (dm *DriftMetrics) UpdateEntropyChange(kind string, change float64) {
	dm.entropyChange.WithLabelValues(kind).Set(change)
}

// UpdateBaseline updates the baseline version and sample gauges.
func (dm *DriftMetrics) UpdateBaseline(version, samples int) {
	dm.baselineVersion.Set(float64(version))
	dm.baselineSamples.Set(float64(samples))
}
