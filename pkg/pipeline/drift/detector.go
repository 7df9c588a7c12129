package drift

import (
	"fmt"
	"math"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/stats"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// insufficientDataIndicator is the single indicator attached to a report
// when no baseline exists or the current window is too small.
const insufficientDataIndicator = "insufficient data for analysis"

// Store is the slice of the record store the detector reads the current
// window from and writes reports back to.
type Store interface {
	// Recent returns up to limit most recently recorded units, newest first.
	Recent(limit int) []*pipeline.UnitRecord

	// RecordReport appends a drift report to the report history.
	RecordReport(report *pipeline.DriftReport) error
}

// Baselines hands out the active baseline snapshot.
type Baselines interface {
	Active() (*pipeline.Baseline, bool)
}

// Detector compares the most recent window of units against the active
// baseline: entropy deltas over text samples and a two-sample KS test
// per numeric metric, classified into an overall severity. Every
// analysis cycle produces a report, including degraded cycles where no
// statistics could be computed.
type Detector struct {
	config    config.DriftConfig
	store     Store
	baselines Baselines
	collector *metrics.Collector
	logger    *logging.Logger

	mu         sync.RWMutex
	thresholds config.ThresholdsConfig
}

// NewDetector creates a detector reading from store and comparing
// against baselines. The collector may be nil; store and baselines must
// not be.
func NewDetector(cfg config.DriftConfig, store Store, baselines Baselines, collector *metrics.Collector, logger *logging.Logger) *Detector {
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = config.DefaultDriftWindowSize
	}
	if cfg.MinWindow <= 0 {
		cfg.MinWindow = config.DefaultDriftMinWindow
	}
	applyThresholdDefaults(&cfg.Thresholds)

	return &Detector{
		config:     cfg,
		store:      store,
		baselines:  baselines,
		collector:  collector,
		logger:     logger.Component("drift"),
		thresholds: cfg.Thresholds,
	}
}

func applyThresholdDefaults(t *config.ThresholdsConfig) {
	if t.EntropyLow <= 0 {
		t.EntropyLow = config.DefaultDriftEntropyLow
	}
	if t.EntropyMedium <= 0 {
		t.EntropyMedium = config.DefaultDriftEntropyMedium
	}
	if t.EntropyHigh <= 0 {
		t.EntropyHigh = config.DefaultDriftEntropyHigh
	}
	if t.KSCritical <= 0 {
		t.KSCritical = config.DefaultDriftKSCritical
	}
}

// Thresholds returns the severity thresholds currently in effect.
func (d *Detector) Thresholds() config.ThresholdsConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.thresholds
}

// SetThresholds swaps the severity thresholds. Zero-valued fields fall
// back to defaults. The next analysis cycle picks the new values up.
func (d *Detector) SetThresholds(t config.ThresholdsConfig) {
	applyThresholdDefaults(&t)

	d.mu.Lock()
	d.thresholds = t
	d.mu.Unlock()

	d.logger.Info("drift thresholds updated",
		"entropy_low", t.EntropyLow,
		"entropy_medium", t.EntropyMedium,
		"entropy_high", t.EntropyHigh,
		"ks_critical", t.KSCritical)
}

// Analyze runs one analysis cycle and appends the resulting report to
// the report history. Without an active baseline, or with fewer than
// MinWindow recent units, the cycle degrades to a none-severity report
// instead of failing.
func (d *Detector) Analyze() *pipeline.DriftReport {
	report := &pipeline.DriftReport{Timestamp: time.Now().UTC()}

	baseline, haveBaseline := d.baselines.Active()
	units := d.store.Recent(d.config.WindowSize)
	report.WindowSize = len(units)
	if haveBaseline {
		report.BaselineVersion = baseline.Version
	}

	if !haveBaseline || len(units) < d.config.MinWindow {
		report.Severity = pipeline.SeverityNone
		report.Indicators = []string{insufficientDataIndicator}
		d.logger.Debug("analysis degraded",
			"have_baseline", haveBaseline,
			"window", len(units),
			"min_window", d.config.MinWindow)
		d.finish(report)
		return report
	}

	thresholds := d.Thresholds()

	// Sample arrays are copied out of the records up front; the
	// statistical work below holds no locks.
	durations, tokens, costs, texts := extractSamples(units)

	report.CharEntropy = entropyDelta(baseline.CharEntropy, stats.CharEntropy(texts))
	report.WordEntropy = entropyDelta(baseline.WordEntropy, stats.WordEntropy(texts))

	report.Duration = stats.KolmogorovSmirnov(baseline.Durations, durations)
	report.Tokens = stats.KolmogorovSmirnov(baseline.Tokens, tokens)
	report.Cost = stats.KolmogorovSmirnov(baseline.Costs, costs)

	report.Summary = pipeline.StatSummary{
		DurationMS: pipeline.MetricAverages{
			Baseline: stats.Mean(baseline.Durations),
			Current:  stats.Mean(durations),
		},
		Tokens: pipeline.MetricAverages{
			Baseline: stats.Mean(baseline.Tokens),
			Current:  stats.Mean(tokens),
		},
		CostUSD: pipeline.MetricAverages{
			Baseline: stats.Mean(baseline.Costs),
			Current:  stats.Mean(costs),
		},
	}

	report.Severity = classify(report, thresholds)
	report.Indicators = buildIndicators(report, thresholds)
	report.Recommendations = buildRecommendations(report)

	d.observe(report)
	d.finish(report)

	d.logger.Info("drift analysis completed",
		"severity", report.Severity,
		"baseline_version", report.BaselineVersion,
		"window", report.WindowSize,
		"indicators", len(report.Indicators))

	return report
}

// finish appends the report to the history and counts the cycle.
func (d *Detector) finish(report *pipeline.DriftReport) {
	if err := d.store.RecordReport(report); err != nil {
		d.logger.Warn("failed to record drift report", "error", err)
	}
	if d.collector != nil {
		d.collector.RecordAnalysis(string(report.Severity))
	}
}

// observe exports the per-metric statistics from a full analysis cycle.
func (d *Detector) observe(report *pipeline.DriftReport) {
	if d.collector == nil {
		return
	}

	results := []struct {
		metric string
		result stats.Result
	}{
		{"duration", report.Duration},
		{"tokens", report.Tokens},
		{"cost", report.Cost},
	}
	for _, r := range results {
		if r.result.InsufficientData {
			continue
		}
		d.collector.UpdateKSStatistic(r.metric, r.result.Statistic)
		if r.result.Drift {
			d.collector.RecordDriftDetected(r.metric)
		}
	}

	d.collector.UpdateEntropyChange("char", report.CharEntropy.ChangePct/100)
	d.collector.UpdateEntropyChange("word", report.WordEntropy.ChangePct/100)
}

// extractSamples copies the numeric samples and text samples out of a
// window of units.
func extractSamples(units []*pipeline.UnitRecord) (durations, tokens, costs []float64, texts []string) {
	durations = make([]float64, 0, len(units))
	tokens = make([]float64, 0, len(units))
	costs = make([]float64, 0, len(units))

	for _, u := range units {
		durations = append(durations, u.DurationMS)
		tokens = append(tokens, float64(u.TotalTokens))
		costs = append(costs, u.CostUSD)
		texts = append(texts, u.TextSamples()...)
	}
	return durations, tokens, costs, texts
}

// entropyDelta compares a current entropy value against its baseline.
// The percentage change is zero when the baseline itself is zero.
func entropyDelta(baseline, current float64) pipeline.EntropyDelta {
	delta := pipeline.EntropyDelta{
		Baseline: baseline,
		Current:  current,
		Change:   math.Abs(current - baseline),
	}
	if baseline > 0 {
		delta.ChangePct = delta.Change / baseline * 100
	}
	return delta
}

// classify derives the overall severity. The rules are checked highest
// first so the strongest matching classification wins, and severity is
// monotonic in both the KS statistics and the entropy change.
func classify(report *pipeline.DriftReport, t config.ThresholdsConfig) pipeline.Severity {
	entropyChange := math.Max(report.CharEntropy.ChangePct, report.WordEntropy.ChangePct) / 100

	var anyDrift, criticalKS, highConfidence bool
	for _, r := range []stats.Result{report.Duration, report.Tokens, report.Cost} {
		if !r.Drift {
			continue
		}
		anyDrift = true
		if r.Statistic > t.KSCritical {
			criticalKS = true
		}
		if r.Confidence == stats.ConfidenceHigh {
			highConfidence = true
		}
	}

	switch {
	case criticalKS || entropyChange > t.EntropyHigh:
		return pipeline.SeverityCritical
	case highConfidence || entropyChange > t.EntropyMedium:
		return pipeline.SeverityHigh
	case anyDrift || entropyChange > t.EntropyLow:
		return pipeline.SeverityMedium
	case entropyChange > 0:
		return pipeline.SeverityLow
	default:
		return pipeline.SeverityNone
	}
}

// buildIndicators produces the human-readable indicator strings in a
// fixed order: entropy first, then the KS metrics as duration, tokens,
// cost.
func buildIndicators(report *pipeline.DriftReport, t config.ThresholdsConfig) []string {
	var indicators []string

	if report.CharEntropy.ChangePct/100 > t.EntropyLow {
		indicators = append(indicators,
			fmt.Sprintf("character entropy changed by %.1f%%", report.CharEntropy.ChangePct))
	}
	if report.WordEntropy.ChangePct/100 > t.EntropyLow {
		indicators = append(indicators,
			fmt.Sprintf("word entropy changed by %.1f%%", report.WordEntropy.ChangePct))
	}
	if report.Duration.Drift {
		indicators = append(indicators, "duration distribution has drifted")
	}
	if report.Tokens.Drift {
		indicators = append(indicators, "token distribution has drifted")
	}
	if report.Cost.Drift {
		indicators = append(indicators, "cost distribution has drifted")
	}

	return indicators
}

// buildRecommendations derives operator guidance from the report.
func buildRecommendations(report *pipeline.DriftReport) []string {
	var recs []string

	if report.CharEntropy.Current < report.CharEntropy.Baseline*0.85 {
		recs = append(recs, "output diversity has decreased; stages may be producing more repetitive text")
	} else if report.CharEntropy.Current > report.CharEntropy.Baseline*1.15 {
		recs = append(recs, "output diversity has increased; stages may be producing less consistent text")
	}

	if report.Duration.Drift {
		base, current := report.Summary.DurationMS.Baseline, report.Summary.DurationMS.Current
		if base > 0 && current > base*1.2 {
			recs = append(recs,
				fmt.Sprintf("average duration increased by %.1f%%", (current/base-1)*100))
		}
	}
	if report.Cost.Drift {
		base, current := report.Summary.CostUSD.Baseline, report.Summary.CostUSD.Current
		if base > 0 && current > base*1.2 {
			recs = append(recs,
				fmt.Sprintf("average cost increased by %.1f%%", (current/base-1)*100))
		}
	}

	return recs
}
