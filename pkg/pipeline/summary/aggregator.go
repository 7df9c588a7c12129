package summary

import (
	"sort"
	"time"

	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/telemetry/logging"
)

// defaultWindowHours is the summary window when the caller does not
// specify one.
const defaultWindowHours = 24

// topStagesLimit caps the most-used stage ranking.
const topStagesLimit = 5

// Store is the slice of the record store the aggregator reads. It never
// mutates anything.
type Store interface {
	// WindowSince returns units completed in [start, end), oldest first.
	// A read failure may return partial results alongside the error.
	WindowSince(start, end time.Time) ([]*pipeline.UnitRecord, error)

	// ReportHistory returns up to limit drift reports, newest first.
	// A non-positive limit returns the whole history.
	ReportHistory(limit int) []*pipeline.DriftReport
}

// StageCount pairs a stage name with its execution count in the window.
type StageCount struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// Summary is a flat aggregation over one time window.
type Summary struct {
	WindowHours int       `json:"window_hours"`
	GeneratedAt time.Time `json:"generated_at"`

	Units       int     `json:"units"`
	Succeeded   int     `json:"succeeded"`
	SuccessRate float64 `json:"success_rate"` // Percent, 0-100

	TotalDurationMS float64 `json:"total_duration_ms"`
	AvgDurationMS   float64 `json:"avg_duration_ms"`
	TotalTokens     int     `json:"total_tokens"`
	AvgTokens       float64 `json:"avg_tokens"`
	TotalCostUSD    float64 `json:"total_cost_usd"`
	AvgCostUSD      float64 `json:"avg_cost_usd"`

	// Stages holds every distinct stage observed in the window with its
	// execution count, most used first. TopStages is the head of that
	// ranking, capped at five.
	Stages    []StageCount `json:"stages,omitempty"`
	TopStages []StageCount `json:"top_stages,omitempty"`
}

// Aggregator produces time-windowed summaries and ranked drift alerts
// for external consumption.
type Aggregator struct {
	store  Store
	logger *logging.Logger
}

// NewAggregator creates a read-only aggregator over the store.
func NewAggregator(store Store, logger *logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Aggregator{
		store:  store,
		logger: logger.Component("summary"),
	}
}

// Summarize aggregates the units completed in the last hours. A
// non-positive hours uses the default 24-hour window. An empty window
// yields a zero-valued summary, not an error; a journal read failure
// returns the partial summary alongside the error.
func (a *Aggregator) Summarize(hours int) (*Summary, error) {
	if hours <= 0 {
		hours = defaultWindowHours
	}

	now := time.Now().UTC()
	units, err := a.store.WindowSince(now.Add(-time.Duration(hours)*time.Hour), now)
	if err != nil {
		a.logger.Warn("summary window read degraded",
			"hours", hours, "have", len(units), "error", err)
	}

	s := &Summary{
		WindowHours: hours,
		GeneratedAt: now,
	}

	stageCounts := make(map[string]int)
	for _, u := range units {
		s.Units++
		if u.Success {
			s.Succeeded++
		}
		s.TotalDurationMS += u.DurationMS
		s.TotalTokens += u.TotalTokens
		s.TotalCostUSD += u.CostUSD
		for i := range u.Stages {
			stageCounts[u.Stages[i].Stage]++
		}
	}

	if s.Units > 0 {
		n := float64(s.Units)
		s.SuccessRate = float64(s.Succeeded) / n * 100
		s.AvgDurationMS = s.TotalDurationMS / n
		s.AvgTokens = float64(s.TotalTokens) / n
		s.AvgCostUSD = s.TotalCostUSD / n
	}

	s.Stages = rankStages(stageCounts)
	s.TopStages = s.Stages
	if len(s.TopStages) > topStagesLimit {
		s.TopStages = s.TopStages[:topStagesLimit]
	}

	return s, err
}

// Alerts returns the most recent drift reports with severity above
// none, newest first. A non-positive limit returns all of them.
func (a *Aggregator) Alerts(limit int) []*pipeline.DriftReport {
	var alerts []*pipeline.DriftReport
	for _, r := range a.store.ReportHistory(0) {
		if !r.Severity.AtLeast(pipeline.SeverityLow) {
			continue
		}
		alerts = append(alerts, r)
		if limit > 0 && len(alerts) == limit {
			break
		}
	}
	return alerts
}

// rankStages orders stage counts most used first, breaking ties by
// name so the ranking is deterministic.
func rankStages(counts map[string]int) []StageCount {
	if len(counts) == 0 {
		return nil
	}

	ranked := make([]StageCount, 0, len(counts))
	for stage, count := range counts {
		ranked = append(ranked, StageCount{Stage: stage, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Stage < ranked[j].Stage
	})
	return ranked
}
