package pipeline

import (
	"time"

	"mercator-hq/ganymede/pkg/stats"
)

// StageRecord captures the outcome of one stage (one agent execution)
// within a unit of work. Records are immutable once appended to a unit;
// validation happens at append time.
type StageRecord struct {
	// Identity
	Stage     string    `json:"stage"`      // Stage (agent) name
	StartedAt time.Time `json:"started_at"` // When the stage began

	// Measurements
	DurationMS   float64 `json:"duration_ms"`   // Wall time in milliseconds
	InputTokens  int     `json:"input_tokens"`  // Prompt-side tokens
	OutputTokens int     `json:"output_tokens"` // Completion-side tokens
	TotalTokens  int     `json:"total_tokens"`  // Derived input+output
	CostUSD      float64 `json:"cost_usd"`      // Estimated cost in USD

	// Outcome
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"` // Failure reason if any

	// Text samples (bounded length, used for entropy analysis only)
	InputSample  string `json:"input_sample,omitempty"`
	OutputSample string `json:"output_sample,omitempty"`

	// Model is the opaque model identifier the stage ran against.
	Model string `json:"model,omitempty"`
}

// Validate checks the numeric constraints on a stage record. Duration,
// token counts and cost must not be negative; the stage name is required.
func (s *StageRecord) Validate() error {
	if s.Stage == "" {
		return NewValidationError("stage", "stage name is required")
	}
	if s.DurationMS < 0 {
		return NewValidationError("duration_ms", "duration must not be negative")
	}
	if s.InputTokens < 0 {
		return NewValidationError("input_tokens", "token count must not be negative")
	}
	if s.OutputTokens < 0 {
		return NewValidationError("output_tokens", "token count must not be negative")
	}
	if s.TotalTokens < 0 {
		return NewValidationError("total_tokens", "token count must not be negative")
	}
	if s.CostUSD < 0 {
		return NewValidationError("cost_usd", "cost must not be negative")
	}
	return nil
}

// UnitRecord represents one end-to-end request through the pipeline: an
// ordered sequence of stage executions plus derived totals. A unit is
// "open" from creation until it is finalized exactly once; stages may only
// be appended while open. Finalized units are immutable.
type UnitRecord struct {
	// Identity
	ID        string    `json:"id"`         // UUID v4, unique for the store lifetime
	CreatedAt time.Time `json:"created_at"` // When the unit was opened

	// Request metadata
	Strategy string            `json:"strategy,omitempty"` // Opaque strategy label
	Attrs    map[string]string `json:"attrs,omitempty"`    // Opaque request attributes

	// Stages in execution order (append-only while open)
	Stages []StageRecord `json:"stages"`

	// Derived totals, recomputed on finalize
	DurationMS  float64 `json:"duration_ms"`
	TotalTokens int     `json:"total_tokens"`
	CostUSD     float64 `json:"cost_usd"`

	// Outcome
	Success     bool      `json:"success"`
	CompletedAt time.Time `json:"completed_at"` // Terminal timestamp
}

// Finalized reports whether the unit has been finalized.
func (u *UnitRecord) Finalized() bool {
	return !u.CompletedAt.IsZero()
}

// Validate checks the unit and all of its stages.
func (u *UnitRecord) Validate() error {
	if u.ID == "" {
		return NewValidationError("id", "unit id is required")
	}
	for i := range u.Stages {
		if err := u.Stages[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy. Stores hand out clones so that callers can
// never mutate cached state.
func (u *UnitRecord) Clone() *UnitRecord {
	c := *u
	if u.Stages != nil {
		c.Stages = make([]StageRecord, len(u.Stages))
		copy(c.Stages, u.Stages)
	}
	if u.Attrs != nil {
		c.Attrs = make(map[string]string, len(u.Attrs))
		for k, v := range u.Attrs {
			c.Attrs[k] = v
		}
	}
	return &c
}

// TextSamples returns the non-empty stage text samples in stage order,
// input sample before output sample. This is the corpus entropy analysis
// runs over.
func (u *UnitRecord) TextSamples() []string {
	var samples []string
	for i := range u.Stages {
		if s := u.Stages[i].InputSample; s != "" {
			samples = append(samples, s)
		}
		if s := u.Stages[i].OutputSample; s != "" {
			samples = append(samples, s)
		}
	}
	return samples
}

// Baseline is an immutable statistical snapshot of a window of historical
// units: the raw numeric samples for duration/tokens/cost plus aggregate
// entropy values. Replacing a baseline never mutates the old one; only
// the active pointer moves.
type Baseline struct {
	Version       int       `json:"version"`        // Monotonically increasing
	EstablishedAt time.Time `json:"established_at"` // When the snapshot was taken
	SampleCount   int       `json:"sample_count"`   // Units in the snapshot

	// Numeric sample arrays, one value per unit
	Durations []float64 `json:"durations"`
	Tokens    []float64 `json:"tokens"`
	Costs     []float64 `json:"costs"`

	// Aggregate entropy over the units' concatenated text samples
	CharEntropy float64 `json:"char_entropy"`
	WordEntropy float64 `json:"word_entropy"`
}

// Clone returns a deep copy of the baseline.
func (b *Baseline) Clone() *Baseline {
	c := *b
	if b.Durations != nil {
		c.Durations = make([]float64, len(b.Durations))
		copy(c.Durations, b.Durations)
	}
	if b.Tokens != nil {
		c.Tokens = make([]float64, len(b.Tokens))
		copy(c.Tokens, b.Tokens)
	}
	if b.Costs != nil {
		c.Costs = make([]float64, len(b.Costs))
		copy(c.Costs, b.Costs)
	}
	return &c
}

// Severity classifies the overall magnitude of detected drift, ordered
// none < low < medium < high < critical.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the position of the severity in the none < low < medium <
// high < critical ordering. Unknown values rank below none.
func (s Severity) Rank() int {
	switch s {
	case SeverityNone:
		return 0
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return -1
	}
}

// AtLeast reports whether s ranks at or above other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// EntropyDelta compares a current entropy value against its baseline.
type EntropyDelta struct {
	Baseline  float64 `json:"baseline"`
	Current   float64 `json:"current"`
	Change    float64 `json:"change"`     // Absolute difference
	ChangePct float64 `json:"change_pct"` // Percent of baseline; 0 when baseline is 0
}

// MetricAverages pairs baseline and current-window means for one metric.
type MetricAverages struct {
	Baseline float64 `json:"baseline"`
	Current  float64 `json:"current"`
}

// StatSummary holds the per-metric mean comparison attached to a drift
// report for human inspection.
type StatSummary struct {
	DurationMS MetricAverages `json:"duration_ms"`
	Tokens     MetricAverages `json:"tokens"`
	CostUSD    MetricAverages `json:"cost_usd"`
}

// DriftReport is the immutable outcome of one drift analysis cycle.
// Reports are appended to a bounded history ordered by timestamp and are
// never mutated after creation.
type DriftReport struct {
	Timestamp       time.Time `json:"timestamp"`
	BaselineVersion int       `json:"baseline_version"` // 0 when no baseline existed
	WindowSize      int       `json:"window_size"`      // Units in the analyzed window

	// Entropy comparison
	CharEntropy EntropyDelta `json:"char_entropy"`
	WordEntropy EntropyDelta `json:"word_entropy"`

	// Per-metric KS results
	Duration stats.Result `json:"duration"`
	Tokens   stats.Result `json:"tokens"`
	Cost     stats.Result `json:"cost"`

	// Classification
	Severity   Severity `json:"severity"`
	Indicators []string `json:"indicators,omitempty"` // Fixed order: entropy, then duration/tokens/cost

	// Supporting detail
	Summary         StatSummary `json:"summary"`
	Recommendations []string    `json:"recommendations,omitempty"`
}

// Clone returns a deep copy of the report.
func (r *DriftReport) Clone() *DriftReport {
	c := *r
	if r.Indicators != nil {
		c.Indicators = make([]string, len(r.Indicators))
		copy(c.Indicators, r.Indicators)
	}
	if r.Recommendations != nil {
		c.Recommendations = make([]string, len(r.Recommendations))
		copy(c.Recommendations, r.Recommendations)
	}
	return &c
}
