package recorder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/processing/costs"
	"mercator-hq/ganymede/pkg/processing/tokens"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// Sink receives finalized units from the recorder. The record store
// implements it; tests and dry-run embeddings may substitute their own.
type Sink interface {
	Record(unit *pipeline.UnitRecord) error
}

// StageOutcome is the caller-facing description of one completed stage.
// Text fields carry the full stage input and output; the recorder
// estimates missing token counts from the full text and then truncates
// it to the configured sample caps before anything is stored.
type StageOutcome struct {
	// Stage is the stage (agent) name. Required.
	Stage string

	// StartedAt is when the stage began. Zero means "now".
	StartedAt time.Time

	// DurationMS is the stage wall time in milliseconds.
	DurationMS float64

	// InputTokens and OutputTokens are the real token counts when the
	// caller knows them. Zero counts are backfilled from the text when
	// estimation is enabled.
	InputTokens  int
	OutputTokens int

	// CostUSD is the real stage cost when the caller knows it. Zero is
	// backfilled from the token counts when estimation is enabled.
	CostUSD float64

	// Success reports whether the stage completed successfully. Error
	// optionally carries the failure reason.
	Success bool
	Error   string

	// InputText and OutputText are the stage's input and output text.
	// Only truncated samples are retained.
	InputText  string
	OutputText string

	// Model is the opaque model identifier the stage ran against. It
	// selects the token ratio and pricing entry for backfill.
	Model string
}

// UnitInput describes a complete, already-executed unit of work for the
// one-shot ingestion path.
type UnitInput struct {
	// ID is the unit identifier. Empty means "generate one".
	ID string

	// Strategy is the opaque pipeline strategy label.
	Strategy string

	// Attrs are opaque request attributes carried on the unit.
	Attrs map[string]string

	// Stages are the stage outcomes in execution order.
	Stages []StageOutcome

	// Success is the unit's final outcome.
	Success bool
}

// Recorder validates stage outcomes, backfills missing token counts and
// costs, assembles finalized UnitRecords and hands them to the sink. It
// is safe for concurrent use; each in-flight unit carries its own lock.
type Recorder struct {
	sink       Sink
	config     config.RecorderConfig
	estimator  *tokens.Estimator
	calculator *costs.Calculator
	collector  *metrics.Collector
	logger     *logging.Logger
}

// NewRecorder creates a recorder. The estimator, calculator and collector
// may be nil, which disables token backfill, cost backfill and metrics
// respectively. A nil sink drops finalized units after returning them to
// the caller.
func NewRecorder(sink Sink, cfg config.RecorderConfig, estimator *tokens.Estimator, calculator *costs.Calculator, collector *metrics.Collector, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.MaxInputSample <= 0 {
		cfg.MaxInputSample = 500
	}
	if cfg.MaxOutputSample <= 0 {
		cfg.MaxOutputSample = 1000
	}

	r := &Recorder{
		sink:       sink,
		config:     cfg,
		estimator:  estimator,
		calculator: calculator,
		collector:  collector,
		logger:     logger.Component("recorder"),
	}

	if sink == nil {
		r.logger.Warn("recorder has no sink, finalized units will not be stored")
	}

	return r
}

// StartUnit opens a new unit of work and returns its builder. The unit
// receives a generated UUID and is timestamped now; stages are appended
// with AddStage and the unit becomes visible to the store only when
// Finalize is called.
func (r *Recorder) StartUnit(strategy string, attrs map[string]string) *ActiveUnit {
	now := time.Now()

	unit := &pipeline.UnitRecord{
		ID:        uuid.New().String(),
		CreatedAt: now,
		Strategy:  strategy,
		Stages:    []pipeline.StageRecord{},
	}
	if len(attrs) > 0 {
		unit.Attrs = make(map[string]string, len(attrs))
		for k, v := range attrs {
			unit.Attrs[k] = v
		}
	}

	r.logger.Debug("unit started",
		"unit_id", unit.ID,
		"strategy", strategy)

	return &ActiveUnit{
		recorder:  r,
		unit:      unit,
		startedAt: now,
	}
}

// Record ingests a complete unit in one call: every stage outcome is
// validated and backfilled, totals are computed and the finalized unit
// is stored. It returns the finalized record, or a ValidationError if
// any stage carries a negative numeric field. Nothing is recorded on
// failure.
func (r *Recorder) Record(input UnitInput) (*pipeline.UnitRecord, error) {
	stages := make([]pipeline.StageRecord, 0, len(input.Stages))
	for _, outcome := range input.Stages {
		stage, err := r.buildStage(outcome)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}

	id := input.ID
	if id == "" {
		id = uuid.New().String()
	}

	// One-shot units have no live start time, so the unit duration is
	// the sum of its stage durations and CreatedAt is back-dated to
	// keep CreatedAt + duration == CompletedAt.
	var durationMS float64
	for i := range stages {
		durationMS += stages[i].DurationMS
	}

	completed := time.Now()
	unit := &pipeline.UnitRecord{
		ID:          id,
		CreatedAt:   completed.Add(-time.Duration(durationMS * float64(time.Millisecond))),
		Strategy:    input.Strategy,
		Stages:      stages,
		DurationMS:  durationMS,
		Success:     input.Success,
		CompletedAt: completed,
	}
	if len(input.Attrs) > 0 {
		unit.Attrs = make(map[string]string, len(input.Attrs))
		for k, v := range input.Attrs {
			unit.Attrs[k] = v
		}
	}
	recomputeTotals(unit)

	r.deliver(unit)
	return unit, nil
}

// ActiveUnit is the builder for one in-flight unit of work. Stages are
// appended as they complete; Finalize closes the unit exactly once.
// Methods are safe for concurrent use.
type ActiveUnit struct {
	recorder  *Recorder
	mu        sync.Mutex
	unit      *pipeline.UnitRecord
	startedAt time.Time
	finalized bool
}

// ID returns the unit's generated identifier.
func (u *ActiveUnit) ID() string {
	return u.unit.ID
}

// AddStage validates, backfills and appends one stage outcome. It
// returns a ValidationError if the outcome carries a negative numeric
// field or the unit was already finalized; the unit is unchanged on
// failure.
func (u *ActiveUnit) AddStage(outcome StageOutcome) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.finalized {
		return pipeline.NewValidationError("unit", fmt.Sprintf("unit %s is already finalized", u.unit.ID))
	}

	stage, err := u.recorder.buildStage(outcome)
	if err != nil {
		return err
	}
	u.unit.Stages = append(u.unit.Stages, stage)

	u.recorder.logger.Debug("stage recorded",
		"unit_id", u.unit.ID,
		"stage", stage.Stage,
		"duration_ms", stage.DurationMS,
		"total_tokens", stage.TotalTokens)

	return nil
}

// Finalize closes the unit with the given outcome, computes the unit
// totals and wall-clock duration, stores the unit and returns it. A
// second call fails with a ValidationError and records nothing.
func (u *ActiveUnit) Finalize(success bool) (*pipeline.UnitRecord, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.finalized {
		return nil, pipeline.NewValidationError("unit", fmt.Sprintf("unit %s is already finalized", u.unit.ID))
	}
	u.finalized = true

	now := time.Now()
	u.unit.Success = success
	u.unit.CompletedAt = now
	u.unit.DurationMS = float64(now.Sub(u.startedAt)) / float64(time.Millisecond)
	recomputeTotals(u.unit)

	u.recorder.deliver(u.unit)
	return u.unit, nil
}

// buildStage converts a caller outcome into a validated stage record.
// Backfill never overwrites caller-supplied values: only zero token
// counts and zero costs are estimated. Token estimation reads the full
// text before the samples are truncated.
func (r *Recorder) buildStage(outcome StageOutcome) (pipeline.StageRecord, error) {
	startedAt := outcome.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	inputTokens := outcome.InputTokens
	outputTokens := outcome.OutputTokens
	if r.config.EstimateTokens && r.estimator != nil {
		if inputTokens == 0 && outcome.InputText != "" {
			inputTokens = r.estimator.EstimateText(outcome.InputText, outcome.Model)
		}
		if outputTokens == 0 && outcome.OutputText != "" {
			outputTokens = r.estimator.EstimateText(outcome.OutputText, outcome.Model)
		}
	}

	costUSD := outcome.CostUSD
	if costUSD == 0 && r.config.EstimateCosts && r.calculator != nil && inputTokens+outputTokens > 0 {
		costUSD = r.calculator.StageCost(inputTokens, outputTokens, outcome.Model)
	}

	stage := pipeline.StageRecord{
		Stage:        outcome.Stage,
		StartedAt:    startedAt,
		DurationMS:   outcome.DurationMS,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		CostUSD:      costUSD,
		Success:      outcome.Success,
		Error:        outcome.Error,
		InputSample:  truncate(outcome.InputText, r.config.MaxInputSample),
		OutputSample: truncate(outcome.OutputText, r.config.MaxOutputSample),
		Model:        outcome.Model,
	}

	if err := stage.Validate(); err != nil {
		var ve *pipeline.ValidationError
		if errors.As(err, &ve) && outcome.Stage != "" {
			return pipeline.StageRecord{}, pipeline.NewValidationError(ve.Field,
				fmt.Sprintf("stage %q: %s", outcome.Stage, ve.Message))
		}
		return pipeline.StageRecord{}, err
	}

	return stage, nil
}

// deliver hands a finalized unit to the sink and records unit metrics.
// Sink failures are logged, never returned: durability degradation is
// the store's concern and surfaces through its Flush.
func (r *Recorder) deliver(unit *pipeline.UnitRecord) {
	r.logger.Debug("unit finalized",
		"unit_id", unit.ID,
		"strategy", unit.Strategy,
		"stages", len(unit.Stages),
		"duration_ms", unit.DurationMS,
		"total_tokens", unit.TotalTokens,
		"cost_usd", unit.CostUSD,
		"success", unit.Success)

	if r.collector != nil {
		status := statusLabel(unit.Success)
		r.collector.RecordUnit(unit.Strategy, status, unit.DurationMS/1000.0, unit.TotalTokens, unit.CostUSD)
		for i := range unit.Stages {
			s := &unit.Stages[i]
			r.collector.RecordStage(s.Stage, statusLabel(s.Success), s.DurationMS/1000.0)
		}
	}

	if r.sink == nil {
		return
	}
	if err := r.sink.Record(unit); err != nil {
		r.logger.Error("failed to store finalized unit",
			"unit_id", unit.ID,
			"error", err)
	}
}

// recomputeTotals rebuilds the unit's token and cost totals from its
// stages. Totals are always derived, never caller-supplied.
func recomputeTotals(unit *pipeline.UnitRecord) {
	totalTokens := 0
	costUSD := 0.0
	for i := range unit.Stages {
		totalTokens += unit.Stages[i].TotalTokens
		costUSD += unit.Stages[i].CostUSD
	}
	unit.TotalTokens = totalTokens
	unit.CostUSD = costUSD
}

// truncate caps s at max characters without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
