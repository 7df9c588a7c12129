package baseline

import (
	"context"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/stats"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// topUpLookback is how far back establish reaches into the journal when
// the cache alone cannot fill the requested sample window.
const topUpLookback = 30 * 24 * time.Hour

// Source is the slice of the record store the baseline manager reads.
type Source interface {
	// Recent returns up to limit most recently recorded units, newest first.
	Recent(limit int) []*pipeline.UnitRecord

	// WindowSince returns units completed in [start, end), oldest first.
	// A read failure may return partial results alongside the error.
	WindowSince(start, end time.Time) ([]*pipeline.UnitRecord, error)
}

// Manager owns the versioned baseline lifecycle: establishing a new
// baseline from recent history, persisting it, and handing immutable
// snapshots to readers. Exactly one baseline is active at a time; the
// newest persisted version is restored as active on startup.
type Manager struct {
	config    config.BaselineConfig
	source    Source
	db        *DB
	collector *metrics.Collector
	logger    *logging.Logger

	mu     sync.RWMutex
	active *pipeline.Baseline
}

// NewManager opens the baseline database at cfg.DBPath and restores the
// most recently persisted baseline as the active one. The collector may
// be nil.
func NewManager(cfg config.BaselineConfig, source Source, collector *metrics.Collector, logger *logging.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.Component("baseline")

	if cfg.DBPath == "" {
		cfg.DBPath = config.DefaultBaselineDBPath
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = config.DefaultBaselineMinSamples
	}
	if cfg.DefaultSampleCount <= 0 {
		cfg.DefaultSampleCount = config.DefaultBaselineSampleCount
	}

	db, err := OpenDB(cfg.DBPath, cfg.BusyTimeout)
	if err != nil {
		return nil, pipeline.NewStorageError("open", cfg.DBPath, err)
	}

	m := &Manager{
		config:    cfg,
		source:    source,
		db:        db,
		collector: collector,
		logger:    logger,
	}

	restored, err := db.Latest(context.Background())
	if err != nil {
		db.Close()
		return nil, pipeline.NewStorageError("restore", cfg.DBPath, err)
	}
	if restored != nil {
		m.active = restored
		m.logger.Info("restored active baseline",
			"version", restored.Version,
			"samples", restored.SampleCount,
			"established_at", restored.EstablishedAt)
		if m.collector != nil {
			m.collector.UpdateBaseline(restored.Version, restored.SampleCount)
		}
	}

	return m, nil
}

// Establish snapshots the most recently completed units into a new
// versioned baseline, persists it, and installs it as active. A
// sampleCount of zero or less uses the configured default. When fewer
// than the configured minimum number of units exist the call fails with
// an InsufficientDataError and the previously active baseline stays
// installed; a persistence failure likewise leaves the active baseline
// untouched.
func (m *Manager) Establish(ctx context.Context, sampleCount int) (*pipeline.Baseline, error) {
	if sampleCount <= 0 {
		sampleCount = m.config.DefaultSampleCount
	}

	units := m.collectUnits(sampleCount)
	if len(units) < m.config.MinSamples {
		return nil, pipeline.NewInsufficientDataError("establish", m.config.MinSamples, len(units))
	}

	// Samples are copied out before any lock is taken; the statistical
	// work below never blocks readers of the active baseline.
	b := m.buildBaseline(units)

	m.mu.Lock()
	defer m.mu.Unlock()

	b.Version = 1
	if m.active != nil {
		b.Version = m.active.Version + 1
	}

	if err := m.db.Save(ctx, b); err != nil {
		return nil, pipeline.NewStorageError("save", m.config.DBPath, err)
	}

	m.active = b
	m.logger.Info("established baseline",
		"version", b.Version,
		"samples", b.SampleCount,
		"char_entropy", b.CharEntropy,
		"word_entropy", b.WordEntropy)
	if m.collector != nil {
		m.collector.UpdateBaseline(b.Version, b.SampleCount)
	}

	return b.Clone(), nil
}

// collectUnits gathers up to sampleCount recently completed units. The
// cache is preferred; when it cannot fill the window the journal is
// consulted over a bounded lookback and the newest units win.
func (m *Manager) collectUnits(sampleCount int) []*pipeline.UnitRecord {
	units := m.source.Recent(sampleCount)
	if len(units) >= sampleCount {
		return units
	}

	now := time.Now()
	window, err := m.source.WindowSince(now.Add(-topUpLookback), now)
	if err != nil {
		m.logger.Warn("journal read failed during baseline top-up",
			"have", len(window), "error", err)
	}
	if len(window) <= len(units) {
		return units
	}

	// WindowSince returns oldest first; keep the newest sampleCount.
	if len(window) > sampleCount {
		window = window[len(window)-sampleCount:]
	}
	return window
}

// buildBaseline computes the sample arrays and entropy aggregates for a
// set of units. The version is assigned by the caller.
func (m *Manager) buildBaseline(units []*pipeline.UnitRecord) *pipeline.Baseline {
	durations := make([]float64, 0, len(units))
	tokens := make([]float64, 0, len(units))
	costs := make([]float64, 0, len(units))
	var texts []string

	for _, u := range units {
		durations = append(durations, u.DurationMS)
		tokens = append(tokens, float64(u.TotalTokens))
		costs = append(costs, u.CostUSD)
		texts = append(texts, u.TextSamples()...)
	}

	return &pipeline.Baseline{
		EstablishedAt: time.Now().UTC(),
		SampleCount:   len(units),
		Durations:     durations,
		Tokens:        tokens,
		Costs:         costs,
		CharEntropy:   stats.CharEntropy(texts),
		WordEntropy:   stats.WordEntropy(texts),
	}
}

// Active returns a snapshot of the active baseline, or false when none
// has been established yet.
func (m *Manager) Active() (*pipeline.Baseline, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.active == nil {
		return nil, false
	}
	return m.active.Clone(), true
}

// History returns up to limit persisted baselines, newest first. A
// limit of zero or less returns all of them.
func (m *Manager) History(ctx context.Context, limit int) ([]*pipeline.Baseline, error) {
	baselines, err := m.db.List(ctx, limit)
	if err != nil {
		return nil, pipeline.NewStorageError("list", m.config.DBPath, err)
	}
	return baselines, nil
}

// Close releases the baseline database. The active in-memory snapshot
// stays readable through Active.
func (m *Manager) Close() error {
	return m.db.Close()
}
