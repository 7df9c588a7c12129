package baseline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// stubSource serves canned units. cacheLimit caps what Recent returns so
// tests can force the journal top-up path.
type stubSource struct {
	units      []*pipeline.UnitRecord // newest first
	cacheLimit int
	windowErr  error
}

func (s *stubSource) Recent(limit int) []*pipeline.UnitRecord {
	n := limit
	if n <= 0 || n > len(s.units) {
		n = len(s.units)
	}
	if s.cacheLimit > 0 && n > s.cacheLimit {
		n = s.cacheLimit
	}
	out := make([]*pipeline.UnitRecord, 0, n)
	for _, u := range s.units[:n] {
		out = append(out, u.Clone())
	}
	return out
}

func (s *stubSource) WindowSince(start, end time.Time) ([]*pipeline.UnitRecord, error) {
	var out []*pipeline.UnitRecord
	for i := len(s.units) - 1; i >= 0; i-- {
		u := s.units[i]
		if !u.CompletedAt.Before(start) && u.CompletedAt.Before(end) {
			out = append(out, u.Clone())
		}
	}
	return out, s.windowErr
}

// sourceUnits builds n finalized units, newest first, spaced a minute
// apart with mildly varying measurements and text.
func sourceUnits(n int) []*pipeline.UnitRecord {
	now := time.Now().UTC()
	units := make([]*pipeline.UnitRecord, 0, n)
	for i := 0; i < n; i++ {
		completed := now.Add(-time.Duration(i) * time.Minute)
		duration := float64(100 + i)
		units = append(units, &pipeline.UnitRecord{
			ID:        fmt.Sprintf("unit-%03d", n-i),
			CreatedAt: completed.Add(-time.Second),
			Strategy:  "sequential",
			Stages: []pipeline.StageRecord{
				{
					Stage:        "analyst",
					StartedAt:    completed.Add(-time.Second),
					DurationMS:   duration,
					OutputSample: fmt.Sprintf("analysis result %d with varied language", i),
					Success:      true,
				},
			},
			DurationMS:  duration,
			TotalTokens: 500 + i,
			CostUSD:     0.01 + float64(i)*0.001,
			Success:     true,
			CompletedAt: completed,
		})
	}
	return units
}

func newTestManagerAt(t *testing.T, dbPath string, source Source) *Manager {
	t.Helper()

	m, err := NewManager(config.BaselineConfig{
		DBPath:             dbPath,
		MinSamples:         10,
		DefaultSampleCount: 100,
	}, source, nil, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func newTestManager(t *testing.T, source Source) *Manager {
	t.Helper()
	return newTestManagerAt(t, filepath.Join(t.TempDir(), "baselines.db"), source)
}

func TestManager_EstablishInsufficientData(t *testing.T) {
	m := newTestManager(t, &stubSource{units: sourceUnits(5)})

	_, err := m.Establish(context.Background(), 0)
	var insufficient *pipeline.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientDataError, got %v", err)
	}
	if insufficient.Required != 10 {
		t.Errorf("Required = %d, want 10", insufficient.Required)
	}
	if insufficient.Available != 5 {
		t.Errorf("Available = %d, want 5", insufficient.Available)
	}

	if _, ok := m.Active(); ok {
		t.Error("No baseline should be installed after a failed establish")
	}
	history, err := m.History(context.Background(), 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("Expected empty history, got %d baselines", len(history))
	}
}

func TestManager_Establish(t *testing.T) {
	m := newTestManager(t, &stubSource{units: sourceUnits(20)})

	b, err := m.Establish(context.Background(), 0)
	if err != nil {
		t.Fatalf("Establish failed: %v", err)
	}

	if b.Version != 1 {
		t.Errorf("Version = %d, want 1", b.Version)
	}
	if b.SampleCount != 20 {
		t.Errorf("SampleCount = %d, want 20", b.SampleCount)
	}
	if len(b.Durations) != 20 || len(b.Tokens) != 20 || len(b.Costs) != 20 {
		t.Fatalf("Sample array lengths = %d/%d/%d, want 20 each",
			len(b.Durations), len(b.Tokens), len(b.Costs))
	}

	// Durations are 100..119 regardless of ordering.
	var sum float64
	for _, d := range b.Durations {
		sum += d
	}
	if sum != 2190 {
		t.Errorf("Duration sample sum = %v, want 2190", sum)
	}

	if b.CharEntropy <= 0 {
		t.Errorf("CharEntropy = %v, want > 0", b.CharEntropy)
	}
	if b.WordEntropy <= 0 {
		t.Errorf("WordEntropy = %v, want > 0", b.WordEntropy)
	}

	active, ok := m.Active()
	if !ok {
		t.Fatal("Expected an active baseline")
	}
	if active.Version != b.Version || active.SampleCount != b.SampleCount {
		t.Errorf("Active = v%d/%d samples, want v%d/%d",
			active.Version, active.SampleCount, b.Version, b.SampleCount)
	}
}

func TestManager_ActiveReturnsSnapshot(t *testing.T) {
	m := newTestManager(t, &stubSource{units: sourceUnits(20)})

	b, err := m.Establish(context.Background(), 0)
	if err != nil {
		t.Fatalf("Establish failed: %v", err)
	}

	// Mutating the returned copy must not leak into the active baseline.
	b.Durations[0] = -1
	active, _ := m.Active()
	if active.Durations[0] == -1 {
		t.Error("Mutation of the establish result leaked into the active baseline")
	}

	active.Durations[0] = -2
	again, _ := m.Active()
	if again.Durations[0] == -2 {
		t.Error("Mutation of an Active snapshot leaked into the active baseline")
	}
}

func TestManager_EstablishVersionIncrements(t *testing.T) {
	m := newTestManager(t, &stubSource{units: sourceUnits(20)})
	ctx := context.Background()

	first, err := m.Establish(ctx, 0)
	if err != nil {
		t.Fatalf("First establish failed: %v", err)
	}
	second, err := m.Establish(ctx, 0)
	if err != nil {
		t.Fatalf("Second establish failed: %v", err)
	}

	if first.Version != 1 || second.Version != 2 {
		t.Errorf("Versions = %d, %d, want 1, 2", first.Version, second.Version)
	}

	history, err := m.History(ctx, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 baselines in history, got %d", len(history))
	}
	if history[0].Version != 2 || history[1].Version != 1 {
		t.Errorf("History versions = [%d, %d], want [2, 1]",
			history[0].Version, history[1].Version)
	}
}

func TestManager_EstablishExplicitSampleCount(t *testing.T) {
	m := newTestManager(t, &stubSource{units: sourceUnits(30)})

	b, err := m.Establish(context.Background(), 15)
	if err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
	if b.SampleCount != 15 {
		t.Errorf("SampleCount = %d, want 15", b.SampleCount)
	}
}

func TestManager_EstablishDefaultSampleCount(t *testing.T) {
	m, err := NewManager(config.BaselineConfig{
		DBPath:             filepath.Join(t.TempDir(), "baselines.db"),
		MinSamples:         10,
		DefaultSampleCount: 25,
	}, &stubSource{units: sourceUnits(40)}, nil, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Close()

	b, err := m.Establish(context.Background(), 0)
	if err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
	if b.SampleCount != 25 {
		t.Errorf("SampleCount = %d, want 25", b.SampleCount)
	}
}

func TestManager_EstablishTopUpFromJournal(t *testing.T) {
	// The cache can only serve 8 units but the journal holds 20.
	source := &stubSource{units: sourceUnits(20), cacheLimit: 8}
	m := newTestManager(t, source)

	b, err := m.Establish(context.Background(), 50)
	if err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
	if b.SampleCount != 20 {
		t.Errorf("SampleCount = %d, want 20 after journal top-up", b.SampleCount)
	}
}

func TestManager_EstablishJournalErrorDegradesToCache(t *testing.T) {
	source := &stubSource{units: sourceUnits(12), windowErr: errors.New("read error")}
	m := newTestManager(t, source)

	b, err := m.Establish(context.Background(), 0)
	if err != nil {
		t.Fatalf("Establish should succeed on cache alone: %v", err)
	}
	if b.SampleCount != 12 {
		t.Errorf("SampleCount = %d, want 12", b.SampleCount)
	}
}

func TestManager_RestoreAcrossRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "baselines.db")
	source := &stubSource{units: sourceUnits(20)}

	m1 := newTestManagerAt(t, dbPath, source)
	established, err := m1.Establish(context.Background(), 0)
	if err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
	if err := m1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	m2 := newTestManagerAt(t, dbPath, source)
	active, ok := m2.Active()
	if !ok {
		t.Fatal("Expected the persisted baseline to be restored as active")
	}
	if active.Version != established.Version {
		t.Errorf("Restored version = %d, want %d", active.Version, established.Version)
	}
	if active.SampleCount != established.SampleCount {
		t.Errorf("Restored SampleCount = %d, want %d",
			active.SampleCount, established.SampleCount)
	}
	if len(active.Durations) != len(established.Durations) {
		t.Errorf("Restored Durations length = %d, want %d",
			len(active.Durations), len(established.Durations))
	}

	// The version sequence continues across the restart.
	next, err := m2.Establish(context.Background(), 0)
	if err != nil {
		t.Fatalf("Establish after restart failed: %v", err)
	}
	if next.Version != established.Version+1 {
		t.Errorf("Version after restart = %d, want %d", next.Version, established.Version+1)
	}
}

func TestManager_EstablishFailsAfterClose(t *testing.T) {
	m := newTestManager(t, &stubSource{units: sourceUnits(20)})
	ctx := context.Background()

	if _, err := m.Establish(ctx, 0); err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err := m.Establish(ctx, 0)
	var storageErr *pipeline.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("Expected StorageError after close, got %v", err)
	}

	// The previously established baseline stays active.
	active, ok := m.Active()
	if !ok || active.Version != 1 {
		t.Errorf("Active after failed establish = %+v, want version 1", active)
	}
}

func TestManager_UpdatesBaselineGauges(t *testing.T) {
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "ganymede"}, nil)

	m, err := NewManager(config.BaselineConfig{
		DBPath:             filepath.Join(t.TempDir(), "baselines.db"),
		MinSamples:         10,
		DefaultSampleCount: 100,
	}, &stubSource{units: sourceUnits(20)}, collector, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Close()

	if _, err := m.Establish(context.Background(), 0); err != nil {
		t.Fatalf("Establish failed: %v", err)
	}

	families, err := collector.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	var version, samples float64 = -1, -1
	for _, mf := range families {
		switch mf.GetName() {
		case "ganymede_baseline_version":
			version = mf.GetMetric()[0].GetGauge().GetValue()
		case "ganymede_baseline_samples":
			samples = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	if version != 1 {
		t.Errorf("baseline_version gauge = %v, want 1", version)
	}
	if samples != 20 {
		t.Errorf("baseline_samples gauge = %v, want 20", samples)
	}
}
