package observer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/telemetry/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = filepath.Join(dir, "telemetry")
	cfg.Baseline.DBPath = filepath.Join(dir, "baselines.db")
	return cfg
}

func newTestObserver(t *testing.T) *Observer {
	t.Helper()

	obs, err := New(testConfig(t), logging.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { obs.Close() })
	return obs
}

func observeInput(n int) ObserveInput {
	return ObserveInput{
		Strategy: "react",
		Attrs:    map[string]string{"tenant": "acme"},
		Stages: []StageOutcome{
			{
				Stage:      "analyst",
				DurationMS: 100 + float64(n),
				OutputText: fmt.Sprintf("analysis result %d with varied language", n),
				Model:      "claude-3-5-sonnet",
				Success:    true,
			},
			{
				Stage:      "writer",
				DurationMS: 50,
				OutputText: fmt.Sprintf("final answer %d", n),
				Model:      "claude-3-5-sonnet",
				Success:    true,
			},
		},
		Success: true,
	}
}

func TestObserver_ObserveOneShot(t *testing.T) {
	obs := newTestObserver(t)

	unit, err := obs.Observe(context.Background(), observeInput(1))
	if err != nil {
		t.Fatalf("Observe() error = %v", err)
	}

	if unit.ID == "" {
		t.Error("unit ID is empty")
	}
	if len(unit.Stages) != 2 {
		t.Fatalf("unit has %d stages, want 2", len(unit.Stages))
	}
	if unit.DurationMS != 151 {
		t.Errorf("DurationMS = %v, want 151", unit.DurationMS)
	}
	// Token counts are estimated from the stage text
	if unit.TotalTokens == 0 {
		t.Error("TotalTokens = 0, want estimated tokens")
	}
	if unit.CostUSD == 0 {
		t.Error("CostUSD = 0, want estimated cost")
	}

	recent := obs.Recent(1)
	if len(recent) != 1 || recent[0].ID != unit.ID {
		t.Fatalf("Recent(1) = %v, want the observed unit", recent)
	}

	got, err := obs.Unit(unit.ID)
	if err != nil {
		t.Fatalf("Unit() error = %v", err)
	}
	if got == nil || got.ID != unit.ID {
		t.Errorf("Unit(%q) = %v, want the observed unit", unit.ID, got)
	}
}

func TestObserver_ObserveValidation(t *testing.T) {
	obs := newTestObserver(t)

	input := observeInput(1)
	input.Stages[0].DurationMS = -5

	_, err := obs.Observe(context.Background(), input)
	var ve *pipeline.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Observe() error = %v, want ValidationError", err)
	}

	if got := obs.Recent(10); len(got) != 0 {
		t.Errorf("Recent returned %d units after rejected input, want 0", len(got))
	}
}

func TestObserver_ObserveCancelledContext(t *testing.T) {
	obs := newTestObserver(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := obs.Observe(ctx, observeInput(1)); err == nil {
		t.Fatal("Observe() with cancelled context succeeded, want error")
	}
	if got := obs.Recent(10); len(got) != 0 {
		t.Errorf("Recent returned %d units after cancelled Observe, want 0", len(got))
	}
}

func TestObserver_LiveUnit(t *testing.T) {
	obs := newTestObserver(t)

	active := obs.StartUnit("planner", map[string]string{"run": "42"})
	if active.ID() == "" {
		t.Fatal("active unit has no ID")
	}

	err := active.AddStage(StageOutcome{
		Stage:      "retrieval",
		DurationMS: 80,
		OutputText: "retrieved four documents",
		Success:    true,
	})
	if err != nil {
		t.Fatalf("AddStage() error = %v", err)
	}

	unit, err := active.Finalize(true)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if !unit.Finalized() {
		t.Error("finalized unit reports Finalized() = false")
	}
	if unit.Strategy != "planner" {
		t.Errorf("Strategy = %q, want planner", unit.Strategy)
	}

	recent := obs.Recent(1)
	if len(recent) != 1 || recent[0].ID != active.ID() {
		t.Fatalf("Recent(1) does not contain the finalized unit")
	}
}

func TestObserver_SetBaselineAndAnalyze(t *testing.T) {
	obs := newTestObserver(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if _, err := obs.Observe(ctx, observeInput(i)); err != nil {
			t.Fatalf("Observe(%d) error = %v", i, err)
		}
	}

	b, err := obs.SetBaseline(ctx, 0)
	if err != nil {
		t.Fatalf("SetBaseline() error = %v", err)
	}
	if b.Version != 1 {
		t.Errorf("baseline Version = %d, want 1", b.Version)
	}
	if b.SampleCount != 12 {
		t.Errorf("baseline SampleCount = %d, want 12", b.SampleCount)
	}

	active, ok := obs.Baseline()
	if !ok || active.Version != 1 {
		t.Fatalf("Baseline() = %v, %v; want version 1, true", active, ok)
	}

	report := obs.Analyze()
	if report == nil {
		t.Fatal("Analyze() returned nil")
	}
	if report.BaselineVersion != 1 {
		t.Errorf("report BaselineVersion = %d, want 1", report.BaselineVersion)
	}
	// Window and baseline hold the same units, so nothing has drifted
	if report.Severity != pipeline.SeverityNone {
		t.Errorf("report Severity = %q, want none", report.Severity)
	}

	history := obs.DriftHistory(0)
	if len(history) != 1 {
		t.Fatalf("DriftHistory length = %d, want 1", len(history))
	}

	baselines, err := obs.BaselineHistory(ctx, 0)
	if err != nil {
		t.Fatalf("BaselineHistory() error = %v", err)
	}
	if len(baselines) != 1 || baselines[0].Version != 1 {
		t.Errorf("BaselineHistory = %v, want one version-1 baseline", baselines)
	}
}

func TestObserver_SetBaselineInsufficientData(t *testing.T) {
	obs := newTestObserver(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := obs.Observe(ctx, observeInput(i)); err != nil {
			t.Fatalf("Observe(%d) error = %v", i, err)
		}
	}

	_, err := obs.SetBaseline(ctx, 0)
	var ide *pipeline.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("SetBaseline() error = %v, want InsufficientDataError", err)
	}
	if ide.Available != 3 {
		t.Errorf("Available = %d, want 3", ide.Available)
	}
}

func TestObserver_AnalyzeWithoutBaseline(t *testing.T) {
	obs := newTestObserver(t)

	report := obs.Analyze()
	if report.Severity != pipeline.SeverityNone {
		t.Errorf("Severity = %q, want none", report.Severity)
	}
	if report.BaselineVersion != 0 {
		t.Errorf("BaselineVersion = %d, want 0", report.BaselineVersion)
	}
	if len(obs.DriftHistory(0)) != 1 {
		t.Error("degraded analysis did not append to drift history")
	}
	if len(obs.Alerts(0)) != 0 {
		t.Error("none-severity report surfaced as an alert")
	}
}

func TestObserver_SummarizeWindow(t *testing.T) {
	obs := newTestObserver(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		input := observeInput(i)
		input.Success = i != 3
		if _, err := obs.Observe(ctx, input); err != nil {
			t.Fatalf("Observe(%d) error = %v", i, err)
		}
	}

	s, err := obs.Summarize(1)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if s.Units != 4 {
		t.Errorf("Units = %d, want 4", s.Units)
	}
	if s.Succeeded != 3 {
		t.Errorf("Succeeded = %d, want 3", s.Succeeded)
	}
	if s.SuccessRate != 75 {
		t.Errorf("SuccessRate = %v, want 75", s.SuccessRate)
	}
	if len(s.Stages) != 2 {
		t.Errorf("Stages = %v, want analyst and writer", s.Stages)
	}

	units, err := obs.Window(time.Now().Add(-time.Hour), time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Window() error = %v", err)
	}
	if len(units) != 4 {
		t.Errorf("Window returned %d units, want 4", len(units))
	}
}

func TestObserver_StartStop(t *testing.T) {
	obs := newTestObserver(t)
	ctx := context.Background()

	if err := obs.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !obs.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}

	if err := obs.Start(ctx); err == nil {
		t.Error("second Start() succeeded, want error")
	}

	obs.Stop()
	if obs.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	// Stop again is a no-op
	obs.Stop()

	// A stopped observer can be restarted
	if err := obs.Start(ctx); err != nil {
		t.Fatalf("restart Start() error = %v", err)
	}
	obs.Stop()
}

func TestObserver_CloseIdempotent(t *testing.T) {
	obs, err := New(testConfig(t), logging.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := obs.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := obs.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestObserver_Subscribe(t *testing.T) {
	obs := newTestObserver(t)

	id, events := obs.Subscribe(4)
	defer obs.Unsubscribe(id)

	unit, err := obs.Observe(context.Background(), observeInput(1))
	if err != nil {
		t.Fatalf("Observe() error = %v", err)
	}

	select {
	case event := <-events:
		if event.Kind != pipeline.EventUnitRecorded {
			t.Errorf("event Kind = %q, want %q", event.Kind, pipeline.EventUnitRecorded)
		}
		if event.Unit == nil || event.Unit.ID != unit.ID {
			t.Errorf("event Unit = %v, want the observed unit", event.Unit)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed event")
	}
}

func TestObserver_NewFromFileAndThresholdReload(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "ganymede.yaml")

	writeConfig := func(ksCritical float64) {
		content := fmt.Sprintf(`storage:
  data_dir: %s
baseline:
  db_path: %s
drift:
  thresholds:
    ks_critical: %.2f
`, filepath.Join(dir, "telemetry"), filepath.Join(dir, "baselines.db"), ksCritical)
		if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
	}
	writeConfig(0.60)

	obs, err := NewFromFile(configPath)
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}
	t.Cleanup(func() { obs.Close() })

	if got := obs.Thresholds().KSCritical; got != 0.60 {
		t.Fatalf("initial KSCritical = %v, want 0.60", got)
	}

	writeConfig(0.90)
	if err := obs.reloadThresholds(); err != nil {
		t.Fatalf("reloadThresholds() error = %v", err)
	}
	if got := obs.Thresholds().KSCritical; got != 0.90 {
		t.Errorf("reloaded KSCritical = %v, want 0.90", got)
	}

	// Unrelated thresholds keep their defaults through the reload
	if got := obs.Thresholds().EntropyLow; got != config.DefaultDriftEntropyLow {
		t.Errorf("EntropyLow = %v, want default %v", got, config.DefaultDriftEntropyLow)
	}
}

func TestObserver_MetricsHandler(t *testing.T) {
	obs := newTestObserver(t)

	if obs.MetricsHandler() == nil {
		t.Error("MetricsHandler() returned nil")
	}
	if obs.Registry() == nil {
		t.Error("Registry() returned nil")
	}
}
