package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/telemetry/logging"
)

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()

	cfg := config.StorageConfig{
		DataDir:       dir,
		CacheSize:     100,
		ReportHistory: 50,
		FeedBuffer:    8,
	}
	s, err := NewStore(cfg, nil, logging.Nop())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func finalizedUnit(id string, completedAt time.Time) *pipeline.UnitRecord {
	return &pipeline.UnitRecord{
		ID:        id,
		CreatedAt: completedAt.Add(-time.Second),
		Strategy:  "three_hop",
		Stages: []pipeline.StageRecord{
			{
				Stage:        "retrieval",
				StartedAt:    completedAt.Add(-time.Second),
				DurationMS:   120,
				InputTokens:  100,
				OutputTokens: 50,
				TotalTokens:  150,
				CostUSD:      0.01,
				Success:      true,
				OutputSample: "retrieved three documents",
			},
		},
		DurationMS:  1000,
		TotalTokens: 150,
		CostUSD:     0.01,
		Success:     true,
		CompletedAt: completedAt,
	}
}

func testReport(ts time.Time, severity pipeline.Severity) *pipeline.DriftReport {
	return &pipeline.DriftReport{
		Timestamp:  ts,
		WindowSize: 50,
		Severity:   severity,
	}
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	defer s.Close()

	now := time.Now()
	for i, id := range []string{"u1", "u2", "u3"} {
		unit := finalizedUnit(id, now.Add(time.Duration(i)*time.Second))
		if err := s.Record(unit); err != nil {
			t.Fatalf("Record(%s) error = %v", id, err)
		}
	}

	recent := s.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d units, want 2", len(recent))
	}
	if recent[0].ID != "u3" || recent[1].ID != "u2" {
		t.Errorf("Recent(2) order = %s, %s, want u3, u2", recent[0].ID, recent[1].ID)
	}

	if all := s.Recent(0); len(all) != 3 {
		t.Errorf("Recent(0) returned %d units, want all 3", len(all))
	}
}

func TestStore_RecordValidation(t *testing.T) {
	now := time.Now()

	invalidStage := finalizedUnit("bad-stage", now)
	invalidStage.Stages[0].DurationMS = -5

	tests := []struct {
		name      string
		unit      *pipeline.UnitRecord
		wantField string
	}{
		{
			name:      "nil unit",
			unit:      nil,
			wantField: "unit",
		},
		{
			name: "unfinalized unit",
			unit: &pipeline.UnitRecord{
				ID:        "open",
				CreatedAt: now,
			},
			wantField: "completed_at",
		},
		{
			name: "missing id",
			unit: &pipeline.UnitRecord{
				CreatedAt:   now,
				CompletedAt: now,
			},
			wantField: "id",
		},
		{
			name:      "negative stage field",
			unit:      invalidStage,
			wantField: "duration_ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, t.TempDir())
			defer s.Close()

			err := s.Record(tt.unit)
			var ve *pipeline.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Record() error = %v, want ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
			if s.Size() != 0 {
				t.Error("rejected unit entered the cache")
			}
		})
	}
}

func TestStore_UnitFromCache(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	defer s.Close()

	if err := s.Record(finalizedUnit("u1", time.Now())); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	unit, err := s.Unit("u1")
	if err != nil {
		t.Fatalf("Unit() error = %v", err)
	}
	if unit == nil || unit.ID != "u1" {
		t.Fatalf("Unit() = %v, want unit u1", unit)
	}

	// Returned records are copies.
	unit.Strategy = "mutated"
	again, _ := s.Unit("u1")
	if again.Strategy != "three_hop" {
		t.Errorf("Strategy = %q, caller mutation reached the cache", again.Strategy)
	}
}

func TestStore_UnitFromJournalAfterEviction(t *testing.T) {
	dir := t.TempDir()
	cfg := config.StorageConfig{DataDir: dir, CacheSize: 2, ReportHistory: 50}
	s, err := NewStore(cfg, nil, logging.Nop())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer s.Close()

	now := time.Now()
	for i, id := range []string{"u1", "u2", "u3"} {
		if err := s.Record(finalizedUnit(id, now.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Record(%s) error = %v", id, err)
		}
	}

	if s.Size() != 2 {
		t.Fatalf("cache size = %d, want 2", s.Size())
	}
	if _, ok := s.cache.ByID("u1"); ok {
		t.Fatal("u1 should have been evicted from the cache")
	}

	unit, err := s.Unit("u1")
	if err != nil {
		t.Fatalf("Unit() error = %v", err)
	}
	if unit == nil || unit.ID != "u1" {
		t.Fatalf("Unit(u1) = %v, evicted unit should resolve via the journal", unit)
	}

	missing, err := s.Unit("nope")
	if err != nil {
		t.Fatalf("Unit(nope) error = %v", err)
	}
	if missing != nil {
		t.Errorf("Unit(nope) = %v, want nil", missing)
	}
}

func TestStore_CacheEvictionKeepsNewest(t *testing.T) {
	cfg := config.StorageConfig{DataDir: t.TempDir(), CacheSize: 3}
	s, err := NewStore(cfg, nil, logging.Nop())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer s.Close()

	now := time.Now()
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		if err := s.Record(finalizedUnit(id, now.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	recent := s.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("cache holds %d units, want 3", len(recent))
	}
	want := []string{"e", "d", "c"}
	for i, unit := range recent {
		if unit.ID != want[i] {
			t.Errorf("recent[%d] = %s, want %s", i, unit.ID, want[i])
		}
	}
}

func TestStore_WindowSince(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	defer s.Close()

	end := time.Now()
	start := end.Add(-30 * time.Minute)

	inside1 := finalizedUnit("in1", end.Add(-20*time.Minute))
	inside2 := finalizedUnit("in2", end.Add(-10*time.Minute))
	before := finalizedUnit("before", end.Add(-2*time.Hour))
	atStart := finalizedUnit("at-start", start)
	atEnd := finalizedUnit("at-end", end)

	for _, unit := range []*pipeline.UnitRecord{inside2, before, inside1, atStart, atEnd} {
		if err := s.Record(unit); err != nil {
			t.Fatalf("Record(%s) error = %v", unit.ID, err)
		}
	}

	units, err := s.WindowSince(start, end)
	if err != nil {
		t.Fatalf("WindowSince() error = %v", err)
	}

	// Half-open interval: the start boundary is included, the end is not.
	want := []string{"at-start", "in1", "in2"}
	if len(units) != len(want) {
		ids := make([]string, len(units))
		for i, u := range units {
			ids[i] = u.ID
		}
		t.Fatalf("WindowSince() = %v, want %v", ids, want)
	}
	for i, unit := range units {
		if unit.ID != want[i] {
			t.Errorf("units[%d] = %s, want %s (ascending by completion)", i, unit.ID, want[i])
		}
	}
}

func TestStore_WindowSince_EmptyAndInverted(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	defer s.Close()

	now := time.Now()
	units, err := s.WindowSince(now, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("WindowSince() error = %v", err)
	}
	if len(units) != 0 {
		t.Errorf("inverted window returned %d units, want 0", len(units))
	}
}

func TestStore_WindowSince_DegradedJournal(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)
	defer s.Close()

	// Point the journal at a regular file so appends and reads fail.
	blocked := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	s.journal.dir = blocked

	now := time.Now()
	if err := s.Record(finalizedUnit("u1", now)); err != nil {
		t.Fatalf("Record() error = %v, a degraded journal must not fail ingestion", err)
	}
	if s.Pending() == 0 {
		t.Error("failed append should be parked for retry")
	}

	units, err := s.WindowSince(now.Add(-time.Hour), now.Add(time.Hour))
	if err == nil {
		t.Error("WindowSince() should surface the partition read failure")
	}
	if len(units) != 1 || units[0].ID != "u1" {
		t.Fatalf("WindowSince() = %d units, cache must keep the window complete", len(units))
	}

	var se *pipeline.StorageError
	if !errors.As(err, &se) {
		t.Errorf("error = %T, want StorageError", err)
	}
}

func TestStore_ReportHistory(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	defer s.Close()

	now := time.Now()
	severities := []pipeline.Severity{pipeline.SeverityNone, pipeline.SeverityMedium, pipeline.SeverityHigh}
	for i, sev := range severities {
		if err := s.RecordReport(testReport(now.Add(time.Duration(i)*time.Minute), sev)); err != nil {
			t.Fatalf("RecordReport() error = %v", err)
		}
	}

	history := s.ReportHistory(2)
	if len(history) != 2 {
		t.Fatalf("ReportHistory(2) returned %d reports, want 2", len(history))
	}
	if history[0].Severity != pipeline.SeverityHigh {
		t.Errorf("history[0].Severity = %s, want high (newest first)", history[0].Severity)
	}

	all := s.Reports()
	if len(all) != 3 {
		t.Fatalf("Reports() returned %d, want 3", len(all))
	}
	if all[0].Severity != pipeline.SeverityNone {
		t.Errorf("Reports()[0].Severity = %s, want none (append order)", all[0].Severity)
	}
}

func TestStore_RecordReportValidation(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	defer s.Close()

	var ve *pipeline.ValidationError
	if err := s.RecordReport(nil); !errors.As(err, &ve) {
		t.Errorf("RecordReport(nil) error = %v, want ValidationError", err)
	}
	if err := s.RecordReport(&pipeline.DriftReport{}); !errors.As(err, &ve) {
		t.Errorf("RecordReport(zero timestamp) error = %v, want ValidationError", err)
	}
}

func TestStore_Feed(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	defer s.Close()

	id, ch := s.Subscribe(4)

	if err := s.Record(finalizedUnit("u1", time.Now())); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Kind != pipeline.EventUnitRecorded {
			t.Errorf("Kind = %s, want %s", ev.Kind, pipeline.EventUnitRecorded)
		}
		if ev.Unit == nil || ev.Unit.ID != "u1" {
			t.Errorf("event unit = %v, want u1", ev.Unit)
		}
	case <-time.After(time.Second):
		t.Fatal("no feed event for recorded unit")
	}

	if err := s.RecordReport(testReport(time.Now(), pipeline.SeverityLow)); err != nil {
		t.Fatalf("RecordReport() error = %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Kind != pipeline.EventReportRecorded {
			t.Errorf("Kind = %s, want %s", ev.Kind, pipeline.EventReportRecorded)
		}
		if ev.Report == nil {
			t.Error("event report is nil")
		}
	case <-time.After(time.Second):
		t.Fatal("no feed event for recorded report")
	}

	s.Unsubscribe(id)
	if _, open := <-ch; open {
		t.Error("channel should be closed after Unsubscribe")
	}
}

func TestStore_FeedNeverBlocksProducer(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	defer s.Close()

	_, ch := s.Subscribe(1)

	now := time.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			id := string(rune('a' + i))
			if err := s.Record(finalizedUnit(id, now.Add(time.Duration(i)*time.Second))); err != nil {
				t.Errorf("Record() error = %v", err)
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer blocked on a lagging subscriber")
	}

	// The single-slot buffer holds the first event; the rest were dropped.
	if len(ch) != 1 {
		t.Errorf("buffered events = %d, want 1", len(ch))
	}
}

func TestStore_Close(t *testing.T) {
	s := newTestStore(t, t.TempDir())

	if err := s.Record(finalizedUnit("u1", time.Now())); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	_, ch := s.Subscribe(2)

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, open := <-ch; open {
		t.Error("subscriber channel should be closed on Close")
	}

	if err := s.Record(finalizedUnit("u2", time.Now())); err == nil {
		t.Error("Record() after Close should fail")
	}

	// Reads keep working after close.
	if got := s.Recent(0); len(got) != 1 {
		t.Errorf("Recent() after Close returned %d units, want 1", len(got))
	}

	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestStore_WarmLoad(t *testing.T) {
	dir := t.TempDir()

	first := newTestStore(t, dir)
	now := time.Now()
	for i, id := range []string{"u1", "u2"} {
		if err := first.Record(finalizedUnit(id, now.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if err := first.RecordReport(testReport(now, pipeline.SeverityMedium)); err != nil {
		t.Fatalf("RecordReport() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second := newTestStore(t, dir)
	defer second.Close()

	if got := second.Recent(0); len(got) != 2 {
		t.Fatalf("warm-loaded cache holds %d units, want 2", len(got))
	}
	unit, err := second.Unit("u2")
	if err != nil || unit == nil {
		t.Fatalf("Unit(u2) = %v, %v after warm load", unit, err)
	}
	if got := second.ReportHistory(0); len(got) != 1 {
		t.Errorf("warm-loaded history holds %d reports, want 1", len(got))
	}
}

func TestStore_WarmLoadKeepsNewest(t *testing.T) {
	dir := t.TempDir()

	first := newTestStore(t, dir)
	now := time.Now()
	for i := 0; i < 6; i++ {
		id := string(rune('a' + i))
		if err := first.Record(finalizedUnit(id, now.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	first.Close()

	cfg := config.StorageConfig{DataDir: dir, CacheSize: 3}
	second, err := NewStore(cfg, nil, logging.Nop())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer second.Close()

	recent := second.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("warm-loaded cache holds %d units, want 3", len(recent))
	}
	if recent[0].ID != "f" {
		t.Errorf("newest warm-loaded unit = %s, want f", recent[0].ID)
	}
}
