package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/stats"
)

func exportUnit(id string) *pipeline.UnitRecord {
	now := time.Date(2026, 4, 12, 9, 30, 0, 0, time.UTC)
	return &pipeline.UnitRecord{
		ID:        id,
		CreatedAt: now,
		Strategy:  "react",
		Attrs:     map[string]string{"tenant": "acme"},
		Stages: []pipeline.StageRecord{
			{
				Stage:        "analyst",
				StartedAt:    now,
				DurationMS:   120.5,
				InputTokens:  200,
				OutputTokens: 300,
				TotalTokens:  500,
				CostUSD:      0.0125,
				Success:      true,
				OutputSample: "summarized three sources",
				Model:        "claude-3-5-sonnet",
			},
		},
		DurationMS:  120.5,
		TotalTokens: 500,
		CostUSD:     0.0125,
		Success:     true,
		CompletedAt: now.Add(121 * time.Millisecond),
	}
}

func exportReport(severity pipeline.Severity) *pipeline.DriftReport {
	return &pipeline.DriftReport{
		Timestamp:       time.Date(2026, 4, 12, 10, 0, 0, 0, time.UTC),
		BaselineVersion: 3,
		WindowSize:      40,
		CharEntropy:     pipeline.EntropyDelta{Baseline: 4.2, Current: 3.1, Change: 1.1, ChangePct: 26.19},
		WordEntropy:     pipeline.EntropyDelta{Baseline: 7.8, Current: 7.5, Change: 0.3, ChangePct: 3.85},
		Duration: stats.Result{
			Statistic:     0.42,
			CriticalValue: 0.35,
			EffectiveN:    40,
			Confidence:    stats.ConfidenceMedium,
			Drift:         true,
		},
		Severity:   severity,
		Indicators: []string{"character entropy changed by 26.2%", "duration distribution has drifted"},
		Summary: pipeline.StatSummary{
			DurationMS: pipeline.MetricAverages{Baseline: 150, Current: 310},
		},
		Recommendations: []string{"average duration increased by 106.7%"},
	}
}

func TestJSONExporter_ExportUnits_Empty(t *testing.T) {
	exporter := NewJSONExporter(false)
	var buf bytes.Buffer

	err := exporter.ExportUnits(context.Background(), nil, &buf)
	if err != nil {
		t.Fatalf("ExportUnits() error = %v", err)
	}

	if buf.String() != "[]" {
		t.Errorf("ExportUnits() = %q, want %q", buf.String(), "[]")
	}
}

func TestJSONExporter_ExportUnits_Single(t *testing.T) {
	exporter := NewJSONExporter(false)
	var buf bytes.Buffer

	err := exporter.ExportUnits(context.Background(), []*pipeline.UnitRecord{exportUnit("unit-1")}, &buf)
	if err != nil {
		t.Fatalf("ExportUnits() error = %v", err)
	}

	// A single record exports as an object, not a one-element array
	var decoded pipeline.UnitRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if decoded.ID != "unit-1" {
		t.Errorf("decoded ID = %q, want %q", decoded.ID, "unit-1")
	}
	if len(decoded.Stages) != 1 || decoded.Stages[0].Stage != "analyst" {
		t.Errorf("decoded stages = %+v, want one analyst stage", decoded.Stages)
	}
	if decoded.Attrs["tenant"] != "acme" {
		t.Errorf("decoded attrs = %v, want tenant=acme", decoded.Attrs)
	}
}

func TestJSONExporter_ExportUnits_Multiple(t *testing.T) {
	units := []*pipeline.UnitRecord{
		exportUnit("unit-1"),
		exportUnit("unit-2"),
		exportUnit("unit-3"),
	}

	exporter := NewJSONExporter(false)
	var buf bytes.Buffer

	err := exporter.ExportUnits(context.Background(), units, &buf)
	if err != nil {
		t.Fatalf("ExportUnits() error = %v", err)
	}

	var decoded []*pipeline.UnitRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if len(decoded) != 3 {
		t.Fatalf("decoded length = %d, want 3", len(decoded))
	}
	for i, unit := range units {
		if decoded[i].ID != unit.ID {
			t.Errorf("decoded[%d].ID = %q, want %q", i, decoded[i].ID, unit.ID)
		}
	}
}

func TestJSONExporter_ExportUnits_Pretty(t *testing.T) {
	exporter := NewJSONExporter(true)
	var buf bytes.Buffer

	err := exporter.ExportUnits(context.Background(), []*pipeline.UnitRecord{exportUnit("unit-1")}, &buf)
	if err != nil {
		t.Fatalf("ExportUnits() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "\n") {
		t.Error("pretty-printed JSON missing newlines")
	}
	if !strings.Contains(output, "  ") {
		t.Error("pretty-printed JSON missing indentation")
	}

	var decoded pipeline.UnitRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode pretty-printed JSON: %v", err)
	}
}

func TestJSONExporter_ExportReports(t *testing.T) {
	reports := []*pipeline.DriftReport{
		exportReport(pipeline.SeverityHigh),
		exportReport(pipeline.SeverityMedium),
	}

	exporter := NewJSONExporter(false)
	var buf bytes.Buffer

	err := exporter.ExportReports(context.Background(), reports, &buf)
	if err != nil {
		t.Fatalf("ExportReports() error = %v", err)
	}

	var decoded []*pipeline.DriftReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if len(decoded) != 2 {
		t.Fatalf("decoded length = %d, want 2", len(decoded))
	}
	if decoded[0].Severity != pipeline.SeverityHigh {
		t.Errorf("decoded[0].Severity = %q, want high", decoded[0].Severity)
	}
	if !decoded[0].Duration.Drift {
		t.Error("decoded[0].Duration.Drift = false, want true")
	}
	if decoded[0].Duration.Confidence != stats.ConfidenceMedium {
		t.Errorf("decoded[0].Duration.Confidence = %q, want medium", decoded[0].Duration.Confidence)
	}
	if len(decoded[0].Indicators) != 2 {
		t.Errorf("decoded[0].Indicators length = %d, want 2", len(decoded[0].Indicators))
	}
}

func TestJSONExporter_ExportReports_Empty(t *testing.T) {
	exporter := NewJSONExporter(false)
	var buf bytes.Buffer

	err := exporter.ExportReports(context.Background(), nil, &buf)
	if err != nil {
		t.Fatalf("ExportReports() error = %v", err)
	}

	if buf.String() != "[]" {
		t.Errorf("ExportReports() = %q, want %q", buf.String(), "[]")
	}
}

func TestJSONExporter_ExportUnits_SpecialCharacters(t *testing.T) {
	unit := exportUnit("unit-1")
	unit.Stages[0].OutputSample = "line 1\nline 2\ttabbed \"quoted\" \\escaped"
	unit.Stages[0].Error = "upstream said: <fault>"

	exporter := NewJSONExporter(false)
	var buf bytes.Buffer

	err := exporter.ExportUnits(context.Background(), []*pipeline.UnitRecord{unit}, &buf)
	if err != nil {
		t.Fatalf("ExportUnits() error = %v", err)
	}

	var decoded pipeline.UnitRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode JSON with special chars: %v", err)
	}

	if decoded.Stages[0].OutputSample != unit.Stages[0].OutputSample {
		t.Errorf("OutputSample not preserved: got %q", decoded.Stages[0].OutputSample)
	}
	if decoded.Stages[0].Error != unit.Stages[0].Error {
		t.Errorf("Error not preserved: got %q", decoded.Stages[0].Error)
	}
}

func TestJSONExporter_ExportUnits_Timestamps(t *testing.T) {
	unit := exportUnit("unit-1")

	exporter := NewJSONExporter(false)
	var buf bytes.Buffer

	err := exporter.ExportUnits(context.Background(), []*pipeline.UnitRecord{unit}, &buf)
	if err != nil {
		t.Fatalf("ExportUnits() error = %v", err)
	}

	var decoded pipeline.UnitRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if !decoded.CreatedAt.Equal(unit.CreatedAt) {
		t.Errorf("CreatedAt not preserved: got %v, want %v", decoded.CreatedAt, unit.CreatedAt)
	}
	if !decoded.CompletedAt.Equal(unit.CompletedAt) {
		t.Errorf("CompletedAt not preserved: got %v, want %v", decoded.CompletedAt, unit.CompletedAt)
	}
}
