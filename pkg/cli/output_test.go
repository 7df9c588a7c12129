package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/pipeline"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{name: "text", input: "text", want: FormatText},
		{name: "json", input: "json", want: FormatJSON},
		{name: "csv", input: "csv", want: FormatCSV},
		{name: "empty defaults to text", input: "", want: FormatText},
		{name: "unknown", input: "yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseFormat(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTextFormatterFallback(t *testing.T) {
	formatter := &TextFormatter{}
	data := "test message"

	output, err := formatter.Format(data)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	expected := "test message\n"
	if string(output) != expected {
		t.Errorf("Format() = %q, want %q", string(output), expected)
	}
}

func TestJSONFormatter(t *testing.T) {
	tests := []struct {
		name   string
		data   interface{}
		indent bool
	}{
		{
			name:   "simple string",
			data:   "test",
			indent: false,
		},
		{
			name: "map with indent",
			data: map[string]string{
				"key": "value",
			},
			indent: true,
		},
		{
			name:   "unit record",
			data:   listUnit("unit-json", true),
			indent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &JSONFormatter{Indent: tt.indent}
			output, err := formatter.Format(tt.data)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			// Verify it's valid JSON by unmarshaling
			var result interface{}
			if err := json.Unmarshal(output, &result); err != nil {
				t.Errorf("Format() produced invalid JSON: %v", err)
			}
		})
	}
}

func TestJSONFormatterWriter(t *testing.T) {
	formatter := &JSONFormatter{Indent: true}
	data := map[string]string{"test": "value"}
	buf := &bytes.Buffer{}

	err := formatter.FormatTo(buf, data)
	if err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var result map[string]string
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Errorf("FormatTo() produced invalid JSON: %v", err)
	}

	if result["test"] != "value" {
		t.Errorf("FormatTo() = %v, want %v", result, data)
	}
}

func TestCSVFormatterUnits(t *testing.T) {
	formatter := &CSVFormatter{IncludeHeader: true}
	units := []*pipeline.UnitRecord{
		listUnit("unit-1", true),
		listUnit("unit-2", false),
	}

	output, err := formatter.Format(units)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(output)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("row count = %d, want 3 (header + 2 units)", len(rows))
	}
	if rows[0][0] != "id" {
		t.Errorf("header[0] = %q, want %q", rows[0][0], "id")
	}
	if rows[1][0] != "unit-1" {
		t.Errorf("first data row id = %q, want %q", rows[1][0], "unit-1")
	}
}

func TestCSVFormatterUnsupportedType(t *testing.T) {
	formatter := &CSVFormatter{IncludeHeader: true}

	if _, err := formatter.Format(map[string]int{"x": 1}); err == nil {
		t.Error("Format() expected error for type without a row shape, got nil")
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name   string
		format OutputFormat
		want   string
	}{
		{
			name:   "text formatter",
			format: FormatText,
			want:   "*cli.TextFormatter",
		},
		{
			name:   "json formatter",
			format: FormatJSON,
			want:   "*cli.JSONFormatter",
		},
		{
			name:   "csv formatter",
			format: FormatCSV,
			want:   "*cli.CSVFormatter",
		},
		{
			name:   "default to text",
			format: "unknown",
			want:   "*cli.TextFormatter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := NewFormatter(tt.format)
			got := fmt.Sprintf("%T", formatter)
			if got != tt.want {
				t.Errorf("NewFormatter(%q) type = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}

// listUnit builds a finalized two-stage unit for formatter tests.
func listUnit(id string, success bool) *pipeline.UnitRecord {
	created := time.Date(2026, 5, 3, 14, 0, 0, 0, time.UTC)
	return &pipeline.UnitRecord{
		ID:        id,
		CreatedAt: created,
		Strategy:  "balanced",
		Attrs:     map[string]string{"tenant": "acme", "urgency": "high"},
		Stages: []pipeline.StageRecord{
			{
				Stage:        "analyst",
				StartedAt:    created,
				DurationMS:   120.5,
				InputTokens:  200,
				OutputTokens: 300,
				TotalTokens:  500,
				CostUSD:      0.0125,
				Success:      true,
				Model:        "claude-3-5-sonnet",
			},
			{
				Stage:       "writer",
				StartedAt:   created.Add(121 * time.Millisecond),
				DurationMS:  80,
				TotalTokens: 250,
				CostUSD:     0.006,
				Success:     success,
			},
		},
		DurationMS:  200.5,
		TotalTokens: 750,
		CostUSD:     0.0185,
		Success:     success,
		CompletedAt: created.Add(201 * time.Millisecond),
	}
}
