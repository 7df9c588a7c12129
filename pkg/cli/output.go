package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/pipeline/export"
	"mercator-hq/ganymede/pkg/pipeline/summary"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
)

// ParseFormat validates a --format flag value. An empty string selects the
// text format.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatText, FormatJSON, FormatCSV:
		return OutputFormat(s), nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported output format: %q (supported: text, json, csv)", s)
	}
}

// Formatter formats command output.
type Formatter interface {
	Format(data interface{}) ([]byte, error)
	FormatTo(w io.Writer, data interface{}) error
}

// TextFormatter formats output as human-readable text. Unit records, drift
// reports, baselines, and summaries get dedicated renderings; anything else
// falls back to the fmt verb.
type TextFormatter struct{}

// Format converts data to text format.
func (f *TextFormatter) Format(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.FormatTo(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case *summary.Summary:
		return renderSummary(w, v)
	case *pipeline.UnitRecord:
		return renderUnit(w, v)
	case []*pipeline.UnitRecord:
		return renderUnits(w, v)
	case *pipeline.DriftReport:
		return renderReport(w, v)
	case []*pipeline.DriftReport:
		return renderReports(w, v)
	case *pipeline.Baseline:
		return renderBaseline(w, v)
	case []*pipeline.Baseline:
		return renderBaselines(w, v)
	default:
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format converts data to JSON format.
func (f *JSONFormatter) Format(data interface{}) ([]byte, error) {
	if f.Indent {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter formats unit records and drift reports as CSV by delegating
// to the export package. Types without a row shape are rejected.
type CSVFormatter struct {
	IncludeHeader bool
}

// Format converts data to CSV format.
func (f *CSVFormatter) Format(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.FormatTo(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatTo writes data to writer in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data interface{}) error {
	exporter := export.NewCSVExporter(f.IncludeHeader)
	ctx := context.Background()

	switch v := data.(type) {
	case *pipeline.UnitRecord:
		return exporter.ExportUnits(ctx, []*pipeline.UnitRecord{v}, w)
	case []*pipeline.UnitRecord:
		return exporter.ExportUnits(ctx, v, w)
	case *pipeline.DriftReport:
		return exporter.ExportReports(ctx, []*pipeline.DriftReport{v}, w)
	case []*pipeline.DriftReport:
		return exporter.ExportReports(ctx, v, w)
	default:
		return fmt.Errorf("csv output not supported for %T", data)
	}
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{IncludeHeader: true}
	default:
		return &TextFormatter{}
	}
}
