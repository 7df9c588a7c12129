package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"mercator-hq/ganymede/pkg/pipeline"
)

// CSVExporter exports unit records and drift reports to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// ExportUnits writes unit records to the provided writer in CSV format.
// Nested structures are flattened: attributes and stage names become
// JSON strings, stages become a count.
func (e *CSVExporter) ExportUnits(ctx context.Context, units []*pipeline.UnitRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(unitHeaderRow()); err != nil {
			return pipeline.NewExportError("csv", len(units), err)
		}
	}

	for _, unit := range units {
		if err := writer.Write(unitToRow(unit)); err != nil {
			return pipeline.NewExportError("csv", len(units), err)
		}
	}

	return nil
}

// ExportReports writes drift reports to the provided writer in CSV
// format, one row per report with per-metric results flattened into
// columns.
func (e *CSVExporter) ExportReports(ctx context.Context, reports []*pipeline.DriftReport, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(reportHeaderRow()); err != nil {
			return pipeline.NewExportError("csv", len(reports), err)
		}
	}

	for _, report := range reports {
		if err := writer.Write(reportToRow(report)); err != nil {
			return pipeline.NewExportError("csv", len(reports), err)
		}
	}

	return nil
}

// ExportUnitStream exports unit records from a channel to CSV format.
// This is memory-efficient for large result sets as it streams records
// one at a time instead of loading all records in memory.
//
// The CSV writer flushes periodically to provide progress feedback
// for long-running exports.
func (e *CSVExporter) ExportUnitStream(ctx context.Context, unitsCh <-chan *pipeline.UnitRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(unitHeaderRow()); err != nil {
			return pipeline.NewExportError("csv", 0, err)
		}
	}

	recordCount := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case unit, ok := <-unitsCh:
			if !ok {
				// Channel closed - flush and return
				writer.Flush()
				if err := writer.Error(); err != nil {
					return pipeline.NewExportError("csv", recordCount, err)
				}
				return nil
			}

			if err := writer.Write(unitToRow(unit)); err != nil {
				return pipeline.NewExportError("csv", recordCount, err)
			}

			recordCount++

			// Flush every 100 records so long exports show progress
			if recordCount%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return pipeline.NewExportError("csv", recordCount, err)
				}
			}
		}
	}
}

// unitHeaderRow returns the CSV header row for unit records.
func unitHeaderRow() []string {
	return []string{
		"id", "created_at", "completed_at", "strategy", "attrs",
		"stages", "stage_names",
		"duration_ms", "total_tokens", "cost_usd", "success",
	}
}

// unitToRow converts a unit record to a CSV row.
func unitToRow(unit *pipeline.UnitRecord) []string {
	names := make([]string, 0, len(unit.Stages))
	for i := range unit.Stages {
		names = append(names, unit.Stages[i].Stage)
	}

	return []string{
		unit.ID,
		formatTime(unit.CreatedAt),
		formatTime(unit.CompletedAt),
		unit.Strategy,
		formatJSON(unit.Attrs),
		fmt.Sprintf("%d", len(unit.Stages)),
		formatJSON(names),
		fmt.Sprintf("%.2f", unit.DurationMS),
		fmt.Sprintf("%d", unit.TotalTokens),
		fmt.Sprintf("%.6f", unit.CostUSD),
		fmt.Sprintf("%t", unit.Success),
	}
}

// reportHeaderRow returns the CSV header row for drift reports.
func reportHeaderRow() []string {
	return []string{
		"timestamp", "baseline_version", "window_size", "severity",
		"char_entropy_baseline", "char_entropy_current", "char_entropy_change_pct",
		"word_entropy_baseline", "word_entropy_current", "word_entropy_change_pct",
		"duration_ks", "duration_confidence", "duration_drift",
		"tokens_ks", "tokens_confidence", "tokens_drift",
		"cost_ks", "cost_confidence", "cost_drift",
		"baseline_avg_duration_ms", "current_avg_duration_ms",
		"baseline_avg_tokens", "current_avg_tokens",
		"baseline_avg_cost_usd", "current_avg_cost_usd",
		"indicators", "recommendations",
	}
}

// reportToRow converts a drift report to a CSV row.
func reportToRow(report *pipeline.DriftReport) []string {
	return []string{
		formatTime(report.Timestamp),
		fmt.Sprintf("%d", report.BaselineVersion),
		fmt.Sprintf("%d", report.WindowSize),
		string(report.Severity),
		fmt.Sprintf("%.4f", report.CharEntropy.Baseline),
		fmt.Sprintf("%.4f", report.CharEntropy.Current),
		fmt.Sprintf("%.2f", report.CharEntropy.ChangePct),
		fmt.Sprintf("%.4f", report.WordEntropy.Baseline),
		fmt.Sprintf("%.4f", report.WordEntropy.Current),
		fmt.Sprintf("%.2f", report.WordEntropy.ChangePct),
		fmt.Sprintf("%.4f", report.Duration.Statistic),
		string(report.Duration.Confidence),
		fmt.Sprintf("%t", report.Duration.Drift),
		fmt.Sprintf("%.4f", report.Tokens.Statistic),
		string(report.Tokens.Confidence),
		fmt.Sprintf("%t", report.Tokens.Drift),
		fmt.Sprintf("%.4f", report.Cost.Statistic),
		string(report.Cost.Confidence),
		fmt.Sprintf("%t", report.Cost.Drift),
		fmt.Sprintf("%.2f", report.Summary.DurationMS.Baseline),
		fmt.Sprintf("%.2f", report.Summary.DurationMS.Current),
		fmt.Sprintf("%.2f", report.Summary.Tokens.Baseline),
		fmt.Sprintf("%.2f", report.Summary.Tokens.Current),
		fmt.Sprintf("%.6f", report.Summary.CostUSD.Baseline),
		fmt.Sprintf("%.6f", report.Summary.CostUSD.Current),
		formatJSON(report.Indicators),
		formatJSON(report.Recommendations),
	}
}

// formatTime renders a timestamp as RFC3339, or empty for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// formatJSON renders a nested value as a JSON string for a single cell.
func formatJSON(v interface{}) string {
	data, _ := json.Marshal(v)
	return string(data)
}
