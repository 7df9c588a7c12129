package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/pipeline/summary"
	"mercator-hq/ganymede/pkg/stats"
)

// Listing renderers truncate long result sets; exports carry the full set.
const (
	maxListedUnits   = 10
	maxListedReports = 10
)

func renderSummary(w io.Writer, s *summary.Summary) error {
	fmt.Fprintln(w, "Pipeline Summary")
	fmt.Fprintln(w, "================")
	fmt.Fprintf(w, "Window: last %dh\n", s.WindowHours)
	fmt.Fprintf(w, "Generated: %s\n", s.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintln(w)

	if s.Units == 0 {
		fmt.Fprintln(w, "No units recorded in window.")
		return nil
	}

	fmt.Fprintf(w, "Units: %d (%d succeeded, %.1f%% success)\n", s.Units, s.Succeeded, s.SuccessRate)
	fmt.Fprintf(w, "Avg Duration: %.1f ms (total %.1f ms)\n", s.AvgDurationMS, s.TotalDurationMS)
	fmt.Fprintf(w, "Avg Tokens: %.1f (total %d)\n", s.AvgTokens, s.TotalTokens)
	fmt.Fprintf(w, "Avg Cost: $%.4f (total $%.4f)\n", s.AvgCostUSD, s.TotalCostUSD)

	if len(s.TopStages) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Top Stages:")
		for _, sc := range s.TopStages {
			fmt.Fprintf(w, "  %s: %d executions\n", sc.Stage, sc.Count)
		}
	}

	return nil
}

func renderUnits(w io.Writer, units []*pipeline.UnitRecord) error {
	fmt.Fprintf(w, "Total units: %d\n", len(units))

	if len(units) == 0 {
		fmt.Fprintln(w, "No units found.")
		return nil
	}

	for i, unit := range units {
		fmt.Fprintln(w)
		writeUnitSummary(w, unit)

		// Show limited output for large result sets
		if i >= maxListedUnits-1 && len(units) > maxListedUnits {
			remaining := len(units) - maxListedUnits
			fmt.Fprintln(w)
			fmt.Fprintf(w, "... and %d more units\n", remaining)
			fmt.Fprintln(w, "Use --limit or an export for the full set.")
			break
		}
	}

	return nil
}

func renderUnit(w io.Writer, unit *pipeline.UnitRecord) error {
	writeUnitSummary(w, unit)

	if len(unit.Stages) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Stage Breakdown:")
		for i, stage := range unit.Stages {
			outcome := "ok"
			if !stage.Success {
				outcome = "failed"
				if stage.Error != "" {
					outcome = "failed: " + stage.Error
				}
			}
			fmt.Fprintf(w, "  %d. %s: %.2f ms, %d tokens, $%.4f (%s)\n",
				i+1, stage.Stage, stage.DurationMS, stage.TotalTokens, stage.CostUSD, outcome)
		}
	}

	return nil
}

func writeUnitSummary(w io.Writer, unit *pipeline.UnitRecord) {
	fmt.Fprintf(w, "Unit ID: %s\n", unit.ID)
	fmt.Fprintf(w, "Created: %s\n", unit.CreatedAt.Format(time.RFC3339))
	if unit.Strategy != "" {
		fmt.Fprintf(w, "Strategy: %s\n", unit.Strategy)
	}
	if len(unit.Attrs) > 0 {
		fmt.Fprintf(w, "Attributes: %s\n", formatAttrs(unit.Attrs))
	}
	if len(unit.Stages) > 0 {
		fmt.Fprintf(w, "Stages: %d (%s)\n", len(unit.Stages), strings.Join(stageNames(unit), ", "))
	} else {
		fmt.Fprintln(w, "Stages: 0")
	}
	fmt.Fprintf(w, "Duration: %.2f ms\n", unit.DurationMS)
	fmt.Fprintf(w, "Tokens: %d\n", unit.TotalTokens)
	fmt.Fprintf(w, "Cost: $%.4f\n", unit.CostUSD)
	fmt.Fprintf(w, "Success: %t\n", unit.Success)
}

func renderReport(w io.Writer, r *pipeline.DriftReport) error {
	fmt.Fprintf(w, "Analyzed: %s\n", r.Timestamp.Format(time.RFC3339))
	if r.BaselineVersion == 0 {
		fmt.Fprintln(w, "Baseline: none")
	} else {
		fmt.Fprintf(w, "Baseline: version %d\n", r.BaselineVersion)
	}
	fmt.Fprintf(w, "Window: %d units\n", r.WindowSize)
	fmt.Fprintf(w, "Severity: %s\n", r.Severity)
	fmt.Fprintln(w)

	writeEntropyLine(w, "Character Entropy", r.CharEntropy)
	writeEntropyLine(w, "Word Entropy", r.WordEntropy)
	writeMetricLine(w, "Duration", r.Duration)
	writeMetricLine(w, "Tokens", r.Tokens)
	writeMetricLine(w, "Cost", r.Cost)

	if r.BaselineVersion > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Baseline vs Current Means:")
		fmt.Fprintf(w, "  Duration: %.1f ms -> %.1f ms\n", r.Summary.DurationMS.Baseline, r.Summary.DurationMS.Current)
		fmt.Fprintf(w, "  Tokens: %.1f -> %.1f\n", r.Summary.Tokens.Baseline, r.Summary.Tokens.Current)
		fmt.Fprintf(w, "  Cost: $%.4f -> $%.4f\n", r.Summary.CostUSD.Baseline, r.Summary.CostUSD.Current)
	}

	if len(r.Indicators) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Indicators:")
		for _, ind := range r.Indicators {
			fmt.Fprintf(w, "  - %s\n", ind)
		}
	}
	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Recommendations:")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}

	return nil
}

func renderReports(w io.Writer, reports []*pipeline.DriftReport) error {
	fmt.Fprintf(w, "Total reports: %d\n", len(reports))

	if len(reports) == 0 {
		fmt.Fprintln(w, "No drift reports recorded.")
		return nil
	}

	for i, r := range reports {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "[%s] severity=%s baseline=%d window=%d\n",
			r.Timestamp.Format(time.RFC3339), r.Severity, r.BaselineVersion, r.WindowSize)
		for _, ind := range r.Indicators {
			fmt.Fprintf(w, "  - %s\n", ind)
		}

		if i >= maxListedReports-1 && len(reports) > maxListedReports {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "... and %d more reports\n", len(reports)-maxListedReports)
			break
		}
	}

	return nil
}

func renderBaseline(w io.Writer, b *pipeline.Baseline) error {
	fmt.Fprintf(w, "Baseline: version %d\n", b.Version)
	fmt.Fprintf(w, "Established: %s\n", b.EstablishedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Samples: %d\n", b.SampleCount)
	fmt.Fprintf(w, "Character Entropy: %.2f bits\n", b.CharEntropy)
	fmt.Fprintf(w, "Word Entropy: %.2f bits\n", b.WordEntropy)
	fmt.Fprintf(w, "Avg Duration: %.1f ms\n", stats.Mean(b.Durations))
	fmt.Fprintf(w, "Avg Tokens: %.1f\n", stats.Mean(b.Tokens))
	fmt.Fprintf(w, "Avg Cost: $%.4f\n", stats.Mean(b.Costs))
	return nil
}

func renderBaselines(w io.Writer, baselines []*pipeline.Baseline) error {
	fmt.Fprintf(w, "Total baselines: %d\n", len(baselines))

	if len(baselines) == 0 {
		fmt.Fprintln(w, "No baselines established.")
		return nil
	}

	for _, b := range baselines {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Version %d: %d samples, established %s\n",
			b.Version, b.SampleCount, b.EstablishedAt.Format(time.RFC3339))
		fmt.Fprintf(w, "  char entropy %.2f, word entropy %.2f\n", b.CharEntropy, b.WordEntropy)
	}

	return nil
}

func writeEntropyLine(w io.Writer, label string, d pipeline.EntropyDelta) {
	fmt.Fprintf(w, "%s: %.2f -> %.2f (%.1f%% change)\n", label, d.Baseline, d.Current, d.ChangePct)
}

func writeMetricLine(w io.Writer, label string, r stats.Result) {
	line := fmt.Sprintf("%s: KS %.3f (critical %.3f, confidence %s)", label, r.Statistic, r.CriticalValue, r.Confidence)
	if r.InsufficientData {
		line += " [insufficient data]"
	} else if r.Drift {
		line += " DRIFT"
	}
	fmt.Fprintln(w, line)
}

func formatAttrs(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+attrs[k])
	}
	return strings.Join(pairs, " ")
}

func stageNames(unit *pipeline.UnitRecord) []string {
	names := make([]string, len(unit.Stages))
	for i := range unit.Stages {
		names[i] = unit.Stages[i].Stage
	}
	return names
}
