package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/pipeline"
)

var driftFlags struct {
	limit  int
	format string
	failOn string
}

var driftCmd = &cobra.Command{
	Use:   "drift",
	Short: "Analyze and inspect pipeline drift",
	Long: `Analyze the current window against the active baseline and inspect
drift report history.

Subcommands:
  analyze - run one analysis cycle now
  history - list recent drift reports
  alerts  - list reports at severity low or above

Examples:
  # Run an analysis and fail the process on high severity
  ganymede drift analyze --fail-on high

  # Show the last ten reports as JSON
  ganymede drift history --limit 10 --format json`,
}

var driftAnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one drift analysis cycle",
	Long: `Run one drift analysis cycle against the active baseline and print the
resulting report. Analysis always produces a report; with no baseline or
too little data it degrades to severity none.`,
	RunE: runDriftAnalyze,
}

var driftHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent drift reports",
	RunE:  runDriftHistory,
}

var driftAlertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List drift reports at severity low or above",
	RunE:  runDriftAlerts,
}

func init() {
	rootCmd.AddCommand(driftCmd)
	driftCmd.AddCommand(driftAnalyzeCmd, driftHistoryCmd, driftAlertsCmd)

	driftAnalyzeCmd.Flags().StringVar(&driftFlags.format, "format", "text", "output format: text, json, csv")
	driftAnalyzeCmd.Flags().StringVar(&driftFlags.failOn, "fail-on", "", "exit non-zero when severity reaches this level")

	driftHistoryCmd.Flags().IntVar(&driftFlags.limit, "limit", 10, "max reports to list (0 lists all)")
	driftHistoryCmd.Flags().StringVar(&driftFlags.format, "format", "text", "output format: text, json, csv")

	driftAlertsCmd.Flags().IntVar(&driftFlags.limit, "limit", 10, "max alerts to list (0 lists all)")
	driftAlertsCmd.Flags().StringVar(&driftFlags.format, "format", "text", "output format: text, json, csv")
}

func runDriftAnalyze(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(driftFlags.format)
	if err != nil {
		return err
	}

	var failAt pipeline.Severity
	if driftFlags.failOn != "" {
		failAt, err = parseSeverity(driftFlags.failOn)
		if err != nil {
			return err
		}
	}

	obs, _, err := openObserver()
	if err != nil {
		return err
	}
	defer obs.Close()

	report := obs.Analyze()
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, report); err != nil {
		return err
	}

	if driftFlags.failOn != "" && report.Severity.AtLeast(failAt) {
		return cli.NewCommandError("drift analyze",
			fmt.Errorf("severity %s reached the --fail-on threshold %s", report.Severity, failAt))
	}
	return nil
}

func runDriftHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(driftFlags.format)
	if err != nil {
		return err
	}

	obs, _, err := openObserver()
	if err != nil {
		return err
	}
	defer obs.Close()

	reports := obs.DriftHistory(driftFlags.limit)
	return cli.NewFormatter(format).FormatTo(os.Stdout, reports)
}

func runDriftAlerts(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(driftFlags.format)
	if err != nil {
		return err
	}

	obs, _, err := openObserver()
	if err != nil {
		return err
	}
	defer obs.Close()

	alerts := obs.Alerts(driftFlags.limit)
	return cli.NewFormatter(format).FormatTo(os.Stdout, alerts)
}

// parseSeverity validates a severity flag value.
func parseSeverity(s string) (pipeline.Severity, error) {
	switch sev := pipeline.Severity(s); sev {
	case pipeline.SeverityNone, pipeline.SeverityLow, pipeline.SeverityMedium,
		pipeline.SeverityHigh, pipeline.SeverityCritical:
		return sev, nil
	default:
		return "", fmt.Errorf("unknown severity: %q (supported: none, low, medium, high, critical)", s)
	}
}
