package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
)

var summaryFlags struct {
	hours  int
	format string
	alerts int
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize recorded units over a time window",
	Long: `Summarize the units recorded in a trailing time window: counts, success
rate, duration/token/cost totals and averages, and the most-used stages.

Examples:
  # Last 24 hours
  ganymede summary

  # Last 6 hours as JSON
  ganymede summary --hours 6 --format json

  # Include the five most recent drift alerts
  ganymede summary --alerts 5`,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().IntVar(&summaryFlags.hours, "hours", 24, "window size in hours")
	summaryCmd.Flags().StringVar(&summaryFlags.format, "format", "text", "output format: text, json")
	summaryCmd.Flags().IntVar(&summaryFlags.alerts, "alerts", 0, "append up to N recent drift alerts")
}

func runSummary(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(summaryFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return fmt.Errorf("csv output not supported for summaries")
	}

	obs, _, err := openObserver()
	if err != nil {
		return err
	}
	defer obs.Close()

	s, err := obs.Summarize(summaryFlags.hours)
	if err != nil {
		if s == nil {
			return cli.NewCommandError("summary", err)
		}
		// Partial journal reads still produce a usable summary.
		fmt.Fprintf(os.Stderr, "warning: window read degraded: %v\n", err)
	}

	formatter := cli.NewFormatter(format)
	if err := formatter.FormatTo(os.Stdout, s); err != nil {
		return err
	}

	if summaryFlags.alerts > 0 {
		alerts := obs.Alerts(summaryFlags.alerts)
		if format == cli.FormatText {
			fmt.Println()
			fmt.Println("Recent Alerts:")
		}
		if err := formatter.FormatTo(os.Stdout, alerts); err != nil {
			return err
		}
	}

	return nil
}
