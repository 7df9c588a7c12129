package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/pipeline"
)

var unitsFlags struct {
	limit     int
	id        string
	timeRange string
	format    string
}

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List recorded pipeline units",
	Long: `List recorded pipeline units from the unit cache and journal.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-08-22T00:00:00Z/2026-08-23T00:00:00Z"

Examples:
  # Twenty most recent units
  ganymede units

  # One unit in full detail
  ganymede units --id 6f1cbb7e-9f20-4b59-8d1c-0f6a35f2a011

  # All units in a window, as CSV
  ganymede units --window "2026-08-22T00:00:00Z/2026-08-23T00:00:00Z" --format csv`,
	RunE: runUnits,
}

func init() {
	rootCmd.AddCommand(unitsCmd)

	unitsCmd.Flags().IntVar(&unitsFlags.limit, "limit", 20, "max units to list")
	unitsCmd.Flags().StringVar(&unitsFlags.id, "id", "", "show a single unit by ID")
	unitsCmd.Flags().StringVar(&unitsFlags.timeRange, "window", "", "time window (RFC3339 interval: start/end)")
	unitsCmd.Flags().StringVar(&unitsFlags.format, "format", "text", "output format: text, json, csv")
}

func runUnits(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(unitsFlags.format)
	if err != nil {
		return err
	}

	obs, _, err := openObserver()
	if err != nil {
		return err
	}
	defer obs.Close()

	formatter := cli.NewFormatter(format)

	if unitsFlags.id != "" {
		unit, err := obs.Unit(unitsFlags.id)
		if err != nil {
			return cli.NewCommandError("units", err)
		}
		return formatter.FormatTo(os.Stdout, unit)
	}

	var units []*pipeline.UnitRecord
	if unitsFlags.timeRange != "" {
		start, end, err := parseTimeRange(unitsFlags.timeRange)
		if err != nil {
			return err
		}
		units, err = obs.Window(start, end)
		if err != nil {
			if len(units) == 0 {
				return cli.NewCommandError("units", err)
			}
			fmt.Fprintf(os.Stderr, "warning: window read degraded: %v\n", err)
		}
	} else {
		units = obs.Recent(unitsFlags.limit)
	}

	return formatter.FormatTo(os.Stdout, units)
}

// parseTimeRange parses an RFC3339 "start/end" interval.
func parseTimeRange(s string) (time.Time, time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range format (expected: start/end)")
	}

	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("time range end precedes start")
	}
	return start, end, nil
}
