package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/pipeline/export"
)

var exportFlags struct {
	format    string
	output    string
	limit     int
	timeRange string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export units and drift reports",
	Long: `Export recorded units and drift reports as JSON or CSV.

Subcommands:
  units   - export unit records
  reports - export drift report history

Examples:
  # Most recent 100 units as JSON
  ganymede export units --limit 100 --output units.json

  # A full day of units as CSV
  ganymede export units --window "2026-08-22T00:00:00Z/2026-08-23T00:00:00Z" --format csv --output units.csv

  # Drift report history to stdout
  ganymede export reports`,
}

var exportUnitsCmd = &cobra.Command{
	Use:   "units",
	Short: "Export unit records",
	Long: `Export unit records as JSON or CSV.

With --limit the most recent units are exported from the cache; otherwise
the journal window given by --window (default: the last 24 hours) is
exported. File output streams with a progress meter on stderr.`,
	RunE: runExportUnits,
}

var exportReportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Export drift report history",
	RunE:  runExportReports,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportUnitsCmd, exportReportsCmd)

	exportCmd.PersistentFlags().StringVar(&exportFlags.format, "format", "json", "export format: json, csv")
	exportCmd.PersistentFlags().StringVarP(&exportFlags.output, "output", "o", "", "output file (default: stdout)")

	exportUnitsCmd.Flags().IntVar(&exportFlags.limit, "limit", 0, "max units (0 exports the whole window)")
	exportUnitsCmd.Flags().StringVar(&exportFlags.timeRange, "window", "", "time window (RFC3339 interval: start/end, default last 24h)")
}

func runExportUnits(cmd *cobra.Command, args []string) error {
	if err := validateExportFormat(exportFlags.format); err != nil {
		return err
	}

	obs, _, err := openObserver()
	if err != nil {
		return err
	}
	defer obs.Close()

	ctx := cli.SetupSignalHandler()

	var units []*pipeline.UnitRecord
	if exportFlags.limit > 0 {
		units = obs.Recent(exportFlags.limit)
	} else {
		now := time.Now().UTC()
		start, end := now.Add(-24*time.Hour), now
		if exportFlags.timeRange != "" {
			start, end, err = parseTimeRange(exportFlags.timeRange)
			if err != nil {
				return err
			}
		}
		units, err = obs.Window(start, end)
		if err != nil {
			if len(units) == 0 {
				return cli.NewCommandError("export units", err)
			}
			fmt.Fprintf(os.Stderr, "warning: window read degraded: %v\n", err)
		}
	}

	w, closeOutput, err := openOutput(exportFlags.output)
	if err != nil {
		return err
	}
	defer closeOutput()

	// Stream with a progress meter only when writing to a file; progress
	// lines on stdout would mix with the payload.
	if exportFlags.output != "" {
		return streamUnits(ctx, units, w)
	}

	switch exportFlags.format {
	case "csv":
		err = export.NewCSVExporter(true).ExportUnits(ctx, units, w)
	default:
		err = export.NewJSONExporter(true).ExportUnits(ctx, units, w)
	}
	if err != nil {
		return cli.NewCommandError("export units", err)
	}
	return nil
}

func runExportReports(cmd *cobra.Command, args []string) error {
	if err := validateExportFormat(exportFlags.format); err != nil {
		return err
	}

	obs, _, err := openObserver()
	if err != nil {
		return err
	}
	defer obs.Close()

	reports := obs.DriftHistory(0)

	w, closeOutput, err := openOutput(exportFlags.output)
	if err != nil {
		return err
	}
	defer closeOutput()

	ctx := context.Background()
	switch exportFlags.format {
	case "csv":
		err = export.NewCSVExporter(true).ExportReports(ctx, reports, w)
	default:
		err = export.NewJSONExporter(true).ExportReports(ctx, reports, w)
	}
	if err != nil {
		return cli.NewCommandError("export reports", err)
	}
	return nil
}

// streamUnits feeds the units through the streaming exporter with a
// progress meter on stderr.
func streamUnits(ctx context.Context, units []*pipeline.UnitRecord, w io.Writer) error {
	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(len(units)))

	unitsCh := make(chan *pipeline.UnitRecord)
	go func() {
		defer close(unitsCh)
		for i, unit := range units {
			select {
			case unitsCh <- unit:
				progress.Update(int64(i + 1))
			case <-ctx.Done():
				return
			}
		}
	}()

	var err error
	switch exportFlags.format {
	case "csv":
		err = export.NewCSVExporter(true).ExportUnitStream(ctx, unitsCh, w)
	default:
		err = export.NewJSONExporter(true).ExportUnitStream(ctx, unitsCh, w)
	}
	if err != nil {
		progress.Error(err)
		return cli.NewCommandError("export units", err)
	}

	progress.Finish()
	return nil
}

func validateExportFormat(format string) error {
	if format != "json" && format != "csv" {
		return fmt.Errorf("unsupported export format: %q (supported: json, csv)", format)
	}
	return nil
}

// openOutput opens the --output file, or stdout when the path is empty.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
