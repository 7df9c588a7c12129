/*
Package cli provides command-line interface utilities for Ganymede.

The cli package includes output formatters, progress reporters, and common CLI
helpers used by the ganymede command.

Output Formatting:

The cli package supports multiple output formats (text, JSON, CSV) for
displaying query results. The text formatter knows how to render unit
records, drift reports, baselines, and window summaries; the CSV formatter
delegates to the export package for types with a row shape:

	format, err := cli.ParseFormat("json")
	if err != nil {
		return err
	}
	formatter := cli.NewFormatter(format)
	if err := formatter.FormatTo(os.Stdout, units); err != nil {
		return err
	}

Progress Reporting:

For long-running exports, use the progress reporter. Pass the total when it
is known to get a bar, or zero for a count-only line:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(totalRecords))
	for i := 0; i < totalRecords; i++ {
		// Do work
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

For graceful cancellation on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for exports and baseline writes that should stop on Ctrl+C
*/
package cli
