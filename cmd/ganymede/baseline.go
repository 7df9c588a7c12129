package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/pipeline"
)

var baselineFlags struct {
	samples int
	limit   int
	format  string
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Manage drift baselines",
	Long: `Establish and inspect versioned drift baselines.

A baseline is an immutable snapshot of recent units that later analysis
cycles compare against. Establishing a new baseline bumps the version and
moves the active pointer; old versions are retained for audit.

Subcommands:
  set     - establish a new baseline from recent units
  show    - show the active baseline
  history - list established baselines

Examples:
  # Establish a baseline from the last 100 units
  ganymede baseline set --samples 100

  # Show the active baseline
  ganymede baseline show`,
}

var baselineSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Establish a new baseline from recent units",
	RunE:  runBaselineSet,
}

var baselineShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active baseline",
	RunE:  runBaselineShow,
}

var baselineHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List established baselines",
	RunE:  runBaselineHistory,
}

func init() {
	rootCmd.AddCommand(baselineCmd)
	baselineCmd.AddCommand(baselineSetCmd, baselineShowCmd, baselineHistoryCmd)

	baselineSetCmd.Flags().IntVar(&baselineFlags.samples, "samples", 0, "units to sample (0 uses the configured default)")

	baselineShowCmd.Flags().StringVar(&baselineFlags.format, "format", "text", "output format: text, json")

	baselineHistoryCmd.Flags().IntVar(&baselineFlags.limit, "limit", 10, "max baselines to list")
	baselineHistoryCmd.Flags().StringVar(&baselineFlags.format, "format", "text", "output format: text, json")
}

func runBaselineSet(cmd *cobra.Command, args []string) error {
	obs, _, err := openObserver()
	if err != nil {
		return err
	}
	defer obs.Close()

	ctx := cli.SetupSignalHandler()
	b, err := obs.SetBaseline(ctx, baselineFlags.samples)
	if err != nil {
		var insufficient *pipeline.InsufficientDataError
		if errors.As(err, &insufficient) {
			return cli.NewCommandError("baseline set",
				fmt.Errorf("need at least %d recorded units, have %d", insufficient.Required, insufficient.Available))
		}
		return cli.NewCommandError("baseline set", err)
	}

	fmt.Printf("✓ Baseline version %d established (%d samples)\n", b.Version, b.SampleCount)
	return nil
}

func runBaselineShow(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(baselineFlags.format)
	if err != nil {
		return err
	}

	obs, _, err := openObserver()
	if err != nil {
		return err
	}
	defer obs.Close()

	b, ok := obs.Baseline()
	if !ok {
		fmt.Println("No baseline established.")
		return nil
	}

	return cli.NewFormatter(format).FormatTo(os.Stdout, b)
}

func runBaselineHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(baselineFlags.format)
	if err != nil {
		return err
	}

	obs, _, err := openObserver()
	if err != nil {
		return err
	}
	defer obs.Close()

	baselines, err := obs.BaselineHistory(context.Background(), baselineFlags.limit)
	if err != nil {
		return cli.NewCommandError("baseline history", err)
	}

	return cli.NewFormatter(format).FormatTo(os.Stdout, baselines)
}
