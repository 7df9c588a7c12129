package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/observer"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ganymede",
	Short: "Ganymede - pipeline telemetry and drift detection",
	Long: `Ganymede records per-stage telemetry for multi-stage agent pipelines and
detects statistical drift against an established baseline.

The CLI operates on the local data directory written by an embedding
application, providing:
  - Windowed summaries and top-stage rollups
  - Kolmogorov-Smirnov and entropy drift analysis
  - Versioned baseline management
  - Journal retention cleanup and JSON/CSV export

For more information, visit: https://github.com/mercator-hq/ganymede`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (built-in defaults when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Disable default completion command (we'll add our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = false
}

// openObserver loads the global configuration and opens the engine against
// the configured data directory. Callers must Close the returned observer.
func openObserver() (*observer.Observer, *config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	obs, err := observer.New(cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	return obs, cfg, nil
}
