package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
)

var cleanupFlags struct {
	days int
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove journal files past the retention window",
	Long: `Remove journal files older than the retention window.

Journal files are removed per whole day; the current day is always kept.

Examples:
  # Use the configured retention (default 30 days)
  ganymede cleanup

  # Override retention to seven days
  ganymede cleanup --days 7`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().IntVar(&cleanupFlags.days, "days", 0, "retention in days (0 uses the configured value)")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	obs, cfg, err := openObserver()
	if err != nil {
		return err
	}
	defer obs.Close()

	days := cleanupFlags.days
	if days == 0 {
		days = cfg.Storage.RetentionDays
	}
	if days <= 0 {
		fmt.Println("Retention disabled, nothing to do.")
		return nil
	}

	removed, err := obs.Cleanup(days)
	if err != nil {
		return cli.NewCommandError("cleanup", err)
	}

	fmt.Printf("✓ Removed %d journal files older than %d days\n", removed, days)
	return nil
}
