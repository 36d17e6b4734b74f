package main

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var olderThan time.Duration

var deactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Mark listings not seen recently as inactive",
	Long:  "Flips is_active off for every active listing whose scraped_at is older than --older-than.",
	RunE:  runDeactivate,
}

func init() {
	deactivateCmd.Flags().DurationVar(&olderThan, "older-than", 720*time.Hour, "deactivate listings not seen within this window")
	rootCmd.AddCommand(deactivateCmd)
}

func runDeactivate(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	cutoff := time.Now().Add(-olderThan)
	n, err := st.DeactivateStale(cmd.Context(), cutoff)
	if err != nil {
		return err
	}
	logger.Info("deactivated stale listings",
		"count", n,
		"seen_before", humanize.Time(cutoff),
	)
	return nil
}
