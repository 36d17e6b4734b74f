package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jobrisk/jobrisk/internal/scheduler"
)

var noInitial bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ingestion daemon",
	Long:  "Start the cron scheduler; blocks until SIGINT/SIGTERM. A first pass runs immediately unless --no-initial is set.",
	RunE:  runStart,
}

func init() {
	startCmd.Flags().BoolVar(&noInitial, "no-initial", false, "wait for the first cron tick instead of running a pass at startup")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	logger.Info("config loaded",
		"schedule", cfg.Schedule.Spec,
		"timezone", cfg.Schedule.Location.String(),
		"sources", len(cfg.EnabledSources()),
		"store", cfg.Store.Driver,
		"refresh_duplicates", cfg.Duplicates.Refresh,
		"page_delay", cfg.Courtesy.PageDelay.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := buildPipeline(ctx, cfg, false, nil, logger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	jobs, err := buildJobs(cfg, logger)
	if err != nil {
		logger.Error("failed to build sources", "error", err)
		os.Exit(1)
	}

	sched := scheduler.NewScheduler(deps.pipeline, jobs, cfg.Schedule.Spec, cfg.Schedule.Location, cfg.Courtesy.CategoryDelay, logger)
	if err := sched.Run(ctx, !noInitial); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
