package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jobrisk/jobrisk/internal/config"
	"github.com/jobrisk/jobrisk/internal/model"
	"github.com/jobrisk/jobrisk/internal/pipeline"
)

var (
	ingestPages  int
	ingestDryRun bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <source> <category>",
	Short: "Run one ingestion pass and exit",
	Long:  "One-shot run over one category of one source. With --dry-run nothing is written to the store.",
	Args:  cobra.ExactArgs(2),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().IntVarP(&ingestPages, "pages", "p", 0, "pages to read (default: the configured value, or 1)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "extract and score, but do not store anything")
	rootCmd.AddCommand(ingestCmd)
}

// pagesFor returns the configured page count of category, or 1.
func pagesFor(cfg *config.Config, sourceName, category string) int {
	sc, ok := cfg.Source(sourceName)
	if !ok {
		return 1
	}
	for _, c := range sc.Categories {
		if c.Name == category {
			return c.Pages
		}
	}
	return 1
}

func runIngest(cmd *cobra.Command, args []string) error {
	sourceName, category := args[0], args[1]
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	src, err := newSource(cfg, sourceName)
	if err != nil {
		return err
	}
	pages := ingestPages
	if pages <= 0 {
		pages = pagesFor(cfg, sourceName, category)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bar := pb.StartNew(pages)
	bar.Set("prefix", fmt.Sprintf("%s/%s ", sourceName, category))
	onPage := func(s pipeline.PageStats) {
		bar.Increment()
		bar.Set("suffix", fmt.Sprintf(" %d listings", s.Listings))
	}

	// Logs would tear the progress bar; keep them for --debug.
	runLogger := silentLogger()
	if debug {
		runLogger = logger
	}
	deps, err := buildPipeline(ctx, cfg, ingestDryRun, onPage, runLogger)
	if err != nil {
		bar.Finish()
		return err
	}
	defer deps.Close()

	sum, err := deps.pipeline.RunCategory(ctx, src, category, pages)
	bar.Finish()
	if errors.Is(err, model.ErrRunInProgress) {
		pterm.Warning.Printfln("%s/%s is already running elsewhere", sourceName, category)
		return nil
	}

	printSummary(sum)
	return err
}

func printSummary(sum model.RunSummary) {
	status := "finished"
	switch {
	case sum.Aborted:
		status = "aborted"
	case sum.Cancelled:
		status = "cancelled"
	}
	pterm.DefaultSection.Printfln("%s/%s %s in %s", sum.Source, sum.Category, status, sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond))
	pterm.DefaultTable.WithData(pterm.TableData{
		{"Pages", humanize.Comma(int64(sum.Pages))},
		{"Pages skipped", humanize.Comma(int64(sum.PagesSkipped))},
		{"Analyzed", humanize.Comma(int64(sum.Analyzed))},
		{"Saved", humanize.Comma(int64(sum.Saved))},
		{"Duplicates", humanize.Comma(int64(sum.SkippedDuplicate))},
		{"Refreshed", humanize.Comma(int64(sum.Refreshed))},
		{"Failed", humanize.Comma(int64(sum.Failed))},
	}).Render()
	if sum.Error != "" {
		pterm.Error.Println(sum.Error)
	}
}
