package notifier

import (
	"context"
	"log/slog"

	"github.com/jobrisk/jobrisk/internal/model"
)

// Ensure LogReporter implements model.Reporter.
var _ model.Reporter = (*LogReporter)(nil)

// LogReporter writes run summaries to the given logger as structured messages.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter returns a reporter that logs each summary via slog.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs s. Returns nil (stdout logging does not fail).
func (r *LogReporter) Report(_ context.Context, s model.RunSummary) error {
	args := []any{
		"run_id", s.RunID,
		"source", s.Source,
		"category", s.Category,
		"pages", s.Pages,
		"saved", s.Saved,
		"skipped_duplicate", s.SkippedDuplicate,
		"refreshed", s.Refreshed,
		"failed", s.Failed,
		"pages_skipped", s.PagesSkipped,
	}
	switch {
	case s.Aborted:
		r.logger.Error("run aborted", append(args, "error", s.Error)...)
	case s.Cancelled:
		r.logger.Warn("run cancelled", args...)
	default:
		r.logger.Info("run report", args...)
	}
	return nil
}
