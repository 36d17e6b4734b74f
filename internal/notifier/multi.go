package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jobrisk/jobrisk/internal/model"
)

// Multi sends every summary to each reporter in turn. One failing reporter
// does not stop the others; their errors are joined.
type Multi []model.Reporter

func (m Multi) Report(ctx context.Context, s model.RunSummary) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendTestMessage sends a dummy run summary to verify the integration works.
func SendTestMessage(ctx context.Context, r model.Reporter) error {
	now := time.Now()
	return r.Report(ctx, model.RunSummary{
		RunID:            uuid.NewString(),
		Source:           "test",
		Category:         "integration",
		Pages:            1,
		StartedAt:        now.Add(-3 * time.Second),
		FinishedAt:       now,
		Analyzed:         3,
		Saved:            2,
		SkippedDuplicate: 1,
	})
}
