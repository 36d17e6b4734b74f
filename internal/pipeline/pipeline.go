// Package pipeline runs one ingestion pass over a source category:
// fetch, extract, normalize, score, persist, then wait before the next page.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jobrisk/jobrisk/internal/model"
	"github.com/jobrisk/jobrisk/internal/normalize"
	"github.com/jobrisk/jobrisk/internal/persist"
	"github.com/jobrisk/jobrisk/internal/risk"
)

// Locker grants at most one run per key. TryLock fails with
// model.ErrRunInProgress when the key is held.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), err error)
}

// Enricher may improve a listing before it is scored.
type Enricher interface {
	Enrich(ctx context.Context, l *model.Listing)
}

// PageStats describes one processed page.
type PageStats struct {
	Page        int
	Pages       int
	URL         string
	Strategy    string
	Listings    int
	Unavailable bool
}

// Options holds the optional parts of a Pipeline.
type Options struct {
	PageDelay time.Duration   // courtesy delay between pages
	Enricher  Enricher        // nil disables detail enrichment
	OnPage    func(PageStats) // called after every page, from the run's goroutine
}

// Pipeline owns the ingestion sequence shared by every source.
type Pipeline struct {
	fetcher    model.Fetcher
	normalizer *normalize.Normalizer
	persister  *persist.Persister
	locker     Locker
	reporter   model.Reporter
	opts       Options
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline creates a pipeline wired with all its dependencies.
func NewPipeline(
	fetcher model.Fetcher,
	normalizer *normalize.Normalizer,
	persister *persist.Persister,
	locker Locker,
	reporter model.Reporter,
	opts Options,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		normalizer: normalizer,
		persister:  persister,
		locker:     locker,
		reporter:   reporter,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// RunKey is the single-flight key of a (source, category) run.
func RunKey(source, category string) string {
	return source + "/" + category
}

// RunCategory ingests up to pages pages of category from src.
//
// An unavailable page is skipped. A page with no listings ends the run early.
// Cancelling ctx stops the run after the current page has been persisted.
// The error is non-nil only when the run was rejected by the single-flight
// guard or aborted because the store became unusable.
func (p *Pipeline) RunCategory(ctx context.Context, src model.Source, category string, pages int) (model.RunSummary, error) {
	key := RunKey(src.Name(), category)
	release, err := p.locker.TryLock(ctx, key)
	if err != nil {
		if errors.Is(err, model.ErrRunInProgress) {
			p.logger.Info("run already in progress, skipping", "source", src.Name(), "category", category)
		}
		return model.RunSummary{}, fmt.Errorf("running %s: %w", key, err)
	}
	defer release()

	sum := model.RunSummary{
		RunID:     uuid.NewString(),
		Source:    src.Name(),
		Category:  category,
		StartedAt: p.now(),
	}
	log := p.logger.With("run_id", sum.RunID, "source", src.Name(), "category", category)
	log.Info("run started", "pages", pages)

	runErr := p.runPages(ctx, src, category, pages, &sum, log)
	if runErr != nil {
		sum.Aborted = true
		sum.Error = runErr.Error()
	}
	sum.FinishedAt = p.now()

	log.Info("run finished",
		"pages", sum.Pages,
		"pages_skipped", sum.PagesSkipped,
		"analyzed", sum.Analyzed,
		"saved", sum.Saved,
		"skipped_duplicate", sum.SkippedDuplicate,
		"refreshed", sum.Refreshed,
		"failed", sum.Failed,
		"cancelled", sum.Cancelled,
		"aborted", sum.Aborted,
		"duration", sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond),
	)

	if p.reporter != nil {
		if err := p.reporter.Report(context.WithoutCancel(ctx), sum); err != nil {
			log.Warn("failed to report run", "error", err)
		}
	}

	if runErr != nil {
		return sum, fmt.Errorf("running %s: %w", key, runErr)
	}
	return sum, nil
}

func (p *Pipeline) runPages(ctx context.Context, src model.Source, category string, pages int, sum *model.RunSummary, log *slog.Logger) error {
	for page := 1; page <= pages; page++ {
		if ctx.Err() != nil {
			sum.Cancelled = true
			return nil
		}

		url := src.PageURL(category, page)
		stats := PageStats{Page: page, Pages: pages, URL: url}

		markup, err := p.fetcher.Fetch(ctx, url)
		switch {
		case err != nil && !errors.Is(err, model.ErrUnavailable) && ctx.Err() != nil:
			sum.Cancelled = true
			return nil
		case err != nil:
			log.Warn("page unavailable, continuing", "page", page, "url", url, "error", err)
			sum.PagesSkipped++
			stats.Unavailable = true
			p.pageDone(stats)
		default:
			res, err := src.Extract(markup)
			if err != nil {
				log.Warn("page could not be parsed, continuing", "page", page, "url", url, "error", err)
				sum.PagesSkipped++
				p.pageDone(stats)
				break
			}
			sum.Pages++
			stats.Strategy = res.Strategy
			stats.Listings = len(res.Records)

			if len(res.Records) == 0 && res.Skipped == 0 {
				log.Info("no listings on page, stopping", "page", page, "url", url)
				p.pageDone(stats)
				return nil
			}
			log.Debug("page extracted", "page", page, "strategy", res.Strategy,
				"listings", len(res.Records), "unreadable", res.Skipped)

			sum.Analyzed += len(res.Records) + res.Skipped
			sum.Failed += res.Skipped

			// The page in hand is always written out in full.
			if err := p.persistPage(context.WithoutCancel(ctx), ctx, src, res.Records, sum, log); err != nil {
				p.pageDone(stats)
				return err
			}
			p.pageDone(stats)
		}

		if page < pages && p.opts.PageDelay > 0 {
			select {
			case <-ctx.Done():
				sum.Cancelled = true
				return nil
			case <-time.After(p.opts.PageDelay):
			}
		}
	}
	return nil
}

// persistPage writes records with writeCtx. fetchCtx bounds detail enrichment.
func (p *Pipeline) persistPage(writeCtx, fetchCtx context.Context, src model.Source, records []model.RawFields, sum *model.RunSummary, log *slog.Logger) error {
	for _, raw := range records {
		l := p.normalizer.Normalize(raw, src.Name())
		if p.opts.Enricher != nil && l.Link != "" {
			p.opts.Enricher.Enrich(fetchCtx, &l)
		}
		l.RiskScore, l.RiskLevel = risk.Score(l.Title, l.JobTitle, l.Sector, l.ContractType)
		l.Suggestions = risk.Suggestions(l.RiskLevel)

		out, err := p.persister.Persist(writeCtx, &l, src.Identity())
		switch out {
		case model.OutcomeInserted:
			sum.Saved++
		case model.OutcomeSkippedDuplicate:
			sum.SkippedDuplicate++
		case model.OutcomeRefreshed:
			sum.SkippedDuplicate++
			sum.Refreshed++
		default:
			sum.Failed++
			if persist.Fatal(err) {
				log.Error("store unavailable, aborting run", "link", l.Link, "error", err)
				return err
			}
			log.Warn("listing not saved", "link", l.Link, "error", err)
			continue
		}
		log.Debug("listing persisted", "link", l.Link, "outcome", out, "score", l.RiskScore, "level", l.RiskLevel)
	}
	return nil
}

func (p *Pipeline) pageDone(s PageStats) {
	if p.opts.OnPage != nil {
		p.opts.OnPage(s)
	}
}
