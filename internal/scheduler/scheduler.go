// Package scheduler triggers ingestion runs for every configured source and
// category on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/jobrisk/jobrisk/internal/model"
)

// Runner runs one category of one source.
type Runner interface {
	RunCategory(ctx context.Context, src model.Source, category string, pages int) (model.RunSummary, error)
}

// Category is one category of a source and how many pages to read.
type Category struct {
	Name  string
	Pages int
}

// Job is a source with the categories to ingest from it, in order.
type Job struct {
	Source     model.Source
	Categories []Category
}

// Scheduler runs each source in its own goroutine and the categories of a
// source one after another.
type Scheduler struct {
	runner        Runner
	jobs          []Job
	spec          string
	location      *time.Location
	categoryDelay time.Duration
	logger        *slog.Logger
}

// NewScheduler creates a scheduler firing on the cron spec in loc (time.Local
// if nil). categoryDelay separates two categories of the same source.
func NewScheduler(runner Runner, jobs []Job, spec string, loc *time.Location, categoryDelay time.Duration, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		runner:        runner,
		jobs:          jobs,
		spec:          spec,
		location:      loc,
		categoryDelay: categoryDelay,
		logger:        logger,
	}
}

// Run registers the cron job and blocks until ctx is cancelled. With
// immediate set it runs one pass before waiting for the first tick. A pass
// still running when the next tick fires makes that tick a no-op. Returns nil
// on graceful shutdown, after the pass in progress has stopped.
func (s *Scheduler) Run(ctx context.Context, immediate bool) error {
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.logger})),
		cron.WithLogger(cronLogger{s.logger}),
	)
	if _, err := c.AddFunc(s.spec, func() { s.logPass(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc(%q): %w", s.spec, err)
	}

	s.logger.Info("starting scheduler",
		"schedule", s.spec,
		"timezone", s.location.String(),
		"sources", len(s.jobs),
	)

	if immediate {
		s.logPass(ctx)
	}

	c.Start()
	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) logPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("ingestion pass failed", "error", err)
		return
	}
	s.logger.Info("ingestion pass complete", "duration", time.Since(start).Round(time.Millisecond))
}

// RunOnce runs every job once: sources concurrently, categories in order with
// the category delay between them. A failing category does not stop the
// others; the first run aborted by the store is returned.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var g errgroup.Group
	for _, job := range s.jobs {
		g.Go(func() error {
			return s.runJob(ctx, job)
		})
	}
	return g.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, job Job) error {
	var firstErr error
	for i, cat := range job.Categories {
		if ctx.Err() != nil {
			return firstErr
		}

		_, err := s.runner.RunCategory(ctx, job.Source, cat.Name, cat.Pages)
		switch {
		case err == nil:
		case errors.Is(err, model.ErrRunInProgress):
			s.logger.Info("category skipped, previous run still active",
				"source", job.Source.Name(), "category", cat.Name)
		default:
			s.logger.Error("run failed", "source", job.Source.Name(), "category", cat.Name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}

		if i < len(job.Categories)-1 && s.categoryDelay > 0 {
			select {
			case <-ctx.Done():
				return firstErr
			case <-time.After(s.categoryDelay):
			}
		}
	}
	return firstErr
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
