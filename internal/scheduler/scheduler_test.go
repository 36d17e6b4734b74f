package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jobrisk/jobrisk/internal/model"
)

// --- Fakes ---

type fakeSource struct{ name string }

func (s fakeSource) Name() string                                { return s.name }
func (s fakeSource) PageURL(category string, page int) string    { return s.name + "/" + category }
func (s fakeSource) Extract(string) (model.ExtractResult, error) { return model.ExtractResult{}, nil }
func (s fakeSource) Identity() model.IdentityRule                { return model.IdentityLink }

// recordingRunner records the order of runs and can fail chosen keys.
type recordingRunner struct {
	mu      sync.Mutex
	order   []string
	pages   map[string]int
	fail    map[string]error
	started chan string
	hold    time.Duration
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{pages: make(map[string]int), fail: make(map[string]error)}
}

func (r *recordingRunner) RunCategory(_ context.Context, src model.Source, category string, pages int) (model.RunSummary, error) {
	key := src.Name() + "/" + category
	r.mu.Lock()
	r.order = append(r.order, key)
	r.pages[key] = pages
	err := r.fail[key]
	r.mu.Unlock()
	if r.started != nil {
		r.started <- key
	}
	time.Sleep(r.hold)
	return model.RunSummary{Source: src.Name(), Category: category}, err
}

func (r *recordingRunner) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jobs() []Job {
	return []Job{
		{Source: fakeSource{"asako"}, Categories: []Category{{"emploi", 3}, {"cdd", 1}, {"stage", 2}}},
		{Source: fakeSource{"portaljob"}, Categories: []Category{{"liste", 5}}},
	}
}

// --- Tests ---

func TestRunOnce_CategoriesInOrderPerSource(t *testing.T) {
	r := newRecordingRunner()
	s := NewScheduler(r, jobs(), "@every 6h", nil, 0, discardLogger())

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	var asako []string
	for _, k := range r.calls() {
		if k != "portaljob/liste" {
			asako = append(asako, k)
		}
	}
	want := []string{"asako/emploi", "asako/cdd", "asako/stage"}
	if fmt.Sprint(asako) != fmt.Sprint(want) {
		t.Errorf("asako order = %v, want %v", asako, want)
	}
	if r.pages["portaljob/liste"] != 5 || r.pages["asako/emploi"] != 3 {
		t.Errorf("pages = %v", r.pages)
	}
}

func TestRunOnce_SourcesRunConcurrently(t *testing.T) {
	r := newRecordingRunner()
	r.hold = 100 * time.Millisecond
	s := NewScheduler(r, []Job{
		{Source: fakeSource{"asako"}, Categories: []Category{{"emploi", 1}}},
		{Source: fakeSource{"portaljob"}, Categories: []Category{{"liste", 1}}},
	}, "@every 6h", nil, 0, discardLogger())

	start := time.Now()
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if elapsed := time.Since(start); elapsed >= 190*time.Millisecond {
		t.Errorf("elapsed %v: sources should run in parallel", elapsed)
	}
}

func TestRunOnce_FailureDoesNotStopOtherCategories(t *testing.T) {
	r := newRecordingRunner()
	lost := fmt.Errorf("running asako/emploi: %w", model.ErrConnectionLost)
	r.fail["asako/emploi"] = lost
	r.fail["asako/cdd"] = fmt.Errorf("running asako/cdd: %w", model.ErrRunInProgress)
	s := NewScheduler(r, jobs(), "@every 6h", nil, 0, discardLogger())

	err := s.RunOnce(context.Background())
	if !errors.Is(err, model.ErrConnectionLost) {
		t.Errorf("err = %v, want ErrConnectionLost", err)
	}
	if got := len(r.calls()); got != 4 {
		t.Errorf("runs = %d, want 4", got)
	}
}

func TestRunOnce_CategoryDelay(t *testing.T) {
	r := newRecordingRunner()
	s := NewScheduler(r, []Job{
		{Source: fakeSource{"asako"}, Categories: []Category{{"emploi", 1}, {"cdd", 1}}},
	}, "@every 6h", nil, 50*time.Millisecond, discardLogger())

	start := time.Now()
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("elapsed %v: expected >= 50ms between categories", elapsed)
	}
}

func TestRunOnce_CancelStopsBetweenCategories(t *testing.T) {
	r := newRecordingRunner()
	s := NewScheduler(r, []Job{
		{Source: fakeSource{"asako"}, Categories: []Category{{"emploi", 1}, {"cdd", 1}}},
	}, "@every 6h", nil, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	r.started = make(chan string, 2)
	go func() {
		<-r.started
		cancel()
	}()

	done := make(chan error, 1)
	go func() { done <- s.RunOnce(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunOnce did not return after cancel")
	}
	if got := r.calls(); len(got) != 1 {
		t.Errorf("runs = %v, want only the first category", got)
	}
}

func TestRun_ImmediatePassThenCancel(t *testing.T) {
	r := newRecordingRunner()
	s := NewScheduler(r, jobs(), "@every 6h", time.UTC, 0, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, true) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}
	if got := len(r.calls()); got != 4 {
		t.Errorf("runs = %d, want one immediate pass of 4", got)
	}
}

func TestRun_NoInitialPass(t *testing.T) {
	r := newRecordingRunner()
	s := NewScheduler(r, jobs(), "@every 6h", nil, 0, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, false) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if got := len(r.calls()); got != 0 {
		t.Errorf("runs = %d, want 0 before the first tick", got)
	}
}

func TestRun_InvalidSpec(t *testing.T) {
	s := NewScheduler(newRecordingRunner(), jobs(), "every sometimes", nil, 0, discardLogger())
	if err := s.Run(context.Background(), false); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}
