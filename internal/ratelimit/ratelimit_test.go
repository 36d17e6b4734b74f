package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWait_SameHost_EnforcesMinDelay(t *testing.T) {
	limiter := NewCourtesyLimiter(100 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "www.asako.mg"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "www.asako.mg"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentHosts_NoCrossBlocking(t *testing.T) {
	limiter := NewCourtesyLimiter(200 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "www.asako.mg"); err != nil {
		t.Fatalf("asako wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "www.portaljob-madagascar.com"); err != nil {
		t.Fatalf("portaljob wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected near-instant wait for another host, got %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewCourtesyLimiter(5 * time.Second)
	if err := limiter.Wait(context.Background(), "www.asako.mg"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx, "www.asako.mg"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

type recordingFetcher struct {
	urls []string
}

func (f *recordingFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	return "<html></html>", nil
}

func TestRateLimitedFetcher_KeysByHost(t *testing.T) {
	limiter := NewCourtesyLimiter(100 * time.Millisecond)
	inner := &recordingFetcher{}
	fetcher := NewRateLimitedFetcher(inner, limiter)
	ctx := context.Background()

	if _, err := fetcher.Fetch(ctx, "https://www.asako.mg/emploi"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	start := time.Now()
	if _, err := fetcher.Fetch(ctx, "https://www.asako.mg/cdd?page=2"); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("same host should wait, got %v", elapsed)
	}

	start = time.Now()
	if _, err := fetcher.Fetch(ctx, "https://www.portaljob-madagascar.com/emploi/liste"); err != nil {
		t.Fatalf("third fetch: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("different host should not wait, got %v", elapsed)
	}

	if len(inner.urls) != 3 {
		t.Errorf("inner called %d times, want 3", len(inner.urls))
	}
}
