package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/jobrisk/jobrisk/internal/model"
)

// CourtesyLimiter enforces a minimum delay between requests to the same site.
type CourtesyLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: host
	minDelay time.Duration
}

// NewCourtesyLimiter creates a limiter that enforces minDelay between
// consecutive requests to the same host.
func NewCourtesyLimiter(minDelay time.Duration) *CourtesyLimiter {
	return &CourtesyLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last request to host.
// Returns an error if the context is cancelled while waiting.
func (r *CourtesyLimiter) Wait(ctx context.Context, host string) error {
	r.mu.Lock()
	last, ok := r.lastCall[host]
	now := time.Now()

	if !ok || now.Sub(last) >= r.minDelay {
		r.lastCall[host] = now
		r.mu.Unlock()
		return nil
	}

	// Reserve the next slot before releasing the lock so concurrent callers
	// queue up behind each other instead of firing together.
	next := last.Add(r.minDelay)
	r.lastCall[host] = next
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("courtesy wait for %s: %w", host, ctx.Err())
	case <-time.After(time.Until(next)):
	}
	return nil
}

// RateLimitedFetcher is a decorator that waits on the limiter, keyed by the
// URL's host, before delegating to the wrapped Fetcher.
type RateLimitedFetcher struct {
	inner   model.Fetcher
	limiter *CourtesyLimiter
}

var _ model.Fetcher = (*RateLimitedFetcher)(nil)

// NewRateLimitedFetcher wraps inner. Fetchers that hit the same site should
// share one limiter.
func NewRateLimitedFetcher(inner model.Fetcher, limiter *CourtesyLimiter) *RateLimitedFetcher {
	return &RateLimitedFetcher{inner: inner, limiter: limiter}
}

func (f *RateLimitedFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	if err := f.limiter.Wait(ctx, host); err != nil {
		return "", err
	}
	return f.inner.Fetch(ctx, rawURL)
}
