// Package fetch retrieves listing pages over HTTP with bounded retry.
package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/jobrisk/jobrisk/internal/model"
)

const (
	DefaultAttempts   = 3
	DefaultRetryDelay = 2 * time.Second
	DefaultTimeout    = 20 * time.Second
	DefaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36 jobrisk/1.0"

	maxRetryAfter = 30 * time.Second
	maxBodyBytes  = 10 << 20
)

// Options tune an HTTPFetcher. Zero Attempts, Timeout and UserAgent take the
// defaults above; RetryDelay is used as given unless negative.
type Options struct {
	Attempts   int
	RetryDelay time.Duration
	Timeout    time.Duration // per attempt
	UserAgent  string
}

// HTTPFetcher implements model.Fetcher.
type HTTPFetcher struct {
	client     *http.Client
	attempts   int
	retryDelay time.Duration
	timeout    time.Duration
	userAgent  string
	logger     *slog.Logger
}

var _ model.Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher returns a fetcher using client (http.DefaultClient if nil).
func NewHTTPFetcher(client *http.Client, opts Options, logger *slog.Logger) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		client:     client,
		attempts:   opts.Attempts,
		retryDelay: opts.RetryDelay,
		timeout:    opts.Timeout,
		userAgent:  opts.UserAgent,
		logger:     logger,
	}
}

// Fetch returns the page body decoded as text. Any transport error or non-200
// status is retried after a fixed delay. When every attempt fails the error
// wraps model.ErrUnavailable.
//
// Cancelling ctx does not interrupt an attempt already in flight; it stops the
// loop before the next one.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		body, err := f.attempt(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		f.logger.Warn("fetch attempt failed",
			"url", url,
			"attempt", attempt,
			"max_attempts", f.attempts,
			"error", err,
		)

		if attempt == f.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("fetch %s cancelled after %d attempts: %w", url, attempt, ctx.Err())
		case <-time.After(f.delay(err)):
		}
	}

	return "", fmt.Errorf("fetch %s after %d attempts: %w: %w", url, f.attempts, model.ErrUnavailable, lastErr)
}

func (f *HTTPFetcher) attempt(ctx context.Context, url string) (string, error) {
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("unexpected status from %s", url),
		}
	}

	return readBody(resp)
}

// delay honours a Retry-After hint when it is longer than the fixed delay.
func (f *HTTPFetcher) delay(err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > f.retryDelay {
		return min(httpErr.RetryAfter, maxRetryAfter)
	}
	return f.retryDelay
}

// readBody decompresses gzip when the server sent it and decodes the declared
// charset to UTF-8. Undecodable bytes are replaced rather than failing.
func readBody(resp *http.Response) (string, error) {
	var reader io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("opening gzip body: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	raw, err := io.ReadAll(io.LimitReader(reader, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}

	decoded := raw
	if r, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type")); err == nil {
		if b, err := io.ReadAll(r); err == nil {
			decoded = b
		}
	}
	return strings.ToValidUTF8(string(decoded), "�"), nil
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
