// Package enrich replaces short listing descriptions with the readable text
// of the listing's own detail page.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"

	"github.com/jobrisk/jobrisk/internal/model"
	"github.com/jobrisk/jobrisk/internal/normalize"
)

// DetailEnricher fetches a listing's link and extracts its main text.
type DetailEnricher struct {
	fetcher  model.Fetcher
	maxChars int
	logger   *slog.Logger
}

// NewDetailEnricher returns an enricher capping descriptions at maxChars
// (normalize.MaxDescription when zero or larger).
func NewDetailEnricher(fetcher model.Fetcher, maxChars int, logger *slog.Logger) *DetailEnricher {
	if maxChars <= 0 || maxChars > normalize.MaxDescription {
		maxChars = normalize.MaxDescription
	}
	return &DetailEnricher{fetcher: fetcher, maxChars: maxChars, logger: logger}
}

// Enrich updates l.Description when the detail page yields more text than the
// listing card did. Failures leave the listing untouched and are only logged.
func (e *DetailEnricher) Enrich(ctx context.Context, l *model.Listing) {
	text, err := e.detailText(ctx, l.Link)
	if err != nil {
		e.logger.Debug("detail enrichment skipped", "link", l.Link, "error", err)
		return
	}
	if utf8.RuneCountInString(text) <= utf8.RuneCountInString(l.Description) {
		return
	}
	l.Description = normalize.Truncate(text, e.maxChars)
}

func (e *DetailEnricher) detailText(ctx context.Context, link string) (string, error) {
	pageURL, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parsing link %q: %w", link, err)
	}

	markup, err := e.fetcher.Fetch(ctx, link)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(strings.NewReader(markup), pageURL)
	if err != nil {
		return "", fmt.Errorf("extracting readable text from %s: %w", link, err)
	}
	return strings.TrimSpace(article.TextContent), nil
}
