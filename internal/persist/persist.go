// Package persist writes scored listings through the identity check and
// insert sequence, turning store errors into per-listing outcomes.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobrisk/jobrisk/internal/model"
)

var errNoLink = errors.New("listing has no link")

// Persister stores new listings and classifies what happened to each one.
type Persister struct {
	store   model.ListingStore
	refresh bool
	now     func() time.Time
	logger  *slog.Logger
}

// NewPersister creates a Persister. With refresh set, a listing that already
// exists gets its score, level and suggestions overwritten instead of being
// skipped.
func NewPersister(store model.ListingStore, refresh bool, logger *slog.Logger) *Persister {
	return &Persister{store: store, refresh: refresh, now: time.Now, logger: logger}
}

// Persist stores l unless a listing with the same identity under rule exists.
// On OutcomeFailed the returned error is non-nil; Fatal tells whether the
// rest of the run should be abandoned.
func (p *Persister) Persist(ctx context.Context, l *model.Listing, rule model.IdentityRule) (model.Outcome, error) {
	if l.Link == "" {
		return model.OutcomeFailed, fmt.Errorf("persisting %q: %w", l.Title, errNoLink)
	}

	q := model.IdentityQuery{
		Rule:    rule,
		Link:    l.Link,
		Title:   l.Title,
		Company: l.Company,
		Source:  l.Source,
	}

	exists, err := p.store.Exists(ctx, q)
	if err != nil {
		return model.OutcomeFailed, fmt.Errorf("persisting %s: %w", l.Link, err)
	}
	l.ScrapedAt = p.now()
	if exists {
		return p.duplicate(ctx, q, l)
	}

	l.IsActive = true
	if err := p.store.Insert(ctx, l); err != nil {
		// Another run inserted the same link between Exists and Insert.
		if errors.Is(err, model.ErrDuplicate) {
			p.logger.Debug("insert raced with another run", "link", l.Link)
			return p.duplicate(ctx, q, l)
		}
		return model.OutcomeFailed, fmt.Errorf("persisting %s: %w", l.Link, err)
	}
	return model.OutcomeInserted, nil
}

func (p *Persister) duplicate(ctx context.Context, q model.IdentityQuery, l *model.Listing) (model.Outcome, error) {
	if !p.refresh {
		return model.OutcomeSkippedDuplicate, nil
	}
	if _, err := p.store.Refresh(ctx, q, *l); err != nil {
		return model.OutcomeFailed, fmt.Errorf("refreshing %s: %w", l.Link, err)
	}
	return model.OutcomeRefreshed, nil
}

// Fatal reports whether err from Persist means the store is unusable.
func Fatal(err error) bool {
	return errors.Is(err, model.ErrConnectionLost) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
