package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jobrisk/jobrisk/internal/model"
)

// SuggestionSeparator joins suggestions in the suggestions column.
const SuggestionSeparator = ", "

const (
	dateLayout = "2006-01-02"
	// Fixed width so stored timestamps compare correctly as text.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// listingColumns is the column order shared by inserts and selects.
const listingColumns = `title, link, company, date_posted, deadline, contract_type, sector,
	job_title, location, description, reference, is_urgent, ia_risk_score, ia_risk_level,
	suggestions, source, scraped_at, is_active`

// identityWhere builds the WHERE clause for q. bind returns the placeholder
// for the n-th argument (1-based).
func identityWhere(q model.IdentityQuery, bind func(n int) string) (string, []any) {
	switch q.Rule {
	case model.IdentityLinkOrTitleCompany:
		return fmt.Sprintf("link = %s OR (title = %s AND company = %s)", bind(1), bind(2), bind(3)),
			[]any{q.Link, q.Title, q.Company}
	case model.IdentityLinkAndSource:
		return fmt.Sprintf("link = %s AND source = %s", bind(1), bind(2)),
			[]any{q.Link, q.Source}
	default:
		return fmt.Sprintf("link = %s", bind(1)), []any{q.Link}
	}
}

// listWhere builds the WHERE clause and args for f, numbering placeholders
// from 1.
func listWhere(f model.ListFilter, bind func(n int) string) (string, []any) {
	var conds []string
	var args []any
	if f.ActiveOnly {
		conds = append(conds, "is_active = "+bind(len(args)+1))
		args = append(args, true)
	}
	if f.Level != "" {
		conds = append(conds, "ia_risk_level = "+bind(len(args)+1))
		args = append(args, string(f.Level))
	}
	if f.Source != "" {
		conds = append(conds, "source = "+bind(len(args)+1))
		args = append(args, f.Source)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func joinSuggestions(s []string) string {
	return strings.Join(s, SuggestionSeparator)
}

func splitSuggestions(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, SuggestionSeparator)
}

func formatDeadline(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format(dateLayout)
}

func parseDeadline(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}

// Open returns the store for driver: "sqlite" (dsn is a file path), "postgres"
// (dsn is a connection URL) or "nop".
func Open(ctx context.Context, driver, dsn string) (model.ListingStore, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLiteStore(dsn)
	case "postgres":
		return NewPostgresStore(ctx, dsn)
	case "nop":
		return NewNopStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
