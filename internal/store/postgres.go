package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobrisk/jobrisk/internal/model"
)

// PostgresStore keeps listings in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ model.ListingStore = (*PostgresStore)(nil)

// NewPostgresStore connects to dsn, verifies the connection and ensures the
// listings table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS listings (
			id            BIGSERIAL PRIMARY KEY,
			title         TEXT NOT NULL,
			link          TEXT NOT NULL UNIQUE,
			company       TEXT NOT NULL DEFAULT '',
			date_posted   DATE NOT NULL,
			deadline      DATE,
			contract_type TEXT NOT NULL DEFAULT '',
			sector        TEXT NOT NULL DEFAULT '',
			job_title     TEXT NOT NULL DEFAULT '',
			location      TEXT NOT NULL DEFAULT '',
			description   TEXT NOT NULL DEFAULT '',
			reference     TEXT NOT NULL DEFAULT '',
			is_urgent     BOOLEAN NOT NULL DEFAULT false,
			ia_risk_score DOUBLE PRECISION NOT NULL,
			ia_risk_level TEXT NOT NULL,
			suggestions   TEXT NOT NULL DEFAULT '',
			source        TEXT NOT NULL,
			scraped_at    TIMESTAMPTZ NOT NULL,
			is_active     BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_title_company ON listings (title, company)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_level ON listings (ia_risk_level)`,
	}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("creating listings schema: %w", err)
		}
	}

	return &PostgresStore{pool: pool}, nil
}

func pgBind(n int) string { return fmt.Sprintf("$%d", n) }

// shiftBind numbers placeholders after the first offset arguments.
func shiftBind(offset int) func(int) string {
	return func(n int) string { return pgBind(n + offset) }
}

func (s *PostgresStore) Exists(ctx context.Context, q model.IdentityQuery) (bool, error) {
	where, args := identityWhere(q, pgBind)
	var one int
	err := s.pool.QueryRow(ctx, "SELECT 1 FROM listings WHERE "+where+" LIMIT 1", args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking listing %s: %w", q.Link, classifyPostgres(err))
	}
	return true, nil
}

func (s *PostgresStore) Insert(ctx context.Context, l *model.Listing) error {
	binds := make([]string, 18)
	for i := range binds {
		binds[i] = pgBind(i + 1)
	}
	err := s.pool.QueryRow(ctx,
		"INSERT INTO listings ("+listingColumns+") VALUES ("+strings.Join(binds, ", ")+") RETURNING id",
		l.Title, l.Link, l.Company, l.DatePosted, l.Deadline,
		l.ContractType, l.Sector, l.JobTitle, l.Location, l.Description, l.Reference,
		l.IsUrgent, l.RiskScore, string(l.RiskLevel), joinSuggestions(l.Suggestions),
		l.Source, l.ScrapedAt, l.IsActive,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("inserting listing %s: %w", l.Link, classifyPostgres(err))
	}
	return nil
}

func (s *PostgresStore) Refresh(ctx context.Context, q model.IdentityQuery, l model.Listing) (int64, error) {
	where, args := identityWhere(q, shiftBind(4))
	args = append([]any{l.RiskScore, string(l.RiskLevel), joinSuggestions(l.Suggestions), l.ScrapedAt}, args...)
	tag, err := s.pool.Exec(ctx,
		`UPDATE listings SET ia_risk_score = $1, ia_risk_level = $2, suggestions = $3,
			scraped_at = GREATEST(scraped_at, $4) WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("refreshing listing %s: %w", q.Link, classifyPostgres(err))
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) List(ctx context.Context, f model.ListFilter) ([]model.Listing, error) {
	where, args := listWhere(f, pgBind)
	query := "SELECT id, " + listingColumns + " FROM listings" + where + " ORDER BY scraped_at DESC, id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT " + pgBind(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", classifyPostgres(err))
	}
	defer rows.Close()

	var out []model.Listing
	for rows.Next() {
		var (
			l                  model.Listing
			level, suggestions string
		)
		if err := rows.Scan(&l.ID, &l.Title, &l.Link, &l.Company, &l.DatePosted, &l.Deadline,
			&l.ContractType, &l.Sector, &l.JobTitle, &l.Location, &l.Description, &l.Reference,
			&l.IsUrgent, &l.RiskScore, &level, &suggestions, &l.Source, &l.ScrapedAt, &l.IsActive); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		l.RiskLevel = model.RiskLevel(level)
		l.Suggestions = splitSuggestions(suggestions)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listings: %w", classifyPostgres(err))
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM listings").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting listings: %w", classifyPostgres(err))
	}
	return n, nil
}

func (s *PostgresStore) DeactivateStale(ctx context.Context, seenBefore time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE listings SET is_active = false WHERE is_active AND scraped_at < $1", seenBefore)
	if err != nil {
		return 0, fmt.Errorf("deactivating listings older than %s: %w", seenBefore.Format(time.RFC3339), classifyPostgres(err))
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// classifyPostgres maps unique violations (23505) to model.ErrDuplicate and
// connection classes (08xxx, admin shutdown) to model.ErrConnectionLost.
func classifyPostgres(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return duplicate(err)
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			return connectionLost(err)
		}
		return err
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || isConnectionError(err) {
		return connectionLost(err)
	}
	return err
}
