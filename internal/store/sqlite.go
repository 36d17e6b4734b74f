package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/jobrisk/jobrisk/internal/model"
)

// SQLiteStore keeps listings in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ model.ListingStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// listings table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One writer at a time; concurrent runs queue on this connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := []string{
		`PRAGMA busy_timeout = 5000`,
		`CREATE TABLE IF NOT EXISTS listings (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			title         TEXT NOT NULL,
			link          TEXT NOT NULL UNIQUE,
			company       TEXT NOT NULL DEFAULT '',
			date_posted   TEXT NOT NULL,
			deadline      TEXT,
			contract_type TEXT NOT NULL DEFAULT '',
			sector        TEXT NOT NULL DEFAULT '',
			job_title     TEXT NOT NULL DEFAULT '',
			location      TEXT NOT NULL DEFAULT '',
			description   TEXT NOT NULL DEFAULT '',
			reference     TEXT NOT NULL DEFAULT '',
			is_urgent     INTEGER NOT NULL DEFAULT 0,
			ia_risk_score REAL NOT NULL,
			ia_risk_level TEXT NOT NULL,
			suggestions   TEXT NOT NULL DEFAULT '',
			source        TEXT NOT NULL,
			scraped_at    TEXT NOT NULL,
			is_active     INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_title_company ON listings (title, company)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_level ON listings (ia_risk_level)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating listings schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

func sqliteBind(int) string { return "?" }

// Exists reports whether a listing matching q is already stored.
func (s *SQLiteStore) Exists(ctx context.Context, q model.IdentityQuery) (bool, error) {
	where, args := identityWhere(q, sqliteBind)
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM listings WHERE "+where+" LIMIT 1", args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking listing %s: %w", q.Link, classifySQLite(err))
	}
	return true, nil
}

// Insert stores l and sets l.ID. A second listing with the same link fails
// with an error wrapping model.ErrDuplicate.
func (s *SQLiteStore) Insert(ctx context.Context, l *model.Listing) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", 18), ", ")
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO listings ("+listingColumns+") VALUES ("+placeholders+")",
		l.Title, l.Link, l.Company, l.DatePosted.Format(dateLayout), formatDeadline(l.Deadline),
		l.ContractType, l.Sector, l.JobTitle, l.Location, l.Description, l.Reference,
		l.IsUrgent, l.RiskScore, string(l.RiskLevel), joinSuggestions(l.Suggestions),
		l.Source, l.ScrapedAt.UTC().Format(timestampLayout), l.IsActive,
	)
	if err != nil {
		return fmt.Errorf("inserting listing %s: %w", l.Link, classifySQLite(err))
	}
	if id, err := res.LastInsertId(); err == nil {
		l.ID = id
	}
	return nil
}

// Refresh overwrites the score, level and suggestions of the listings
// matching q. scraped_at only moves forward.
func (s *SQLiteStore) Refresh(ctx context.Context, q model.IdentityQuery, l model.Listing) (int64, error) {
	where, args := identityWhere(q, sqliteBind)
	args = append([]any{
		l.RiskScore, string(l.RiskLevel), joinSuggestions(l.Suggestions),
		l.ScrapedAt.UTC().Format(timestampLayout),
	}, args...)
	res, err := s.db.ExecContext(ctx,
		`UPDATE listings SET ia_risk_score = ?, ia_risk_level = ?, suggestions = ?,
			scraped_at = MAX(scraped_at, ?) WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("refreshing listing %s: %w", q.Link, classifySQLite(err))
	}
	return res.RowsAffected()
}

// List returns listings matching f, most recently scraped first.
func (s *SQLiteStore) List(ctx context.Context, f model.ListFilter) ([]model.Listing, error) {
	where, args := listWhere(f, sqliteBind)
	query := "SELECT id, " + listingColumns + " FROM listings" + where + " ORDER BY scraped_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing listings: %w", classifySQLite(err))
	}
	defer rows.Close()

	var out []model.Listing
	for rows.Next() {
		var (
			l                   model.Listing
			datePosted, scraped string
			deadline            *string
			level, suggestions  string
		)
		if err := rows.Scan(&l.ID, &l.Title, &l.Link, &l.Company, &datePosted, &deadline,
			&l.ContractType, &l.Sector, &l.JobTitle, &l.Location, &l.Description, &l.Reference,
			&l.IsUrgent, &l.RiskScore, &level, &suggestions, &l.Source, &scraped, &l.IsActive); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		l.DatePosted, _ = time.Parse(dateLayout, datePosted)
		l.Deadline = parseDeadline(deadline)
		l.RiskLevel = model.RiskLevel(level)
		l.Suggestions = splitSuggestions(suggestions)
		l.ScrapedAt, _ = time.Parse(timestampLayout, scraped)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listings: %w", classifySQLite(err))
	}
	return out, nil
}

// Count returns the number of stored listings.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting listings: %w", classifySQLite(err))
	}
	return n, nil
}

// DeactivateStale clears is_active on listings last scraped before seenBefore.
func (s *SQLiteStore) DeactivateStale(ctx context.Context, seenBefore time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE listings SET is_active = 0 WHERE is_active = 1 AND scraped_at < ?",
		seenBefore.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("deactivating listings older than %s: %w", seenBefore.Format(time.RFC3339), classifySQLite(err))
	}
	return res.RowsAffected()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func classifySQLite(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return duplicate(err)
		}
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_IOERR, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
			return connectionLost(err)
		}
		return err
	}
	if isConnectionError(err) {
		return connectionLost(err)
	}
	return err
}
