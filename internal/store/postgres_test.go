package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jobrisk/jobrisk/internal/model"
)

// Runs only when JOBRISK_TEST_POSTGRES_DSN points at a disposable database.
func newPostgresTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("JOBRISK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("JOBRISK_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	if _, err := s.pool.Exec(ctx, "TRUNCATE listings"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgresInsertExistsDuplicate(t *testing.T) {
	s := newPostgresTestStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, testListing("https://example.mg/pg")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	ok, err := s.Exists(ctx, model.IdentityQuery{Rule: model.IdentityLink, Link: "https://example.mg/pg"})
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	if err := s.Insert(ctx, testListing("https://example.mg/pg")); !errors.Is(err, model.ErrDuplicate) {
		t.Errorf("second Insert err = %v, want ErrDuplicate", err)
	}

	got, err := s.List(ctx, model.ListFilter{ActiveOnly: true, Limit: 5})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Deadline == nil || got[0].Reference != "CPT1" {
		t.Errorf("List = %+v", got)
	}
}
