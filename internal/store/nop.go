package store

import (
	"context"
	"time"

	"github.com/jobrisk/jobrisk/internal/model"
)

// NopStore is a no-op store used in dry-run mode. Nothing is ever stored,
// so every listing looks new and every insert succeeds.
type NopStore struct{}

var _ model.ListingStore = (*NopStore)(nil)

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Exists(context.Context, model.IdentityQuery) (bool, error) { return false, nil }
func (s *NopStore) Insert(context.Context, *model.Listing) error              { return nil }
func (s *NopStore) Refresh(context.Context, model.IdentityQuery, model.Listing) (int64, error) {
	return 0, nil
}
func (s *NopStore) List(context.Context, model.ListFilter) ([]model.Listing, error) { return nil, nil }
func (s *NopStore) Count(context.Context) (int, error)                              { return 0, nil }
func (s *NopStore) DeactivateStale(context.Context, time.Time) (int64, error)       { return 0, nil }
func (s *NopStore) Close() error                                                    { return nil }
