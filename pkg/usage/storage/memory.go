package storage

import (
	"context"
	"sort"
	"sync"

	"listingforge/gateway/pkg/usage"
)

// MemoryStorage implements usage.ListingStore with an in-memory map.
type MemoryStorage struct {
	listings map[string]*usage.Listing
	mu       sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		listings: make(map[string]*usage.Listing),
	}
}

// Store saves a copy of listing.
func (s *MemoryStorage) Store(ctx context.Context, listing *usage.Listing) error {
	if err := ctx.Err(); err != nil {
		return usage.NewStorageError("memory", "store", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.listings[listing.ID] = copyListing(listing)
	return nil
}

// List returns matching listings, newest first.
func (s *MemoryStorage) List(ctx context.Context, query *usage.Query) ([]*usage.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*usage.Listing, 0)
	for _, l := range s.listings {
		if matches(l, query) {
			results = append(results, copyListing(l))
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID > results[j].ID
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if query != nil && query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results, nil
}

// Delete removes matching listings and returns how many were removed.
// Limit is ignored.
func (s *MemoryStorage) Delete(ctx context.Context, query *usage.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, l := range s.listings {
		if matches(l, query) {
			delete(s.listings, id)
			deleted++
		}
	}
	return deleted, nil
}

// Count returns the number of matching listings.
func (s *MemoryStorage) Count(ctx context.Context, query *usage.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, l := range s.listings {
		if matches(l, query) {
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}

func matches(l *usage.Listing, q *usage.Query) bool {
	if q == nil {
		return true
	}
	if q.AccountID != "" && l.AccountID != q.AccountID {
		return false
	}
	if q.Before != nil && !l.CreatedAt.Before(*q.Before) {
		return false
	}
	return true
}

func copyListing(l *usage.Listing) *usage.Listing {
	c := *l
	c.Content.Posts = append([]string(nil), l.Content.Posts...)
	return &c
}

var _ usage.ListingStore = (*MemoryStorage)(nil)
