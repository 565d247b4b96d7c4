package memory

import (
	"context"
	"sync"
	"time"

	"cricket-rank-lab/internal/domain"
	"cricket-rank-lab/internal/storage"
)

// cacheKey identifies one cached ranking set.
type cacheKey struct {
	team   domain.TeamID
	role   domain.Role
	window int
}

// RankingCacheStore is an in-memory implementation of
// storage.RankingCacheStore.
type RankingCacheStore struct {
	mu   sync.RWMutex
	data map[cacheKey]*storage.CachedRankings
}

// NewRankingCacheStore creates a new in-memory ranking cache store.
func NewRankingCacheStore() *RankingCacheStore {
	return &RankingCacheStore{
		data: make(map[cacheKey]*storage.CachedRankings),
	}
}

// Put stores or replaces the cached ranking set for (cell, window).
func (s *RankingCacheStore) Put(_ context.Context, cell domain.Cell, window int, entries []domain.RankingEntry, fetchedAt time.Time) error {
	if window <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	entriesCopy := make([]domain.RankingEntry, len(entries))
	copy(entriesCopy, entries)

	s.data[cacheKey{cell.Team, cell.Role, window}] = &storage.CachedRankings{
		Cell:      cell,
		Window:    window,
		Entries:   entriesCopy,
		FetchedAt: fetchedAt,
	}
	return nil
}

// Get retrieves the cached ranking set for (cell, window). Returns
// ErrNotFound on a cache miss.
func (s *RankingCacheStore) Get(_ context.Context, cell domain.Cell, window int) (*storage.CachedRankings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cached, exists := s.data[cacheKey{cell.Team, cell.Role, window}]
	if !exists {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	entriesCopy := make([]domain.RankingEntry, len(cached.Entries))
	copy(entriesCopy, cached.Entries)

	return &storage.CachedRankings{
		Cell:      cached.Cell,
		Window:    cached.Window,
		Entries:   entriesCopy,
		FetchedAt: cached.FetchedAt,
	}, nil
}

// Verify interface compliance at compile time.
var _ storage.RankingCacheStore = (*RankingCacheStore)(nil)
