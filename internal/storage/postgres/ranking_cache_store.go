package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cricket-rank-lab/internal/domain"
	"cricket-rank-lab/internal/storage"
)

// RankingCacheStore implements storage.RankingCacheStore using PostgreSQL.
// Cached ranking sets are stored as jsonb payloads keyed by (team, role,
// match window); Put replaces any previous payload for the key.
type RankingCacheStore struct {
	pool *Pool
}

// NewRankingCacheStore creates a new RankingCacheStore.
func NewRankingCacheStore(pool *Pool) *RankingCacheStore {
	return &RankingCacheStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RankingCacheStore = (*RankingCacheStore)(nil)

// Put stores or replaces the cached ranking set for (cell, window).
func (s *RankingCacheStore) Put(ctx context.Context, cell domain.Cell, window int, entries []domain.RankingEntry, fetchedAt time.Time) error {
	if window <= 0 {
		return storage.ErrInvalidInput
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal ranking entries: %w", err)
	}

	query := `
		INSERT INTO ranking_cache (team_id, role, match_window, entries, fetched_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (team_id, role, match_window)
		DO UPDATE SET entries = EXCLUDED.entries, fetched_at = EXCLUDED.fetched_at
	`

	_, err = s.pool.Exec(ctx, query,
		cell.Team.String(),
		cell.Role.String(),
		window,
		payload,
		fetchedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("put ranking cache: %w", err)
	}
	return nil
}

// Get retrieves the cached ranking set for (cell, window). Returns
// ErrNotFound on a cache miss.
func (s *RankingCacheStore) Get(ctx context.Context, cell domain.Cell, window int) (*storage.CachedRankings, error) {
	query := `
		SELECT entries, fetched_at
		FROM ranking_cache
		WHERE team_id = $1 AND role = $2 AND match_window = $3
	`

	var payload []byte
	var fetchedAt time.Time
	err := s.pool.QueryRow(ctx, query, cell.Team.String(), cell.Role.String(), window).
		Scan(&payload, &fetchedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ranking cache: %w", err)
	}

	var entries []domain.RankingEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal ranking entries: %w", err)
	}

	return &storage.CachedRankings{
		Cell:      cell,
		Window:    window,
		Entries:   entries,
		FetchedAt: fetchedAt,
	}, nil
}
