// Package storage defines the dashboard's server-side cache and archive
// stores. The remote ranking service owns all authoritative snapshot data;
// these stores only keep fetched results warm (ranking cache) and accumulate
// per-player timeline history for fast chart rendering (timeline archive).
package storage

import (
	"context"
	"time"

	"cricket-rank-lab/internal/domain"
)

// CachedRankings is one cached ranking set with its fetch time. Staleness
// policy is the caller's concern.
type CachedRankings struct {
	Cell      domain.Cell
	Window    int
	Entries   []domain.RankingEntry
	FetchedAt time.Time
}

// RankingCacheStore caches remote ranking sets per (cell, window).
type RankingCacheStore interface {
	// Put stores or replaces the cached ranking set for (cell, window).
	Put(ctx context.Context, cell domain.Cell, window int, entries []domain.RankingEntry, fetchedAt time.Time) error

	// Get retrieves the cached ranking set for (cell, window).
	// Returns ErrNotFound on a cache miss.
	Get(ctx context.Context, cell domain.Cell, window int) (*CachedRankings, error)
}

// TimelineStore archives per-player timeline points derived from snapshot
// details. Append-only; the uniqueness key is (team, role, player, snapshot).
type TimelineStore interface {
	// InsertBulk adds multiple points. Returns ErrDuplicateKey if any point's
	// key already exists; callers re-archiving known ranges treat that as
	// already-done, not an error.
	InsertBulk(ctx context.Context, points []*domain.TimelinePoint) error

	// GetByPlayer retrieves all archived points for a player within one
	// (team, role), ordered by date ASC.
	GetByPlayer(ctx context.Context, teamID domain.TeamID, role domain.Role, playerID int) ([]*domain.TimelinePoint, error)
}
