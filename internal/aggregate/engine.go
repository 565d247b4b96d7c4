// Package aggregate provides cross-dimension aggregation over the team x role
// ranking matrix: global player search, per-player profile discovery and team
// top-performer digests. Ranking computation itself is remote; this package
// only fans out, merges and orders.
package aggregate

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"cricket-rank-lab/internal/domain"
	"cricket-rank-lab/internal/observability"
)

// MinQueryLength is the minimum search query length in characters. Shorter
// queries return empty without issuing any remote call.
const MinQueryLength = 2

// DefaultWindow is the match window used for matrix fan-out queries.
const DefaultWindow = 10

// RankingProvider supplies fresh ranking sets for one matrix cell.
// Returned entries are sorted by rating descending; the remote service is the
// authoritative ordering source.
type RankingProvider interface {
	RefreshRankings(ctx context.Context, role domain.Role, teamID domain.TeamID, matches int) ([]domain.RankingEntry, error)
}

// Engine executes queries against every cell of a fixed (team, role) matrix
// and merges the partial results. Engine calls are stateless; every call
// constructs its own result set, so concurrent use needs no locking.
type Engine struct {
	provider RankingProvider
	matrix   []domain.Cell
	window   int
	logger   *log.Logger
}

// Options contains configuration for creating an Engine.
type Options struct {
	Provider RankingProvider
	Matrix   []domain.Cell // defaults to domain.DefaultMatrix()
	Window   int           // defaults to DefaultWindow
	Logger   *log.Logger
}

// New creates a new aggregation engine.
func New(opts Options) *Engine {
	matrix := opts.Matrix
	if matrix == nil {
		matrix = domain.DefaultMatrix()
	}

	window := opts.Window
	if window == 0 {
		window = DefaultWindow
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Engine{
		provider: opts.Provider,
		matrix:   matrix,
		window:   window,
		logger:   logger,
	}
}

// fanOut fetches every matrix cell's ranking set concurrently and returns the
// results indexed by matrix traversal position. A failed cell yields a nil
// ranking set at its index; the failure is logged and isolated.
func (e *Engine) fanOut(ctx context.Context) [][]domain.RankingEntry {
	results := make([][]domain.RankingEntry, len(e.matrix))

	var wg sync.WaitGroup
	for i, cell := range e.matrix {
		wg.Add(1)
		go func(i int, cell domain.Cell) {
			defer wg.Done()
			rankings, err := e.provider.RefreshRankings(ctx, cell.Role, cell.Team, e.window)
			if err != nil {
				e.logger.Printf("aggregate: cell %s/%s failed: %v", cell.Team, cell.Role, err)
				observability.RecordCellError(cell.Team.String(), cell.Role.String())
				return
			}
			results[i] = rankings
		}(i, cell)
	}
	wg.Wait()

	return results
}

// Search fans a name query out across the matrix and merges matches into one
// sequence sorted by current rating descending (ties preserve matrix
// traversal order). Queries shorter than MinQueryLength return empty without
// any remote call. Per-cell failures contribute zero results and never fail
// the overall call.
func (e *Engine) Search(ctx context.Context, query string) []domain.SearchResult {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return []domain.SearchResult{}
	}
	needle := strings.ToLower(query)

	results := make([]domain.SearchResult, 0)
	for i, rankings := range e.fanOut(ctx) {
		cell := e.matrix[i]
		for pos, entry := range rankings {
			if !strings.Contains(strings.ToLower(entry.PlayerName), needle) {
				continue
			}
			results = append(results, domain.SearchResult{
				PlayerID:      entry.PlayerID,
				PlayerName:    entry.PlayerName,
				TeamID:        cell.Team,
				Role:          cell.Role,
				CurrentRating: entry.Points,
				CurrentRank:   pos + 1,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CurrentRating > results[j].CurrentRating
	})

	return results
}

// FindProfiles locates a player across the matrix by exact ID. At most one
// result per (team, role) cell, ordered by matrix traversal order. Per-cell
// failure policy is identical to Search.
func (e *Engine) FindProfiles(ctx context.Context, playerID int) []domain.SearchResult {
	results := make([]domain.SearchResult, 0)
	for i, rankings := range e.fanOut(ctx) {
		cell := e.matrix[i]
		for pos, entry := range rankings {
			if entry.PlayerID != playerID {
				continue
			}
			results = append(results, domain.SearchResult{
				PlayerID:      entry.PlayerID,
				PlayerName:    entry.PlayerName,
				TeamID:        cell.Team,
				Role:          cell.Role,
				CurrentRating: entry.Points,
				CurrentRank:   pos + 1,
			})
			break
		}
	}
	return results
}

// TopPerformers holds the top entries of each role for one team, in the
// remote service's authoritative order.
type TopPerformers struct {
	Batsmen     []domain.RankingEntry
	Bowlers     []domain.RankingEntry
	Allrounders []domain.RankingEntry
}

// topN is the number of entries kept per role in a team digest.
const topN = 3

// TopPerformers fetches the three role-specific ranking sets for one team in
// parallel and keeps the top three of each. Unlike Search, any single fetch
// failure fails the whole call: a partial three-card digest is not useful.
func (e *Engine) TopPerformers(ctx context.Context, teamID domain.TeamID, matches int) (*TopPerformers, error) {
	roles := domain.Roles()
	sets := make([][]domain.RankingEntry, len(roles))
	errs := make([]error, len(roles))

	var wg sync.WaitGroup
	for i, role := range roles {
		wg.Add(1)
		go func(i int, role domain.Role) {
			defer wg.Done()
			sets[i], errs[i] = e.provider.RefreshRankings(ctx, role, teamID, matches)
		}(i, role)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("top performers %s/%s: %w", teamID, roles[i], err)
		}
	}

	return &TopPerformers{
		Batsmen:     topSlice(sets[0]),
		Bowlers:     topSlice(sets[1]),
		Allrounders: topSlice(sets[2]),
	}, nil
}

func topSlice(entries []domain.RankingEntry) []domain.RankingEntry {
	if len(entries) > topN {
		return entries[:topN]
	}
	return entries
}
