// Package lookup provides position lookups within ranking sets.
package lookup

import (
	"errors"

	"cricket-rank-lab/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrNoRankings      = errors.New("no rankings available")
	ErrPlayerNotRanked = errors.New("player not ranked")
)

// PlayerRank returns the entry and 1-based rank of playerID within a ranking
// set. The set's order is authoritative (remote service sorts by rating
// descending). Returns ErrNoRankings for an empty set and ErrPlayerNotRanked
// when the player does not appear.
func PlayerRank(entries []domain.RankingEntry, playerID int) (*domain.RankingEntry, int, error) {
	if len(entries) == 0 {
		return nil, 0, ErrNoRankings
	}

	for i := range entries {
		if entries[i].PlayerID == playerID {
			return &entries[i], i + 1, nil
		}
	}

	return nil, 0, ErrPlayerNotRanked
}
