package memory

import (
	"context"
	"sort"
	"sync"

	"cricket-rank-lab/internal/domain"
	"cricket-rank-lab/internal/storage"
)

// timelineKey is the uniqueness key of one archived point.
type timelineKey struct {
	team       domain.TeamID
	role       domain.Role
	playerID   int
	snapshotID string
}

// TimelineStore is an in-memory implementation of storage.TimelineStore.
type TimelineStore struct {
	mu   sync.RWMutex
	data map[timelineKey]*domain.TimelinePoint
}

// NewTimelineStore creates a new in-memory timeline store.
func NewTimelineStore() *TimelineStore {
	return &TimelineStore{
		data: make(map[timelineKey]*domain.TimelinePoint),
	}
}

// InsertBulk adds multiple points. Returns ErrDuplicateKey if any point's key
// already exists; the batch is rejected as a whole.
func (s *TimelineStore) InsertBulk(_ context.Context, points []*domain.TimelinePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check intra-batch and existing duplicates before mutating
	seen := make(map[timelineKey]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.SnapshotID == "" {
			return storage.ErrInvalidInput
		}
		k := timelineKey{p.TeamID, p.Role, p.PlayerID, p.SnapshotID}
		if _, dup := seen[k]; dup {
			return storage.ErrDuplicateKey
		}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, p := range points {
		pointCopy := *p
		s.data[timelineKey{p.TeamID, p.Role, p.PlayerID, p.SnapshotID}] = &pointCopy
	}
	return nil
}

// GetByPlayer retrieves all archived points for a player within one
// (team, role), ordered by date ASC.
func (s *TimelineStore) GetByPlayer(_ context.Context, teamID domain.TeamID, role domain.Role, playerID int) ([]*domain.TimelinePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TimelinePoint
	for k, p := range s.data {
		if k.team == teamID && k.role == role && k.playerID == playerID {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].SnapshotID < result[j].SnapshotID
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.TimelineStore = (*TimelineStore)(nil)
