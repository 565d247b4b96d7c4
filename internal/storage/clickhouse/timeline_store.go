package clickhouse

import (
	"context"
	"fmt"

	"cricket-rank-lab/internal/domain"
	"cricket-rank-lab/internal/storage"
)

// TimelineStore implements storage.TimelineStore using ClickHouse.
type TimelineStore struct {
	conn *Conn
}

// NewTimelineStore creates a new TimelineStore.
func NewTimelineStore(conn *Conn) *TimelineStore {
	return &TimelineStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TimelineStore = (*TimelineStore)(nil)

// InsertBulk adds multiple points. Returns ErrDuplicateKey if any point's
// (team, role, player, snapshot) key already exists. MergeTree does not
// enforce uniqueness at insert time, so duplicates are checked explicitly
// before the batch is sent.
func (s *TimelineStore) InsertBulk(ctx context.Context, points []*domain.TimelinePoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		team       string
		role       string
		playerID   int
		snapshotID string
	}
	seen := make(map[key]struct{})
	for _, p := range points {
		if p == nil || p.SnapshotID == "" {
			return storage.ErrInvalidInput
		}
		k := key{p.TeamID.String(), p.Role.String(), p.PlayerID, p.SnapshotID}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, p := range points {
		exists, err := s.exists(ctx, p)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO timeline_points (
			team_id, role, player_id, snapshot_id, snapshot_date, rating, rank
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.TeamID.String(), p.Role.String(), int64(p.PlayerID),
			p.SnapshotID, p.Date, p.Rating, uint32(p.Rank),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// exists checks whether a point's key is already archived.
func (s *TimelineStore) exists(ctx context.Context, p *domain.TimelinePoint) (bool, error) {
	query := `
		SELECT count() FROM timeline_points
		WHERE team_id = ? AND role = ? AND player_id = ? AND snapshot_id = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query,
		p.TeamID.String(), p.Role.String(), int64(p.PlayerID), p.SnapshotID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByPlayer retrieves all archived points for a player within one
// (team, role), ordered by date ASC.
func (s *TimelineStore) GetByPlayer(ctx context.Context, teamID domain.TeamID, role domain.Role, playerID int) ([]*domain.TimelinePoint, error) {
	query := `
		SELECT team_id, role, player_id, snapshot_id, snapshot_date, rating, rank
		FROM timeline_points
		WHERE team_id = ? AND role = ? AND player_id = ?
		ORDER BY snapshot_date ASC, snapshot_id ASC
	`

	rows, err := s.conn.Query(ctx, query, teamID.String(), role.String(), int64(playerID))
	if err != nil {
		return nil, fmt.Errorf("get timeline by player: %w", err)
	}
	defer rows.Close()

	var result []*domain.TimelinePoint
	for rows.Next() {
		var (
			team, roleStr, snapshotID, date string
			pid                             int64
			rating                          float64
			rank                            uint32
		)
		if err := rows.Scan(&team, &roleStr, &pid, &snapshotID, &date, &rating, &rank); err != nil {
			return nil, fmt.Errorf("scan timeline point: %w", err)
		}
		result = append(result, &domain.TimelinePoint{
			TeamID:     domain.TeamID(team),
			Role:       domain.Role(roleStr),
			PlayerID:   int(pid),
			SnapshotID: snapshotID,
			Date:       date,
			Rating:     rating,
			Rank:       int(rank),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline points: %w", err)
	}

	return result, nil
}
