package rankingapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"cricket-rank-lab/internal/domain"
)

// rankingsEnvelope is the raw wire shape of ranking set responses.
// The rankings payload is role-dependent and decoded separately.
type rankingsEnvelope struct {
	Role       string          `json:"role"`
	TeamID     string          `json:"teamId"`
	NumMatches int             `json:"numMatches"`
	Rankings   json.RawMessage `json:"rankings"`
}

// Role-specific wire shapes, flat per the remote service contract.
type batsmanWire struct {
	PlayerID       int     `json:"playerId"`
	PlayerName     string  `json:"playerName"`
	PlayerPoints   float64 `json:"playerPoints"`
	Innings        int     `json:"innings"`
	BattingAverage float64 `json:"battingAverage"`
	StrikeRate     float64 `json:"strikeRate"`
	Confidence     float64 `json:"confidence"`
}

type bowlerWire struct {
	PlayerID       int     `json:"playerId"`
	PlayerName     string  `json:"playerName"`
	PlayerPoints   float64 `json:"playerPoints"`
	Innings        int     `json:"innings"`
	BowlingAverage float64 `json:"bowlingAverage"`
	Economy        float64 `json:"economy"`
	Confidence     float64 `json:"confidence"`
}

type allrounderWire struct {
	PlayerID       int     `json:"playerId"`
	PlayerName     string  `json:"playerName"`
	PlayerPoints   float64 `json:"playerPoints"`
	TotalInnings   int     `json:"totalInnings"`
	BattingAverage float64 `json:"battingAverage"`
	StrikeRate     float64 `json:"strikeRate"`
	BowlingAverage float64 `json:"bowlingAverage"`
	Economy        float64 `json:"economy"`
	Confidence     float64 `json:"confidence"`
}

// decodeRankings maps a role-tagged raw rankings payload into domain entries.
func decodeRankings(role domain.Role, raw json.RawMessage) ([]domain.RankingEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	switch role {
	case domain.RoleBatsman:
		var wire []batsmanWire
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, fmt.Errorf("decode batsman rankings: %w", err)
		}
		entries := make([]domain.RankingEntry, len(wire))
		for i, w := range wire {
			entries[i] = domain.RankingEntry{
				PlayerID:   w.PlayerID,
				PlayerName: w.PlayerName,
				Role:       role,
				Points:     w.PlayerPoints,
				Innings:    w.Innings,
				Confidence: w.Confidence,
				Batting: &domain.BattingStats{
					Average:    w.BattingAverage,
					StrikeRate: w.StrikeRate,
				},
			}
		}
		return entries, nil

	case domain.RoleBowler:
		var wire []bowlerWire
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, fmt.Errorf("decode bowler rankings: %w", err)
		}
		entries := make([]domain.RankingEntry, len(wire))
		for i, w := range wire {
			entries[i] = domain.RankingEntry{
				PlayerID:   w.PlayerID,
				PlayerName: w.PlayerName,
				Role:       role,
				Points:     w.PlayerPoints,
				Innings:    w.Innings,
				Confidence: w.Confidence,
				Bowling: &domain.BowlingStats{
					Average: w.BowlingAverage,
					Economy: w.Economy,
				},
			}
		}
		return entries, nil

	case domain.RoleAllrounder:
		var wire []allrounderWire
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, fmt.Errorf("decode allrounder rankings: %w", err)
		}
		entries := make([]domain.RankingEntry, len(wire))
		for i, w := range wire {
			entries[i] = domain.RankingEntry{
				PlayerID:   w.PlayerID,
				PlayerName: w.PlayerName,
				Role:       role,
				Points:     w.PlayerPoints,
				Innings:    w.TotalInnings,
				Confidence: w.Confidence,
				Allround: &domain.AllroundStats{
					BattingAverage: w.BattingAverage,
					StrikeRate:     w.StrikeRate,
					BowlingAverage: w.BowlingAverage,
					Economy:        w.Economy,
				},
			}
		}
		return entries, nil

	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
}

func rankingParams(role domain.Role, teamID domain.TeamID, matches int) url.Values {
	return url.Values{
		"role":    {role.String()},
		"teamId":  {teamID.String()},
		"matches": {strconv.Itoa(matches)},
	}
}

// GetRankings retrieves the cached ranking set for a (team, role, window),
// sorted by rating descending.
func (c *Client) GetRankings(ctx context.Context, role domain.Role, teamID domain.TeamID, matches int) ([]domain.RankingEntry, error) {
	var envelope rankingsEnvelope
	if err := c.get(ctx, "/rankings/getRankings", rankingParams(role, teamID, matches), &envelope); err != nil {
		return nil, err
	}
	return decodeRankings(role, envelope.Rankings)
}

// RefreshRankings recomputes and retrieves the ranking set for a
// (team, role, window), sorted by rating descending.
func (c *Client) RefreshRankings(ctx context.Context, role domain.Role, teamID domain.TeamID, matches int) ([]domain.RankingEntry, error) {
	var envelope rankingsEnvelope
	if err := c.get(ctx, "/rankings/refreshRankings", rankingParams(role, teamID, matches), &envelope); err != nil {
		return nil, err
	}
	return decodeRankings(role, envelope.Rankings)
}

// GetPreviousRanking retrieves the one-period-older ranking set. The call may
// legitimately fail when no prior period exists; callers treat failure as
// "no data", not fatal.
func (c *Client) GetPreviousRanking(ctx context.Context, role domain.Role, teamID domain.TeamID, matches int) ([]domain.RankingEntry, error) {
	var envelope rankingsEnvelope
	if err := c.get(ctx, "/rankings/getPreviousRanking", rankingParams(role, teamID, matches), &envelope); err != nil {
		return nil, err
	}
	return decodeRankings(role, envelope.Rankings)
}

// historicalRankingsWire is the raw wire shape of the snapshot index.
type historicalRankingsWire struct {
	Role           string                   `json:"role"`
	TeamID         string                   `json:"teamId"`
	TotalSnapshots int                      `json:"totalSnapshots"`
	Snapshots      []historicalSnapshotWire `json:"snapshots"`
}

type historicalSnapshotWire struct {
	SnapshotID     string   `json:"snapshotId"`
	FirstMatchID   string   `json:"firstMatchId"`
	FirstMatchDate string   `json:"firstMatchDate"`
	MatchIDs       []string `json:"matchIds"`
}

// GetHistoricalRankings retrieves the ordered snapshot index for a
// (team, role).
func (c *Client) GetHistoricalRankings(ctx context.Context, role domain.Role, teamID domain.TeamID) (*domain.HistoricalRankings, error) {
	params := url.Values{
		"role":   {role.String()},
		"teamId": {teamID.String()},
	}

	var wire historicalRankingsWire
	if err := c.get(ctx, "/rankings/getHistoricalRankings", params, &wire); err != nil {
		return nil, err
	}

	index := &domain.HistoricalRankings{
		Role:           domain.Role(wire.Role),
		TeamID:         domain.TeamID(wire.TeamID),
		TotalSnapshots: wire.TotalSnapshots,
		Snapshots:      make([]domain.HistoricalSnapshot, len(wire.Snapshots)),
	}
	for i, s := range wire.Snapshots {
		index.Snapshots[i] = domain.HistoricalSnapshot{
			SnapshotID:     s.SnapshotID,
			FirstMatchID:   s.FirstMatchID,
			FirstMatchDate: s.FirstMatchDate,
			MatchIDs:       s.MatchIDs,
		}
	}
	return index, nil
}

// RefreshHistoricalRankings asks the remote service to rebuild the snapshot
// index for a (team, role).
func (c *Client) RefreshHistoricalRankings(ctx context.Context, role domain.Role, teamID domain.TeamID) (*domain.RebuildResult, error) {
	params := url.Values{
		"role":   {role.String()},
		"teamId": {teamID.String()},
	}

	var wire struct {
		Success        bool   `json:"success"`
		TotalSnapshots int    `json:"totalSnapshots"`
		Message        string `json:"message"`
	}
	if err := c.get(ctx, "/rankings/refreshHistoricalRankings", params, &wire); err != nil {
		return nil, err
	}

	return &domain.RebuildResult{
		Success:        wire.Success,
		TotalSnapshots: wire.TotalSnapshots,
		Message:        wire.Message,
	}, nil
}

// summaryWire is the raw wire shape of the historical summary response.
type summaryWire struct {
	PlayerID   int    `json:"playerId"`
	PlayerName string `json:"playerName"`
	Role       string `json:"role"`
	TeamID     string `json:"teamId"`
	Summary    struct {
		TotalAppearances int             `json:"totalAppearances"`
		CurrentSnapshot  snapshotRefWire `json:"currentSnapshot"`
		HighestRating    snapshotRefWire `json:"highestRating"`
		LowestRating     snapshotRefWire `json:"lowestRating"`
		HighestRank      snapshotRefWire `json:"highestRank"`
		LowestRank       snapshotRefWire `json:"lowestRank"`
	} `json:"summary"`
}

type snapshotRefWire struct {
	SnapshotID string  `json:"snapshotId"`
	Rating     float64 `json:"rating"`
	Rank       int     `json:"rank"`
	Date       string  `json:"date"`
}

func (w snapshotRefWire) toDomain() domain.SnapshotRef {
	return domain.SnapshotRef{
		SnapshotID: w.SnapshotID,
		Rating:     w.Rating,
		Rank:       w.Rank,
		Date:       w.Date,
	}
}

// GetPlayerHistoricalSummary retrieves a player's aggregated snapshot history
// for one (team, role).
func (c *Client) GetPlayerHistoricalSummary(ctx context.Context, role domain.Role, teamID domain.TeamID, playerID int) (*domain.PlayerHistoricalSummary, error) {
	params := url.Values{
		"role":     {role.String()},
		"teamId":   {teamID.String()},
		"playerId": {strconv.Itoa(playerID)},
	}

	var wire summaryWire
	if err := c.get(ctx, "/rankings/getPlayerHistoricalSummary", params, &wire); err != nil {
		return nil, err
	}

	return &domain.PlayerHistoricalSummary{
		PlayerID:         wire.PlayerID,
		PlayerName:       wire.PlayerName,
		Role:             domain.Role(wire.Role),
		TeamID:           domain.TeamID(wire.TeamID),
		TotalAppearances: wire.Summary.TotalAppearances,
		CurrentSnapshot:  wire.Summary.CurrentSnapshot.toDomain(),
		HighestRating:    wire.Summary.HighestRating.toDomain(),
		LowestRating:     wire.Summary.LowestRating.toDomain(),
		HighestRank:      wire.Summary.HighestRank.toDomain(),
		LowestRank:       wire.Summary.LowestRank.toDomain(),
	}, nil
}

// snapshotDetailsWire is the raw wire shape of snapshot detail responses.
type snapshotDetailsWire struct {
	SnapshotID     string          `json:"snapshotId"`
	Role           string          `json:"role"`
	TeamID         string          `json:"teamId"`
	FirstMatchID   string          `json:"firstMatchId"`
	FirstMatchDate string          `json:"firstMatchDate"`
	MatchIDs       []string        `json:"matchIds"`
	Rankings       json.RawMessage `json:"rankings"`
}

// GetSnapshotDetails retrieves the full ranking set of one historical period.
func (c *Client) GetSnapshotDetails(ctx context.Context, snapshotID string) (*domain.SnapshotDetails, error) {
	params := url.Values{"snapshotId": {snapshotID}}

	var wire snapshotDetailsWire
	if err := c.get(ctx, "/rankings/getSnapshotDetails", params, &wire); err != nil {
		return nil, err
	}

	role := domain.Role(wire.Role)
	rankings, err := decodeRankings(role, wire.Rankings)
	if err != nil {
		return nil, err
	}

	return &domain.SnapshotDetails{
		SnapshotID:     wire.SnapshotID,
		Role:           role,
		TeamID:         domain.TeamID(wire.TeamID),
		FirstMatchID:   wire.FirstMatchID,
		FirstMatchDate: wire.FirstMatchDate,
		MatchIDs:       wire.MatchIDs,
		Rankings:       rankings,
	}, nil
}
