package server

import (
	"time"

	"cricket-rank-lab/internal/aggregate"
	"cricket-rank-lab/internal/domain"
	"cricket-rank-lab/internal/profile"
)

// errorResponse is the JSON error envelope for all API endpoints.
type errorResponse struct {
	Error string `json:"error"`
}

// teamDTO is the JSON shape for static team metadata.
type teamDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Color    string `json:"color"`
}

func toTeamDTO(info domain.TeamInfo) teamDTO {
	return teamDTO{
		ID:       info.ID.String(),
		Name:     info.Name,
		FullName: info.FullName,
		Color:    info.Color,
	}
}

// rankingEntryDTO flattens a RankingEntry into the wire shape used by the
// ranking service. Role-specific fields are present only for their role.
type rankingEntryDTO struct {
	PlayerID   int     `json:"playerId"`
	PlayerName string  `json:"playerName"`
	Role       string  `json:"role"`
	Points     float64 `json:"playerPoints"`
	Innings    int     `json:"totalInnings"`
	Confidence float64 `json:"confidence"`

	BattingAverage *float64 `json:"battingAverage,omitempty"`
	StrikeRate     *float64 `json:"strikeRate,omitempty"`
	BowlingAverage *float64 `json:"bowlingAverage,omitempty"`
	Economy        *float64 `json:"economy,omitempty"`
}

func toRankingEntryDTO(entry domain.RankingEntry) rankingEntryDTO {
	dto := rankingEntryDTO{
		PlayerID:   entry.PlayerID,
		PlayerName: entry.PlayerName,
		Role:       string(entry.Role),
		Points:     entry.Points,
		Innings:    entry.Innings,
		Confidence: entry.Confidence,
	}

	switch entry.Role {
	case domain.RoleBatsman:
		if entry.Batting != nil {
			dto.BattingAverage = &entry.Batting.Average
			dto.StrikeRate = &entry.Batting.StrikeRate
		}
	case domain.RoleBowler:
		if entry.Bowling != nil {
			dto.BowlingAverage = &entry.Bowling.Average
			dto.Economy = &entry.Bowling.Economy
		}
	case domain.RoleAllrounder:
		if entry.Allround != nil {
			dto.BattingAverage = &entry.Allround.BattingAverage
			dto.StrikeRate = &entry.Allround.StrikeRate
			dto.BowlingAverage = &entry.Allround.BowlingAverage
			dto.Economy = &entry.Allround.Economy
		}
	}

	return dto
}

func toRankingEntryDTOs(entries []domain.RankingEntry) []rankingEntryDTO {
	dtos := make([]rankingEntryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = toRankingEntryDTO(entry)
	}
	return dtos
}

// rankingsResponse is the payload of the cached-rankings endpoint.
type rankingsResponse struct {
	TeamID    string            `json:"teamId"`
	Role      string            `json:"role"`
	Matches   int               `json:"matches"`
	Cached    bool              `json:"cached"`
	FetchedAt time.Time         `json:"fetchedAt"`
	Rankings  []rankingEntryDTO `json:"rankings"`
}

// topPerformersResponse is the payload of the team digest endpoint.
type topPerformersResponse struct {
	TeamID      string            `json:"teamId"`
	Matches     int               `json:"matches"`
	Batsmen     []rankingEntryDTO `json:"batsmen"`
	Bowlers     []rankingEntryDTO `json:"bowlers"`
	Allrounders []rankingEntryDTO `json:"allrounders"`
}

func toTopPerformersResponse(teamID domain.TeamID, matches int, top *aggregate.TopPerformers) topPerformersResponse {
	return topPerformersResponse{
		TeamID:      teamID.String(),
		Matches:     matches,
		Batsmen:     toRankingEntryDTOs(top.Batsmen),
		Bowlers:     toRankingEntryDTOs(top.Bowlers),
		Allrounders: toRankingEntryDTOs(top.Allrounders),
	}
}

// snapshotRefDTO points at a player's standing in one snapshot.
type snapshotRefDTO struct {
	SnapshotID string  `json:"snapshotId"`
	Rating     float64 `json:"rating"`
	Rank       int     `json:"rank"`
	Date       string  `json:"date"`
}

func toSnapshotRefDTO(ref domain.SnapshotRef) snapshotRefDTO {
	return snapshotRefDTO{
		SnapshotID: ref.SnapshotID,
		Rating:     ref.Rating,
		Rank:       ref.Rank,
		Date:       ref.Date,
	}
}

// summaryDTO is the career extremes block of the profile payload.
type summaryDTO struct {
	TotalAppearances int            `json:"totalAppearances"`
	CurrentSnapshot  snapshotRefDTO `json:"currentSnapshot"`
	HighestRating    snapshotRefDTO `json:"highestRating"`
	LowestRating     snapshotRefDTO `json:"lowestRating"`
	HighestRank      snapshotRefDTO `json:"highestRank"`
	LowestRank       snapshotRefDTO `json:"lowestRank"`
}

// profileResponse is the composed player profile payload.
type profileResponse struct {
	Team        teamDTO         `json:"team"`
	Role        string          `json:"role"`
	Current     rankingEntryDTO `json:"current"`
	CurrentRank int             `json:"currentRank"`

	Previous     *rankingEntryDTO `json:"previous,omitempty"`
	PreviousRank int              `json:"previousRank,omitempty"`

	Summary   *summaryDTO                `json:"summary,omitempty"`
	Chart     []domain.TimelineDataPoint `json:"chart"`
	Snapshots []domain.SnapshotMetadata  `json:"snapshots"`

	OtherProfiles []domain.SearchResult `json:"otherProfiles"`
}

func toProfileResponse(p *profile.Player) profileResponse {
	resp := profileResponse{
		Team:          toTeamDTO(p.Team),
		Role:          string(p.Role),
		Current:       toRankingEntryDTO(p.Current),
		CurrentRank:   p.CurrentRank,
		PreviousRank:  p.PreviousRank,
		Chart:         p.Chart,
		Snapshots:     p.Snapshots,
		OtherProfiles: p.OtherProfiles,
	}

	if p.Previous != nil {
		prev := toRankingEntryDTO(*p.Previous)
		resp.Previous = &prev
	}

	if p.Summary != nil {
		resp.Summary = &summaryDTO{
			TotalAppearances: p.Summary.TotalAppearances,
			CurrentSnapshot:  toSnapshotRefDTO(p.Summary.CurrentSnapshot),
			HighestRating:    toSnapshotRefDTO(p.Summary.HighestRating),
			LowestRating:     toSnapshotRefDTO(p.Summary.LowestRating),
			HighestRank:      toSnapshotRefDTO(p.Summary.HighestRank),
			LowestRank:       toSnapshotRefDTO(p.Summary.LowestRank),
		}
	}

	return resp
}

// cellStatusDTO reports one matrix cell's rebuild outcome.
type cellStatusDTO struct {
	TeamID         string `json:"teamId"`
	Role           string `json:"role"`
	Success        bool   `json:"success"`
	TotalSnapshots int    `json:"totalSnapshots"`
	Message        string `json:"message,omitempty"`
}

// rebuildResponse is the payload of the admin rebuild endpoint.
type rebuildResponse struct {
	Cells []cellStatusDTO `json:"cells"`
}
