package domain

// SearchResult is one player's appearance in a single matrix cell.
// The same human player may appear under multiple (team, role) combinations;
// uniqueness key is (PlayerID, TeamID, Role) and distinct cells are never
// collapsed into one result.
type SearchResult struct {
	PlayerID      int     `json:"playerId"`
	PlayerName    string  `json:"playerName"`
	TeamID        TeamID  `json:"teamId"`
	Role          Role    `json:"role"`
	CurrentRating float64 `json:"currentRating"`
	CurrentRank   int     `json:"currentRank"` // 1-based position within the cell's ranking
}
