package domain

// SnapshotRef points at a player's standing within one snapshot.
type SnapshotRef struct {
	SnapshotID string
	Rating     float64
	Rank       int
	Date       string
}

// PlayerHistoricalSummary aggregates a player's full snapshot history for one
// (team, role), as computed by the remote ranking service.
type PlayerHistoricalSummary struct {
	PlayerID         int
	PlayerName       string
	Role             Role
	TeamID           TeamID
	TotalAppearances int
	CurrentSnapshot  SnapshotRef
	HighestRating    SnapshotRef
	LowestRating     SnapshotRef
	HighestRank      SnapshotRef // best (numerically lowest) rank achieved
	LowestRank       SnapshotRef
}
