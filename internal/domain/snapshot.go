package domain

// HistoricalSnapshot describes one immutable, dated ranking computation in a
// (team, role) snapshot index.
type HistoricalSnapshot struct {
	SnapshotID     string
	FirstMatchID   string
	FirstMatchDate string
	MatchIDs       []string
}

// HistoricalRankings is the snapshot index for one (team, role): an ordered,
// append-only, date-ascending sequence. The dashboard never reorders it.
type HistoricalRankings struct {
	Role           Role
	TeamID         TeamID
	TotalSnapshots int
	Snapshots      []HistoricalSnapshot
}

// SnapshotMetadata is the minimal per-snapshot handle used by playback:
// a stable id plus a display date.
type SnapshotMetadata struct {
	SnapshotID string `json:"snapshotId"`
	Date       string `json:"date"`
}

// SnapshotDetails holds the full ranking set of one historical period.
type SnapshotDetails struct {
	SnapshotID     string
	Role           Role
	TeamID         TeamID
	FirstMatchID   string
	FirstMatchDate string
	MatchIDs       []string
	Rankings       []RankingEntry
}

// RebuildResult reports a remote snapshot-index rebuild for one (team, role).
type RebuildResult struct {
	Success        bool
	TotalSnapshots int
	Message        string
}
