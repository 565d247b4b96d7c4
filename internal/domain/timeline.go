package domain

// TimelineDataPoint is one revealed point of a player's historical series,
// derived by joining a snapshot index entry with its fetched detail.
// Created lazily as playback advances; discarded when the session resets.
type TimelineDataPoint struct {
	Date   string  `json:"date"`
	Rating float64 `json:"rating"`
	Rank   int     `json:"rank"`
}

// TimelinePoint is one archived per-player timeline row.
// Corresponds to the timeline_points table in ClickHouse.
type TimelinePoint struct {
	TeamID     TeamID
	Role       Role
	PlayerID   int
	SnapshotID string
	Date       string // snapshot date, YYYY-MM-DD ordering axis
	Rating     float64
	Rank       int
}
