package domain

// BattingStats holds the role-specific payload for batsman rankings.
type BattingStats struct {
	Average    float64 // batting average over the match window
	StrikeRate float64
}

// BowlingStats holds the role-specific payload for bowler rankings.
type BowlingStats struct {
	Average float64 // bowling average over the match window
	Economy float64
}

// AllroundStats holds the role-specific payload for allrounder rankings.
type AllroundStats struct {
	BattingAverage float64
	StrikeRate     float64
	BowlingAverage float64
	Economy        float64
}

// RankingEntry is one player's standing for a given (team, role, window).
// Exactly one of Batting, Bowling or Allround is non-nil, selected by Role.
// Consumers resolve the payload by switching on Role, never by probing fields.
type RankingEntry struct {
	PlayerID   int
	PlayerName string
	Role       Role
	Points     float64 // smoothed rating points from the remote engine
	Innings    int
	Confidence float64 // [0,1]

	Batting  *BattingStats
	Bowling  *BowlingStats
	Allround *AllroundStats
}
