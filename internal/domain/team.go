package domain

// TeamID identifies a franchise team tracked by the dashboard.
type TeamID string

// Team ID constants for the reference deployment.
const (
	TeamKnightRiders TeamID = "kr"
	TeamCityKnights  TeamID = "ck"
	TeamMavericks    TeamID = "am"
	TeamGladiators   TeamID = "ag"
)

// String returns the string representation of TeamID.
func (t TeamID) String() string {
	return string(t)
}

// TeamInfo holds static display metadata for a team.
type TeamInfo struct {
	ID       TeamID
	Name     string
	FullName string
	Color    string // hex color used by the view layer
}

// Teams maps team IDs to their static metadata.
var Teams = map[TeamID]TeamInfo{
	TeamKnightRiders: {ID: TeamKnightRiders, Name: "Knight Riders", FullName: "Knight Riders", Color: "#8b5cf6"},
	TeamCityKnights:  {ID: TeamCityKnights, Name: "City Knights", FullName: "City Knights", Color: "#f59e0b"},
	TeamMavericks:    {ID: TeamMavericks, Name: "Mavericks", FullName: "Aquantis Mavericks", Color: "#3b82f6"},
	TeamGladiators:   {ID: TeamGladiators, Name: "Gladiators", FullName: "AWC Gladiators", Color: "#ef4444"},
}

// TeamIDs returns all team IDs in stable display order.
func TeamIDs() []TeamID {
	return []TeamID{TeamKnightRiders, TeamCityKnights, TeamMavericks, TeamGladiators}
}

// IsValid checks if the team ID is a known team.
func (t TeamID) IsValid() bool {
	_, ok := Teams[t]
	return ok
}
