package domain

// Role represents a player's role within a team's ranking tables.
type Role string

const (
	RoleBatsman    Role = "batsman"
	RoleBowler     Role = "bowler"
	RoleAllrounder Role = "allrounder"
)

// String returns the string representation of Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is a valid value.
func (r Role) IsValid() bool {
	return r == RoleBatsman || r == RoleBowler || r == RoleAllrounder
}

// Label returns the plural display label for the role.
func (r Role) Label() string {
	switch r {
	case RoleBatsman:
		return "Batsmen"
	case RoleBowler:
		return "Bowlers"
	case RoleAllrounder:
		return "Allrounders"
	default:
		return string(r)
	}
}

// Roles returns all roles in stable display order.
func Roles() []Role {
	return []Role{RoleBatsman, RoleBowler, RoleAllrounder}
}
