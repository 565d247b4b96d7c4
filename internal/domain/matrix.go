package domain

// Cell is one (team, role) combination over which aggregation queries fan out.
type Cell struct {
	Team TeamID
	Role Role
}

// DefaultMatrix returns the full team x role cross-product in stable
// traversal order (teams outer, roles inner). The matrix is passed to the
// aggregation engine explicitly so tests can substitute synthetic matrices.
func DefaultMatrix() []Cell {
	teams := TeamIDs()
	roles := Roles()
	cells := make([]Cell, 0, len(teams)*len(roles))
	for _, t := range teams {
		for _, r := range roles {
			cells = append(cells, Cell{Team: t, Role: r})
		}
	}
	return cells
}
