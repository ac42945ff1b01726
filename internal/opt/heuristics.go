package opt

import (
	"skyplan/internal/fleet"
	"skyplan/internal/geom"
)

// DirectHeadings applies the greedy direct-flight heuristic: every plane
// that is airborne, or grounded but allowed to leave at round, is aimed
// straight at its destination from its current position. Other entries are
// copied from current unchanged.
func DirectHeadings(planes []fleet.Plane, current []fleet.Heading, round int) []fleet.Heading {
	out := append([]fleet.Heading(nil), current...)
	for i, p := range planes {
		if p.ReadyToDepart(round) || p.Heading.IsAirborne() {
			out[i] = fleet.HeadingAirborne(geom.Bearing(p.Position, p.Destination))
		}
	}
	return out
}
