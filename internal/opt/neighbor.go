package opt

import "skyplan/internal/fleet"

// Rand is the subset of *math/rand.Rand the optimizer draws from.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// DefaultDelayJitterMax bounds the random departure push per mutation.
const DefaultDelayJitterMax = 5

// NeighborGenerator perturbs an incumbent plan. Headings are re-aimed by
// DirectHeadings; departures are pushed back by a uniform [1,JitterMax]
// rounds while any plane is still uncommitted.
type NeighborGenerator struct {
	JitterMax int
	rng       Rand
}

func NewNeighborGenerator(jitterMax int, rng Rand) *NeighborGenerator {
	if jitterMax < 1 {
		jitterMax = DefaultDelayJitterMax
	}
	return &NeighborGenerator{JitterMax: jitterMax, rng: rng}
}

// Next returns a new plan derived from incumbent; incumbent is left as is.
func (g *NeighborGenerator) Next(planes []fleet.Plane, incumbent Plan, round int) Plan {
	next := Plan{
		headings:   DirectHeadings(planes, incumbent.headings, round),
		departures: incumbent.departures,
	}
	if hasUncommitted(incumbent.departures, round) {
		next.departures = g.delayDepartures(planes, incumbent.departures)
	}
	return next
}

// hasUncommitted reports whether some planned departure is at or after round.
func hasUncommitted(departures []int, round int) bool {
	for _, d := range departures {
		if round <= d {
			return true
		}
	}
	return false
}

// delayDepartures never returns a round earlier than a plane's own
// earliest departure.
func (g *NeighborGenerator) delayDepartures(planes []fleet.Plane, departures []int) []int {
	out := make([]int, len(departures))
	for i, d := range departures {
		out[i] = max(d+1+g.rng.Intn(g.JitterMax), planes[i].Departure)
	}
	return out
}
