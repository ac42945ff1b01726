package opt

import "skyplan/internal/fleet"

// Plan is a full-fleet candidate: one heading and one planned departure
// round per plane, parallel to the plane list. A Plan is never modified
// after construction; mutations build a new one.
type Plan struct {
	headings   []fleet.Heading
	departures []int
}

// NewPlan copies its inputs.
func NewPlan(headings []fleet.Heading, departures []int) Plan {
	return Plan{
		headings:   append([]fleet.Heading(nil), headings...),
		departures: append([]int(nil), departures...),
	}
}

func (p Plan) Len() int                    { return len(p.headings) }
func (p Plan) Heading(i int) fleet.Heading { return p.headings[i] }
func (p Plan) Departure(i int) int         { return p.departures[i] }
func (p Plan) Headings() []fleet.Heading   { return append([]fleet.Heading(nil), p.headings...) }
func (p Plan) Departures() []int           { return append([]int(nil), p.departures...) }

// WireHeadings encodes the headings with the simulation's sentinels.
func (p Plan) WireHeadings() []float64 {
	out := make([]float64, len(p.headings))
	for i, h := range p.headings {
		out[i] = h.Wire()
	}
	return out
}

// earliestDepartures seeds the departure half of the incumbent plan.
func earliestDepartures(planes []fleet.Plane) []int {
	out := make([]int, len(planes))
	for i, pl := range planes {
		out[i] = pl.Departure
	}
	return out
}

func headingsFromWire(ws []float64) []fleet.Heading {
	out := make([]fleet.Heading, len(ws))
	for i, w := range ws {
		out[i] = fleet.HeadingFromWire(w)
	}
	return out
}
