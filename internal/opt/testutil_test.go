package opt

import (
	"skyplan/internal/fleet"
	"skyplan/internal/geom"
)

// scriptedRand replays fixed draws in a loop.
type scriptedRand struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.5
	}
	v := r.floats[r.fi%len(r.floats)]
	r.fi++
	return v
}

func (r *scriptedRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[r.ii%len(r.ints)] % n
	r.ii++
	return v
}

func grounded(id int, pos, dst geom.Vec2, departure int) fleet.Plane {
	return fleet.Plane{ID: id, Position: pos, Destination: dst, Heading: fleet.HeadingNotDeparted(), Departure: departure}
}

func airborne(id int, pos, dst geom.Vec2, deg float64) fleet.Plane {
	return fleet.Plane{ID: id, Position: pos, Destination: dst, Heading: fleet.HeadingAirborne(deg)}
}

func arrived(id int, pos geom.Vec2) fleet.Plane {
	return fleet.Plane{ID: id, Position: pos, Destination: pos, Heading: fleet.HeadingArrived()}
}

func wireOf(planes []fleet.Plane) []float64 {
	out := make([]float64, len(planes))
	for i, p := range planes {
		out[i] = p.Heading.Wire()
	}
	return out
}
