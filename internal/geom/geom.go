// Package geom holds the planar geometry shared by the fleet model and the
// optimizer. Coordinates are screen oriented: x grows to the east and y grows
// to the south.
package geom

import "math"

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{x, y}
}

func (v1 Vec2) DistanceTo(v2 Vec2) float64 {
	dx := v1.X - v2.X
	dy := v1.Y - v2.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// FallbackBearing is returned by Bearing when both points coincide.
const FallbackBearing = 0.0

// Bearing returns the heading in degrees, [0,360), that points from "from"
// toward "to". 0 is north (negative y) and angles grow clockwise.
func Bearing(from, to Vec2) float64 {
	dx, dy := to.X-from.X, to.Y-from.Y
	if dx == 0 && dy == 0 {
		return FallbackBearing
	}
	return NormalizeHeading(math.Atan2(dy, dx)*180/math.Pi + 90)
}

// NormalizeHeading wraps h into [0,360).
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h -= 360
	}
	return h
}
