package model

import (
	"time"

	"skyplan/internal/fleet"
	"skyplan/internal/geom"
	"skyplan/internal/opt"
)

// PlaneIn is the JSON form of one plane. Heading uses the simulation
// encoding: -1 not departed, -2 arrived, anything else an angle.
type PlaneIn struct {
	ID          int       `json:"id"`
	Position    geom.Vec2 `json:"position"`
	Destination geom.Vec2 `json:"destination"`
	Heading     float64   `json:"heading"`
	Departure   int       `json:"departure"`
}

func (p PlaneIn) Plane() fleet.Plane {
	return fleet.Plane{
		ID:          p.ID,
		Position:    p.Position,
		Destination: p.Destination,
		Heading:     fleet.HeadingFromWire(p.Heading),
		Departure:   p.Departure,
	}
}

func Planes(in []PlaneIn) []fleet.Plane {
	out := make([]fleet.Plane, len(in))
	for i, p := range in {
		out[i] = p.Plane()
	}
	return out
}

type StartSessionRequest struct {
	Planes []PlaneIn `json:"planes"`
}

type RoundRequest struct {
	Round    int       `json:"round"`
	Planes   []PlaneIn `json:"planes"`
	Headings []float64 `json:"headings"`
}

type RoundResponse struct {
	SessionID string          `json:"sessionId"`
	Round     int             `json:"round"`
	Headings  []float64       `json:"headings"`
	Report    opt.RoundReport `json:"report"`
}

const (
	SessionActive = "active"
	SessionEnded  = "ended"
)

type Session struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Planes      int        `json:"planes"`
	Config      opt.Config `json:"config"`
	Rounds      int        `json:"rounds"`
	LastRound   int        `json:"lastRound"`
	Temperature float64    `json:"temperature"`
	Totals      opt.Totals `json:"totals"`
	CreatedAt   time.Time  `json:"createdAt"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
}

type RoundRecord struct {
	SessionID string          `json:"sessionId"`
	Round     int             `json:"round"`
	Headings  []float64       `json:"headings"`
	Report    opt.RoundReport `json:"report"`
	CreatedAt time.Time       `json:"createdAt"`
}
