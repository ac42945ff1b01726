// Package fleet describes the read-only plane snapshot handed to the
// optimizer every round, and the numeric wire encoding of headings used by
// the simulation.
package fleet

import (
	"errors"
	"fmt"

	"skyplan/internal/geom"
)

// Wire sentinels used by the simulation in place of an angle.
const (
	NotDepartedSentinel = -1.0
	ArrivedSentinel     = -2.0
)

type HeadingState int

const (
	NotDeparted HeadingState = iota
	Airborne
	Arrived
)

var HeadingStateStringMap = map[HeadingState]string{
	NotDeparted: "NOT_DEPARTED",
	Airborne:    "AIRBORNE",
	Arrived:     "ARRIVED",
}

func (s HeadingState) String() string { return HeadingStateStringMap[s] }

// Heading is either a flight angle in degrees or one of the two ground
// states. The zero value is NotDeparted.
type Heading struct {
	State HeadingState
	Deg   float64
}

func HeadingNotDeparted() Heading { return Heading{State: NotDeparted} }
func HeadingArrived() Heading     { return Heading{State: Arrived} }
func HeadingAirborne(deg float64) Heading {
	return Heading{State: Airborne, Deg: deg}
}

// HeadingFromWire decodes a simulation heading value.
func HeadingFromWire(v float64) Heading {
	switch v {
	case NotDepartedSentinel:
		return HeadingNotDeparted()
	case ArrivedSentinel:
		return HeadingArrived()
	}
	return HeadingAirborne(v)
}

// Wire encodes h the way the simulation expects it.
func (h Heading) Wire() float64 {
	switch h.State {
	case NotDeparted:
		return NotDepartedSentinel
	case Arrived:
		return ArrivedSentinel
	}
	return h.Deg
}

func (h Heading) IsAirborne() bool    { return h.State == Airborne }
func (h Heading) IsArrived() bool     { return h.State == Arrived }
func (h Heading) IsNotDeparted() bool { return h.State == NotDeparted }

func (h Heading) String() string {
	if h.State == Airborne {
		return fmt.Sprintf("%.1f", h.Deg)
	}
	return h.State.String()
}

// Plane is one aircraft as seen by the optimizer. Departure is the earliest
// round at which the plane may take off.
type Plane struct {
	ID          int
	Position    geom.Vec2
	Destination geom.Vec2
	Heading     Heading
	Departure   int
}

// ReadyToDepart reports whether p is still on the ground but allowed to
// leave at round.
func (p Plane) ReadyToDepart(round int) bool {
	return p.Heading.IsNotDeparted() && p.Departure <= round
}

var (
	ErrEmptyFleet        = errors.New("fleet is empty")
	ErrHeadingCount      = errors.New("heading count does not match fleet size")
	ErrNegativeDeparture = errors.New("departure round is negative")
	ErrNonFinitePosition = errors.New("position is not finite")
	ErrNegativeRound     = errors.New("round is negative")
)

// Validate checks the shape of one round's input. It never truncates or pads.
func Validate(planes []Plane, round int, headings []float64) error {
	if len(planes) == 0 {
		return ErrEmptyFleet
	}
	if round < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeRound, round)
	}
	if len(headings) != len(planes) {
		return fmt.Errorf("%w: %d headings for %d planes", ErrHeadingCount, len(headings), len(planes))
	}
	for i, p := range planes {
		if p.Departure < 0 {
			return fmt.Errorf("plane %d: %w", i, ErrNegativeDeparture)
		}
		if !p.Position.IsFinite() || !p.Destination.IsFinite() {
			return fmt.Errorf("plane %d: %w", i, ErrNonFinitePosition)
		}
	}
	return nil
}
