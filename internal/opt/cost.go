package opt

import (
	"log/slog"

	"skyplan/internal/fleet"
	"skyplan/internal/log"
)

// Weights fold the cost components into one scalar. All must be >= 0.
type Weights struct {
	Time  float64 `yaml:"time" json:"time"`
	Power float64 `yaml:"power" json:"power"`
	Delay float64 `yaml:"delay" json:"delay"`
}

func DefaultWeights() Weights {
	return Weights{Time: 1, Power: 1, Delay: 1}
}

// Cost is the score of one plan at one round. Elapsed, Power and Delay are
// the units charged by this evaluation alone; Total is taken over the game's
// running power and delay totals, so it never drops within a round. Lower
// is better.
type Cost struct {
	Elapsed int     `json:"elapsed"`
	Power   int     `json:"power"`
	Delay   int     `json:"delay"`
	Total   float64 `json:"total"`
}

// Totals are the running counters of a game. Time holds the latest round
// evaluated; Power and Delay are summed over every evaluation.
type Totals struct {
	Time  int `json:"time"`
	Power int `json:"power"`
	Delay int `json:"delay"`
}

// Evaluator scores plans and keeps the game's running totals. It is owned
// by a single Player.
type Evaluator struct {
	Weights Weights
	totals  Totals
	log     *log.Logger
}

func NewEvaluator(w Weights, lg *log.Logger) *Evaluator {
	return &Evaluator{Weights: w, log: lg}
}

// Evaluate scores p against the fleet at round. Arrived planes are free,
// airborne planes cost one power unit, and grounded planes whose planned
// departure has passed cost one delay unit once round exceeds 1. The units
// are added to the running totals before the scalar is taken.
func (e *Evaluator) Evaluate(planes []fleet.Plane, p Plan, round int) Cost {
	c := Cost{Elapsed: round}
	for i, pl := range planes {
		switch {
		case pl.Heading.IsArrived():
		case pl.Heading.IsAirborne():
			c.Power++
		case round > p.Departure(i) && c.Elapsed > 1:
			c.Delay++
		}
	}
	e.totals.Time = max(e.totals.Time, c.Elapsed)
	e.totals.Power += c.Power
	e.totals.Delay += c.Delay
	c.Total = e.Weights.Time*float64(c.Elapsed) + e.Weights.Power*float64(e.totals.Power) + e.Weights.Delay*float64(e.totals.Delay)
	if e.log.Enabled(slog.LevelDebug) {
		e.log.Debug("cost evaluated",
			slog.Int("time", e.totals.Time),
			slog.Int("power", e.totals.Power),
			slog.Int("delay", e.totals.Delay))
	}
	return c
}

func (e *Evaluator) Totals() Totals { return e.totals }

func (e *Evaluator) Reset() { e.totals = Totals{} }
