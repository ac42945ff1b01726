package opt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"skyplan/internal/fleet"
	"skyplan/internal/log"
)

// Config is the tunable part of a Player.
type Config struct {
	Weights            Weights `yaml:"weights" json:"weights"`
	InitialTemperature float64 `yaml:"initialTemperature" json:"initialTemperature"`
	CoolingRate        float64 `yaml:"coolingRate" json:"coolingRate"`
	TemperatureFloor   float64 `yaml:"temperatureFloor" json:"temperatureFloor"`
	DelayJitterMax     int     `yaml:"delayJitterMax" json:"delayJitterMax"`
	// ResetEachRound restores the initial temperature at the start of every
	// round instead of only at the start of a game.
	ResetEachRound bool `yaml:"resetEachRound" json:"resetEachRound"`
}

func DefaultConfig() Config {
	return Config{
		Weights:            DefaultWeights(),
		InitialTemperature: DefaultInitialTemperature,
		CoolingRate:        DefaultCoolingRate,
		TemperatureFloor:   DefaultTemperatureFloor,
		DelayJitterMax:     DefaultDelayJitterMax,
	}
}

func (c Config) Validate() error {
	if c.Weights.Time < 0 || c.Weights.Power < 0 || c.Weights.Delay < 0 {
		return fmt.Errorf("weights must be >= 0")
	}
	if c.InitialTemperature <= 0 {
		return fmt.Errorf("initialTemperature must be > 0")
	}
	if c.CoolingRate <= 0 || c.CoolingRate >= 1 {
		return fmt.Errorf("coolingRate must be in (0,1)")
	}
	if c.TemperatureFloor <= 0 {
		return fmt.Errorf("temperatureFloor must be > 0")
	}
	if c.DelayJitterMax < 1 {
		return fmt.Errorf("delayJitterMax must be >= 1")
	}
	return nil
}

// RoundReport summarises one UpdatePlanes call.
type RoundReport struct {
	Round             int           `json:"round"`
	Iterations        int           `json:"iterations"`
	Improvements      int           `json:"improvements"`
	AcceptedEqual     int           `json:"acceptedEqual"`
	AcceptedWorse     int           `json:"acceptedWorse"`
	Rejected          int           `json:"rejected"`
	InitialCost       Cost          `json:"initialCost"`
	FinalCost         Cost          `json:"finalCost"`
	TemperatureBefore float64       `json:"temperatureBefore"`
	TemperatureAfter  float64       `json:"temperatureAfter"`
	Totals            Totals        `json:"totals"`
	Interrupted       bool          `json:"interrupted"`
	Duration          time.Duration `json:"durationNs"`
}

// Exhausted reports whether the temperature was already at the floor, so
// no search ran and the input headings were returned.
func (r RoundReport) Exhausted() bool { return r.Iterations == 0 && !r.Interrupted }

// ctxCheckEvery is how many iterations pass between context checks.
const ctxCheckEvery = 256

// Player runs one simulated annealing search per round for a single game.
// It is not safe for concurrent use.
type Player struct {
	cfg      Config
	annealer *Annealer
	eval     *Evaluator
	gen      *NeighborGenerator
	rng      Rand
	log      *log.Logger
}

func NewPlayer(cfg Config, rng Rand, lg *log.Logger) *Player {
	return &Player{
		cfg:      cfg,
		annealer: NewAnnealer(cfg.InitialTemperature, cfg.CoolingRate, cfg.TemperatureFloor),
		eval:     NewEvaluator(cfg.Weights, lg),
		gen:      NewNeighborGenerator(cfg.DelayJitterMax, rng),
		rng:      rng,
		log:      lg,
	}
}

func (p *Player) Name() string { return "Simulated Annealing Player" }

func (p *Player) Config() Config { return p.cfg }

func (p *Player) Temperature() float64 { return p.annealer.Temperature() }

func (p *Player) Totals() Totals { return p.eval.Totals() }

// StartNewGame resets the temperature and the running cost totals.
func (p *Player) StartNewGame(planes []fleet.Plane) {
	p.log.Info("Starting new game!", slog.Int("planes", len(planes)))
	p.annealer.Reset()
	p.eval.Reset()
}

// UpdatePlanes searches from the previous round's headings and returns the
// best headings found, in wire encoding and in plane order. The temperature
// carries over from the previous round unless ResetEachRound is set; once
// it has reached the floor the input headings come back unchanged.
//
// Cancelling ctx stops the search early and returns the incumbent.
func (p *Player) UpdatePlanes(ctx context.Context, planes []fleet.Plane, round int, headings []float64) ([]float64, RoundReport, error) {
	if err := fleet.Validate(planes, round, headings); err != nil {
		return nil, RoundReport{}, err
	}
	start := time.Now()
	if p.cfg.ResetEachRound {
		p.annealer.Reset()
	}

	incumbent := NewPlan(headingsFromWire(headings), earliestDepartures(planes))
	best := p.eval.Evaluate(planes, incumbent, round)
	rep := RoundReport{Round: round, InitialCost: best, TemperatureBefore: p.annealer.Temperature()}

	for p.annealer.Hot() {
		if rep.Iterations%ctxCheckEvery == 0 && ctx.Err() != nil {
			rep.Interrupted = true
			break
		}
		cand := p.gen.Next(planes, incumbent, round)
		c := p.eval.Evaluate(planes, cand, round)
		if p.annealer.Accept(best.Total, c.Total) > p.rng.Float64() {
			switch {
			case c.Total < best.Total:
				rep.Improvements++
			case c.Total == best.Total:
				rep.AcceptedEqual++
			default:
				rep.AcceptedWorse++
			}
			incumbent, best = cand, c
		} else {
			rep.Rejected++
		}
		p.annealer.Step()
		rep.Iterations++
	}

	rep.FinalCost = best
	rep.TemperatureAfter = p.annealer.Temperature()
	rep.Totals = p.eval.Totals()
	rep.Duration = time.Since(start)
	p.log.Debug("round optimized",
		slog.Int("round", round),
		slog.Int("iterations", rep.Iterations),
		slog.Float64("cost", best.Total),
		slog.Float64("temperature", rep.TemperatureAfter))
	return incumbent.WireHeadings(), rep, nil
}
