package opt

import "math"

const (
	DefaultInitialTemperature = 1000.0
	DefaultCoolingRate        = 0.999
	DefaultTemperatureFloor   = 1.0
)

// Annealer owns the temperature of one Player. The temperature only moves
// through Reset and Step.
type Annealer struct {
	Initial float64
	Rate    float64
	Floor   float64

	temperature float64
	steps       int
}

// NewAnnealer falls back to the defaults for out of range arguments.
func NewAnnealer(initial, rate, floor float64) *Annealer {
	if initial <= 0 {
		initial = DefaultInitialTemperature
	}
	if rate <= 0 || rate >= 1 {
		rate = DefaultCoolingRate
	}
	if floor <= 0 {
		floor = DefaultTemperatureFloor
	}
	a := &Annealer{Initial: initial, Rate: rate, Floor: floor}
	a.Reset()
	return a
}

func (a *Annealer) Reset() {
	a.temperature = a.Initial
	a.steps = 0
}

func (a *Annealer) Temperature() float64 { return a.temperature }

// Steps counts cooling steps since the last Reset.
func (a *Annealer) Steps() int { return a.steps }

// Hot reports whether the search loop may run another iteration.
func (a *Annealer) Hot() bool { return a.temperature > a.Floor }

// Step cools the temperature once.
func (a *Annealer) Step() {
	a.temperature *= a.Rate
	a.steps++
}

// Accept is AcceptanceProbability at the current temperature.
func (a *Annealer) Accept(currentCost, candidateCost float64) float64 {
	return AcceptanceProbability(currentCost, candidateCost, a.temperature)
}

// AcceptanceProbability is 1 for a strict improvement and
// exp((current-candidate)/temperature) otherwise.
func AcceptanceProbability(currentCost, candidateCost, temperature float64) float64 {
	if candidateCost < currentCost {
		return 1.0
	}
	return math.Exp((currentCost - candidateCost) / temperature)
}

// IterationsToFloor is the number of Steps taken from initial until the
// temperature is no longer above floor.
func IterationsToFloor(initial, rate, floor float64) int {
	n := 0
	for t := initial; t > floor; t *= rate {
		n++
	}
	return n
}
