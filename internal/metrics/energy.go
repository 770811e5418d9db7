package metrics

import (
	"math"

	"github.com/san-kum/optcon/internal/dynamo"
)

// EnergySource is implemented by systems with a closed form energy.
type EnergySource interface {
	Energy(x dynamo.State) float64
}

// EnergyDrift tracks the largest relative deviation of the energy from
// its first observed value.
type EnergyDrift struct {
	name          string
	source        EnergySource
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(source EnergySource) *EnergyDrift {
	return &EnergyDrift{
		name:   "energy_drift",
		source: source,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(x dynamo.State, u dynamo.Control, t float64) {
	energy := e.source.Energy(x)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// ForSystem returns the metrics that apply to sys. Energy drift is only
// included when sys exposes an energy.
func ForSystem(sys dynamo.System, dt float64, reference dynamo.State) []dynamo.Metric {
	ms := []dynamo.Metric{
		NewControlEffort(dt),
		NewExcursion(reference),
		NewDominantFrequency(dt, 0),
	}
	if src, ok := sys.(EnergySource); ok {
		ms = append(ms, NewEnergyDrift(src))
	}
	return ms
}
