package metrics

import (
	"math"

	"github.com/san-kum/optcon/internal/dynamo"
)

// Excursion is the largest Euclidean distance of the state from a
// reference seen during the rollout. A nil reference means the origin.
type Excursion struct {
	name      string
	reference dynamo.State
	max       float64
}

func NewExcursion(reference dynamo.State) *Excursion {
	return &Excursion{
		name:      "excursion",
		reference: reference.Clone(),
	}
}

func (e *Excursion) Name() string { return e.name }

func (e *Excursion) Observe(x dynamo.State, u dynamo.Control, t float64) {
	d := x.Norm()
	if len(e.reference) == len(x) {
		d = x.Sub(e.reference).Norm()
	}
	e.max = math.Max(e.max, d)
}

func (e *Excursion) Value() float64 { return e.max }

func (e *Excursion) Reset() { e.max = 0 }
