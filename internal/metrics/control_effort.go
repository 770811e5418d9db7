package metrics

import (
	"math"

	"github.com/san-kum/optcon/internal/dynamo"
)

// ControlEffort integrates Σ|u_j| over the rollout, assuming every
// observed control is held for one step of length dt.
type ControlEffort struct {
	name string
	dt   float64
	sum  float64
}

func NewControlEffort(dt float64) *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
		dt:   dt,
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	for _, val := range u {
		c.sum += math.Abs(val) * c.dt
	}
}

func (c *ControlEffort) Value() float64 {
	return c.sum
}

func (c *ControlEffort) Reset() {
	c.sum = 0
}
