package physics

import (
	"math"

	"github.com/san-kum/optcon/internal/dynamo"
)

// CartPole state is [x, ẋ, θ, θ̇] with θ = 0 upright; control is the force
// on the cart. No analytic linearization is provided, callers use the
// numeric one.
type CartPole struct {
	CartMass   float64
	PoleMass   float64
	PoleLength float64
	Gravity    float64
}

func NewCartPole() *CartPole {
	return &CartPole{
		CartMass:   1.0,
		PoleMass:   0.1,
		PoleLength: 1.0,
		Gravity:    DefaultGravity,
	}
}

func (c *CartPole) StateDim() int   { return 4 }
func (c *CartPole) ControlDim() int { return 1 }

func (c *CartPole) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	vel, theta, omega := x[1], x[2], x[3]

	force := 0.0
	if len(u) > 0 {
		force = u[0]
	}

	total := c.CartMass + c.PoleMass
	l := c.PoleLength
	sint, cost := math.Sin(theta), math.Cos(theta)

	temp := (force + c.PoleMass*l*omega*omega*sint) / total
	thetaAcc := (c.Gravity*sint - cost*temp) / (l * (4.0/3.0 - c.PoleMass*cost*cost/total))
	xAcc := temp - c.PoleMass*l*thetaAcc*cost/total

	return dynamo.State{vel, xAcc, omega, thetaAcc}
}
