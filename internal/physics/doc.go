// Package physics provides controlled dynamical systems used as test
// problems for the derivative providers and the shooting code.
//
// Each model implements [dynamo.System]:
//
//   - [Pendulum]: damped, torque driven pendulum
//   - [CartPole]: pole balanced on a force driven cart
//   - [SpringMass]: spring-mass-damper chain, forced at the first mass
//
// Models that implement [Linearizer] provide their analytic Jacobians
// A = ∂f/∂x and B = ∂f/∂u, which serve as ground truth for the numeric
// linearization in package control.
package physics

import (
	"github.com/san-kum/optcon/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Linearizer is implemented by systems with analytic Jacobians.
type Linearizer interface {
	Linearize(x dynamo.State, u dynamo.Control, t float64) (a, b *mat.Dense)
}
