// Package control provides controllers and linearization tools for
// dynamical systems.
//
//   - [Linearize]: A = ∂f/∂x and B = ∂f/∂u by finite differences
//   - [LQR]: linear state feedback, designed with [DesignLQR]
//   - [Hold]: replays a spline of node controls over its shooting grid
//
// # Usage
//
//	lqr, err := control.DesignLQR(sys, xRef, uRef, 0.01, q, r, true)
//	sim := sim.New(sys, integ, lqr)
package control
