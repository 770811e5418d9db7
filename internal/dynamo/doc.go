// Package dynamo provides the core vector and system primitives shared by
// the numeric derivative providers, the shooting splines and the rollout
// machinery.
//
//   - [State]: vector representing a system state or a spline node value
//   - [Control]: vector of control inputs
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: fixed-step numerical integrator interface
//   - [Controller]: feedback controller interface
//
// # Example
//
//	sys := physics.NewPendulum()
//	integ := integrators.NewRK4()
//	x1 := integ.Step(sys, dynamo.State{0.5, 0}, dynamo.Control{0}, 0, 0.01)
//
// # Thread Safety
//
// The types in this package carry no locks. Values that hold scratch
// buffers (integrators, providers with caches) must not be shared between
// goroutines; clone them per worker instead.
package dynamo
