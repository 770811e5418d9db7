package integrators

import "github.com/san-kum/optcon/internal/dynamo"

// RK4 is the classic fourth order Runge-Kutta scheme. It keeps scratch
// buffers between steps, so a value must not be shared across goroutines.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

// Clone returns an RK4 with its own scratch buffers.
func (r *RK4) Clone() dynamo.Integrator { return NewRK4() }

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	stage := func(k dynamo.State, from dynamo.State, scale, at float64) {
		for i := 0; i < n; i++ {
			r.scratch[i] = x[i] + scale*from[i]
		}
		copy(k, sys.Derive(r.scratch, u, at))
	}

	copy(r.k1, sys.Derive(x, u, t))
	stage(r.k2, r.k1, dt*0.5, t+dt*0.5)
	stage(r.k3, r.k2, dt*0.5, t+dt*0.5)
	stage(r.k4, r.k3, dt, t+dt)

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	return result
}
