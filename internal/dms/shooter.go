// Package dms evaluates the shooting maps of a direct multiple shooting
// transcription: each shot is integrated from its node state with the
// control held by a spline, and the finite difference sensitivities of
// the shot end state are assembled per shot.
package dms

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/optcon/internal/derivatives"
	"github.com/san-kum/optcon/internal/dynamo"
	"github.com/san-kum/optcon/internal/logger"
	"github.com/san-kum/optcon/internal/spline"
	"github.com/san-kum/optcon/internal/timegrid"
	"gonum.org/v1/gonum/mat"
)

// DefaultSubsteps is the number of integrator steps per shot when none is
// given.
const DefaultSubsteps = 20

// Cloner is implemented by integrators that keep per-call scratch state.
// Sensitivities hands every worker its own clone; integrators without it
// are treated as stateless and shared.
type Cloner interface {
	Clone() dynamo.Integrator
}

type Shooter struct {
	System     dynamo.System
	Integrator dynamo.Integrator
	Spline     spline.Spliner
	Substeps   int
	Logger     logger.Logger
}

func NewShooter(sys dynamo.System, integ dynamo.Integrator, s spline.Spliner, substeps int) (*Shooter, error) {
	if s.Dim() != sys.ControlDim() {
		return nil, dynamo.DimensionError("spline", s.Dim(), sys.ControlDim())
	}
	if substeps <= 0 {
		substeps = DefaultSubsteps
	}
	return &Shooter{
		System:     sys,
		Integrator: integ,
		Spline:     s,
		Substeps:   substeps,
		Logger:     logger.Discard(),
	}, nil
}

func (s *Shooter) Grid() *timegrid.TimeGrid { return s.Spline.Grid() }

// Integrate returns Φ_shot(x0), the state at the end of the shot.
func (s *Shooter) Integrate(shot int, x0 dynamo.State) (dynamo.State, error) {
	return s.integrate(s.Integrator, shot, x0, nil)
}

// integrate adds offset to the spline control on every substep; a nil
// offset leaves the control untouched.
func (s *Shooter) integrate(integ dynamo.Integrator, shot int, x0 dynamo.State, offset []float64) (dynamo.State, error) {
	if len(x0) != s.System.StateDim() {
		return nil, dynamo.DimensionError("shot state", len(x0), s.System.StateDim())
	}
	grid := s.Grid()
	t0, err := grid.ShotStart(shot)
	if err != nil {
		return nil, err
	}
	h, _ := grid.ShotDuration(shot)
	dt := h / float64(s.Substeps)

	x := x0.Clone()
	for k := 0; k < s.Substeps; k++ {
		t := t0 + float64(k)*dt
		u, err := s.Spline.EvalSpline(t, shot)
		if err != nil {
			return nil, err
		}
		for j := range offset {
			u[j] += offset[j]
		}
		x = integ.Step(s.System, x, dynamo.Control(u), t, dt)
		if !x.IsValid() {
			return nil, &dynamo.ShotError{Shot: shot, Time: t + dt, Wrapped: dynamo.ErrInvalidState}
		}
	}
	return x, nil
}

func (s *Shooter) checkNodes(states []dynamo.State) error {
	if want := s.Grid().NumShots() + 1; len(states) != want {
		return dynamo.DimensionError("node states", len(states), want)
	}
	return nil
}

// Shoot chains the shots from x0 and returns the N+1 node states of a
// consistent trajectory.
func (s *Shooter) Shoot(x0 dynamo.State) ([]dynamo.State, error) {
	n := s.Grid().NumShots()
	states := make([]dynamo.State, 0, n+1)
	states = append(states, x0.Clone())
	for i := 0; i < n; i++ {
		next, err := s.Integrate(i, states[i])
		if err != nil {
			return nil, err
		}
		states = append(states, next)
	}
	return states, nil
}

// Defects returns d_i = s_{i+1} - Φ_i(s_i) for every shot. states holds
// the N+1 node states.
func (s *Shooter) Defects(states []dynamo.State) ([]dynamo.State, error) {
	if err := s.checkNodes(states); err != nil {
		return nil, err
	}
	n := s.Grid().NumShots()
	defects := make([]dynamo.State, n)
	for i := 0; i < n; i++ {
		end, err := s.Integrate(i, states[i])
		if err != nil {
			return nil, err
		}
		if len(states[i+1]) != len(end) {
			return nil, dynamo.DimensionError(fmt.Sprintf("node state %d", i+1), len(states[i+1]), len(end))
		}
		defects[i] = states[i+1].Sub(end)
	}
	return defects, nil
}

// ShotSensitivity holds the derivatives of Φ_i for one shot.
type ShotSensitivity struct {
	Shot int
	// State is ∂Φ_i/∂s_i.
	State *mat.Dense
	// Control is ∂Φ_i/∂q_i.
	Control *mat.Dense
	// NextControl is ∂Φ_i/∂q_{i+1}.
	NextControl *mat.Dense
}

// Sensitivities differentiates every shot map at its node state. The
// control derivative is taken with respect to a constant offset on the
// spline output over the shot and chained through the spline node
// derivatives. Shots are spread over workers that each own an integrator.
func (s *Shooter) Sensitivities(ctx context.Context, states []dynamo.State, doubleSided bool) ([]ShotSensitivity, error) {
	if err := s.checkNodes(states); err != nil {
		return nil, err
	}
	n := s.Grid().NumShots()
	nx, nu := s.System.StateDim(), s.System.ControlDim()

	out := make([]ShotSensitivity, n)
	errs := make([]error, dynamo.Workers(n, 1))

	dynamo.ParallelFor(n, 1, func(worker, start, end int) {
		integ := s.Integrator
		if c, ok := integ.(Cloner); ok {
			integ = c.Clone()
		}

		shot := start
		phi := func(z []float64) ([]float64, error) {
			return s.integrate(integ, shot, dynamo.State(z[:nx]), z[nx:])
		}
		nd := derivatives.NewNumDiff(phi, nx+nu, nx, doubleSided)

		for ; shot < end; shot++ {
			if err := ctx.Err(); err != nil {
				errs[worker] = err
				return
			}
			sens, err := s.shotSensitivity(nd, shot, states[shot], nx, nu)
			if err != nil {
				errs[worker] = err
				return
			}
			out[shot] = sens
		}
	})

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	s.Logger.Debug("shot sensitivities", "shots", n, "double_sided", doubleSided)
	return out, nil
}

func (s *Shooter) shotSensitivity(nd *derivatives.NumDiff, shot int, node dynamo.State, nx, nu int) (ShotSensitivity, error) {
	if len(node) != nx {
		return ShotSensitivity{}, dynamo.DimensionError(fmt.Sprintf("node state %d", shot), len(node), nx)
	}
	z := make([]float64, nx+nu)
	copy(z, node)

	jac, err := nd.Jacobian(z)
	if err != nil {
		return ShotSensitivity{}, err
	}

	sens := ShotSensitivity{
		Shot:  shot,
		State: mat.DenseCopyOf(jac.Slice(0, nx, 0, nx)),
	}
	if nu == 0 {
		return sens, nil
	}

	t0, _ := s.Grid().ShotStart(shot)
	du := jac.Slice(0, nx, nx, nx+nu)
	sens.Control = mat.NewDense(nx, nu, nil)
	sens.Control.Mul(du, s.Spline.SplineDerivativeQi(t0, shot))
	sens.NextControl = mat.NewDense(nx, nu, nil)
	sens.NextControl.Mul(du, s.Spline.SplineDerivativeQiPlus1(t0, shot))
	return sens, nil
}
