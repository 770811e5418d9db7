// Package experiment assembles a shooting problem from a config: the
// system, its time grid, the control spline and the shooter, and runs
// the operations the command line exposes on it.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/optcon/internal/config"
	"github.com/san-kum/optcon/internal/control"
	"github.com/san-kum/optcon/internal/dms"
	"github.com/san-kum/optcon/internal/dynamo"
	"github.com/san-kum/optcon/internal/logger"
	"github.com/san-kum/optcon/internal/metrics"
	"github.com/san-kum/optcon/internal/sim"
	"github.com/san-kum/optcon/internal/spline"
	"github.com/san-kum/optcon/internal/timegrid"
)

type Experiment struct {
	cfg     *config.Config
	System  dynamo.System
	Grid    *timegrid.TimeGrid
	Spline  spline.Spliner
	Shooter *dms.Shooter
	reg     *Registry
	log     logger.Logger
}

// New validates cfg and builds every component it names. The spline is
// computed from the configured control nodes.
func New(cfg *config.Config, reg *Registry, log logger.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sys, err := reg.GetModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	integ, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	grid, err := timegrid.NewUniform(cfg.Shots, cfg.FinalTime)
	if err != nil {
		return nil, err
	}
	sp, err := reg.GetSpline(cfg.Spline, grid, sys.ControlDim())
	if err != nil {
		return nil, err
	}
	if err := sp.ComputeSpline(cfg.ControlNodes(sys.ControlDim())); err != nil {
		return nil, err
	}
	shooter, err := dms.NewShooter(sys, integ, sp, cfg.Substeps)
	if err != nil {
		return nil, err
	}
	shooter.Logger = log.With("component", "dms")

	log.Debug("experiment ready", "model", cfg.Model, "shots", cfg.Shots, "final_time", cfg.FinalTime)
	return &Experiment{
		cfg:     cfg,
		System:  sys,
		Grid:    grid,
		Spline:  sp,
		Shooter: shooter,
		reg:     reg,
		log:     log,
	}, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// InitialState is the configured initial state sized for the system.
func (e *Experiment) InitialState() dynamo.State {
	return e.cfg.InitialState(e.System.StateDim())
}

// Shoot returns consistent node states from the initial state.
func (e *Experiment) Shoot() ([]dynamo.State, error) {
	return e.Shooter.Shoot(e.InitialState())
}

// Defects evaluates the continuity defects of states, or of a consistent
// shooting from the initial state when states is nil.
func (e *Experiment) Defects(states []dynamo.State) ([]dynamo.State, error) {
	if states == nil {
		var err error
		if states, err = e.Shoot(); err != nil {
			return nil, err
		}
	}
	return e.Shooter.Defects(states)
}

func (e *Experiment) Sensitivities(ctx context.Context, states []dynamo.State) ([]dms.ShotSensitivity, error) {
	return e.Shooter.Sensitivities(ctx, states, e.cfg.DoubleSided)
}

// LQR designs a regulator around the configured target with the
// configured weights and rollout step.
func (e *Experiment) LQR() (*control.LQR, error) {
	return e.scaledLQR(1, 1)
}

func (e *Experiment) scaledLQR(qScale, rScale float64) (*control.LQR, error) {
	nx, nu := e.System.StateDim(), e.System.ControlDim()
	q, r, err := e.cfg.Weights(nx, nu)
	if err != nil {
		return nil, err
	}
	q.Scale(qScale, q)
	r.Scale(rScale, r)
	target := e.cfg.Target(nx)
	lqr, err := control.DesignLQR(e.System, target, make(dynamo.Control, nu), e.cfg.Dt, q, r, e.cfg.DoubleSided)
	if err != nil {
		return nil, fmt.Errorf("lqr for %s: %w", e.cfg.Model, err)
	}
	return lqr, nil
}

// Controller resolves a controller name: "hold" replays the control
// spline, "lqr" regulates to the target.
func (e *Experiment) Controller(name string) (dynamo.Controller, error) {
	switch name {
	case "hold", "":
		return control.NewHold(e.Spline)
	case "lqr":
		return e.LQR()
	default:
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
}

// Rollout simulates the system for the configured duration under ctrl
// with the default metrics for the model.
func (e *Experiment) Rollout(ctx context.Context, ctrl dynamo.Controller) (*dynamo.Result, error) {
	integ, err := e.reg.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return nil, err
	}
	s := sim.New(e.System, integ, ctrl)
	s.SetLogger(e.log.With("component", "sim"))
	for _, m := range metrics.ForSystem(e.System, e.cfg.Dt, e.cfg.Target(e.System.StateDim())) {
		s.AddMetric(m)
	}

	cfg := dynamo.DefaultConfig()
	cfg.Dt = e.cfg.Dt
	cfg.Duration = e.cfg.Duration
	return s.Run(ctx, e.InitialState(), cfg)
}
