package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/san-kum/optcon/internal/dynamo"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

const (
	DefaultShots     = 10
	DefaultFinalTime = 2.0
	DefaultSubsteps  = 20
	DefaultDt        = 0.01
	DefaultDuration  = 5.0
)

var ErrInvalidConfig = errors.New("config: invalid")

// Config describes one shooting problem: the system, how shots are
// integrated, the control nodes held by the spline and the LQR weights
// used around the target.
type Config struct {
	Model       string      `yaml:"model"`
	Integrator  string      `yaml:"integrator"`
	Spline      string      `yaml:"spline"`
	Shots       int         `yaml:"shots"`
	FinalTime   float64     `yaml:"final_time"`
	Substeps    int         `yaml:"substeps"`
	DoubleSided bool        `yaml:"double_sided"`
	Dt          float64     `yaml:"dt"`
	Duration    float64     `yaml:"duration"`
	InitState   []float64   `yaml:"init_state"`
	Controls    [][]float64 `yaml:"controls,omitempty"`
	LQR         LQRConfig   `yaml:"lqr"`
	LogLevel    string      `yaml:"log_level"`
}

// LQRConfig holds the diagonals of Q and R and the linearization point.
// Empty diagonals mean identity, an empty target means the origin.
type LQRConfig struct {
	Q      []float64 `yaml:"q,omitempty"`
	R      []float64 `yaml:"r,omitempty"`
	Target []float64 `yaml:"target,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:       "pendulum",
		Integrator:  "rk4",
		Spline:      "zoh",
		Shots:       DefaultShots,
		FinalTime:   DefaultFinalTime,
		Substeps:    DefaultSubsteps,
		DoubleSided: true,
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		InitState:   []float64{0.5, 0},
		LogLevel:    "info",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the numeric settings. Names are resolved by the
// registry that builds the components.
func (c *Config) Validate() error {
	switch {
	case c.Shots < 1:
		return fmt.Errorf("%w: shots must be positive, got %d", ErrInvalidConfig, c.Shots)
	case !(c.FinalTime > 0):
		return fmt.Errorf("%w: final_time must be positive, got %g", ErrInvalidConfig, c.FinalTime)
	case c.Substeps < 1:
		return fmt.Errorf("%w: substeps must be positive, got %d", ErrInvalidConfig, c.Substeps)
	case !(c.Dt > 0):
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	case !(c.Duration > 0):
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, c.Duration)
	case len(c.Controls) > c.Shots:
		return fmt.Errorf("%w: %d control nodes for %d shots", ErrInvalidConfig, len(c.Controls), c.Shots)
	}
	for _, r := range c.LQR.R {
		if r <= 0 {
			return fmt.Errorf("%w: lqr.r entries must be positive, got %g", ErrInvalidConfig, r)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.InitState = slices.Clone(c.InitState)
	if c.Controls != nil {
		out.Controls = make([][]float64, len(c.Controls))
		for i, q := range c.Controls {
			out.Controls[i] = slices.Clone(q)
		}
	}
	out.LQR.Q = slices.Clone(c.LQR.Q)
	out.LQR.R = slices.Clone(c.LQR.R)
	out.LQR.Target = slices.Clone(c.LQR.Target)
	return &out
}

// InitialState returns init_state fitted to n: missing entries are zero,
// extra entries are dropped.
func (c *Config) InitialState(n int) dynamo.State {
	return fit(c.InitState, n)
}

// ControlNodes returns one node per shot. Missing nodes repeat the last
// configured one, or are zero when none is configured.
func (c *Config) ControlNodes(dim int) []dynamo.State {
	nodes := make([]dynamo.State, c.Shots)
	var last []float64
	for i := range nodes {
		if i < len(c.Controls) {
			last = c.Controls[i]
		}
		nodes[i] = fit(last, dim)
	}
	return nodes
}

// Weights builds diagonal Q (nx×nx) and R (nu×nu).
func (c *Config) Weights(nx, nu int) (q, r *mat.Dense, err error) {
	diag := func(name string, d []float64, n int) (*mat.Dense, error) {
		m := mat.NewDense(n, n, nil)
		if len(d) == 0 {
			for i := 0; i < n; i++ {
				m.Set(i, i, 1)
			}
			return m, nil
		}
		if len(d) != n {
			return nil, dynamo.DimensionError("lqr."+name, len(d), n)
		}
		for i, v := range d {
			m.Set(i, i, v)
		}
		return m, nil
	}
	if q, err = diag("q", c.LQR.Q, nx); err != nil {
		return nil, nil, err
	}
	if r, err = diag("r", c.LQR.R, nu); err != nil {
		return nil, nil, err
	}
	return q, r, nil
}

// Target returns the LQR linearization point fitted to n.
func (c *Config) Target(n int) dynamo.State {
	return fit(c.LQR.Target, n)
}

func fit(v []float64, n int) dynamo.State {
	out := make(dynamo.State, n)
	copy(out, v)
	return out
}
