package config

import (
	"math"
	"sort"
)

var Presets = map[string]map[string]*Config{
	"pendulum": {
		"hanging": {
			Model: "pendulum", Integrator: "rk4", Spline: "zoh", Shots: 10, FinalTime: 2.0, Substeps: 20,
			DoubleSided: true, Dt: 0.01, Duration: 5.0,
			InitState: []float64{0.5, 0},
		},
		"pump": {
			Model: "pendulum", Integrator: "rk4", Spline: "zoh", Shots: 8, FinalTime: 4.0, Substeps: 25,
			DoubleSided: true, Dt: 0.01, Duration: 4.0,
			InitState: []float64{0.1, 0},
			Controls:  [][]float64{{2}, {-2}, {2}, {-2}, {2}, {-2}, {2}, {-2}},
		},
		"upright": {
			Model: "pendulum", Integrator: "rk4", Spline: "zoh", Shots: 10, FinalTime: 2.0, Substeps: 20,
			DoubleSided: true, Dt: 0.01, Duration: 10.0,
			InitState: []float64{math.Pi - 0.2, 0},
			LQR:       LQRConfig{Q: []float64{10, 1}, R: []float64{0.1}, Target: []float64{math.Pi, 0}},
		},
	},
	"cartpole": {
		"balance": {
			Model: "cartpole", Integrator: "rk4", Spline: "zoh", Shots: 20, FinalTime: 2.0, Substeps: 10,
			DoubleSided: true, Dt: 0.01, Duration: 10.0,
			InitState: []float64{0, 0, 0.1, 0},
			LQR:       LQRConfig{Q: []float64{1, 1, 10, 1}, R: []float64{1}},
		},
		"freefall": {
			Model: "cartpole", Integrator: "rk4", Spline: "zoh", Shots: 10, FinalTime: 1.0, Substeps: 10,
			DoubleSided: false, Dt: 0.01, Duration: 2.0,
			InitState: []float64{0, 0, 0.1, 0},
		},
	},
	"spring_mass": {
		"bounce": {
			Model: "spring_mass", Integrator: "rk4", Spline: "zoh", Shots: 10, FinalTime: 5.0, Substeps: 20,
			DoubleSided: true, Dt: 0.01, Duration: 10.0,
			InitState: []float64{2.0, 0},
		},
	},
	"spring_chain": {
		"push": {
			Model: "spring_chain", Integrator: "rk4", Spline: "zoh", Shots: 10, FinalTime: 3.0, Substeps: 20,
			DoubleSided: false, Dt: 0.01, Duration: 6.0,
			InitState: []float64{0, 0, 0, 0, 0, 0},
			Controls:  [][]float64{{5}, {5}, {0}},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	out := cfg.Clone()
	if out.LogLevel == "" {
		out.LogLevel = "info"
	}
	return out
}

// ListPresets returns the sorted preset names of model.
func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
