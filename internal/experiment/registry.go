package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/optcon/internal/dynamo"
	"github.com/san-kum/optcon/internal/integrators"
	"github.com/san-kum/optcon/internal/physics"
	"github.com/san-kum/optcon/internal/spline"
	"github.com/san-kum/optcon/internal/timegrid"
)

// Registry maps the names used in configs and flags to constructors.
type Registry struct {
	models      map[string]func() dynamo.System
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func() dynamo.System),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.models["pendulum"] = func() dynamo.System { return physics.NewPendulum() }
	r.models["cartpole"] = func() dynamo.System { return physics.NewCartPole() }
	r.models["spring_mass"] = func() dynamo.System { return physics.NewSpringMass() }
	r.models["spring_chain"] = func() dynamo.System { return physics.NewSpringMassChain(3) }

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	return r
}

// RegisterModel adds or replaces a model constructor.
func (r *Registry) RegisterModel(name string, fn func() dynamo.System) {
	r.models[name] = fn
}

func (r *Registry) GetModel(name string) (dynamo.System, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetSpline(name string, grid *timegrid.TimeGrid, dim int) (spline.Spliner, error) {
	return spline.New(spline.Kind(name), grid, dim)
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func (r *Registry) ListSplines() []string {
	kinds := spline.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
