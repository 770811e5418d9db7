package experiment

import (
	"testing"

	"github.com/san-kum/optcon/internal/dynamo"
	"github.com/san-kum/optcon/internal/physics"
	"gonum.org/v1/gonum/mat"
)

func TestAnalyticMatchesNumeric(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"pendulum", "spring_mass", "spring_chain"} {
		sys, err := reg.GetModel(name)
		if err != nil {
			t.Fatal(err)
		}
		x := make(dynamo.State, sys.StateDim())
		for i := range x {
			x[i] = 0.1 * float64(i+1)
		}
		z := Stack(x, dynamo.Control{0.3})

		analytic, ok := AnalyticDerivatives(sys, 0)
		if !ok {
			t.Fatalf("%s should have an analytic linearization", name)
		}
		want, err := analytic.Jacobian(z)
		if err != nil {
			t.Fatal(err)
		}
		got, err := NumericDerivatives(sys, 0, true).Jacobian(z)
		if err != nil {
			t.Fatal(err)
		}
		if !mat.EqualApprox(got, want, 1e-6) {
			t.Errorf("%s: numeric\n%v\nanalytic\n%v", name, mat.Formatted(got), mat.Formatted(want))
		}
	}

	if _, ok := AnalyticDerivatives(physics.NewCartPole(), 0); ok {
		t.Error("cartpole has no analytic linearization")
	}
}

func TestVectorFieldHessian(t *testing.T) {
	// θ̈ = -g sin θ + u for unit mass and length without damping, so the
	// weighted Hessian in (θ, ω, u) has only the θθ entry g sin θ.
	p := physics.NewPendulum()
	p.Damping = 0
	d := NumericDerivatives(p, 0, true)

	z := Stack(dynamo.State{0.8, 0.1}, dynamo.Control{0.2})
	h, err := d.Hessian(z, []float64{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	want := mat.NewDense(3, 3, nil)
	want.Set(0, 0, p.Gravity*0.7173560908995228)
	if !mat.EqualApprox(h, want, 1e-4) {
		t.Errorf("hessian\n%v\nwant\n%v", mat.Formatted(h), mat.Formatted(want))
	}
}
