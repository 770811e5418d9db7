package control

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/optcon/internal/dynamo"
	"github.com/san-kum/optcon/internal/integrators"
	"github.com/san-kum/optcon/internal/physics"
	"github.com/san-kum/optcon/internal/spline"
	"github.com/san-kum/optcon/internal/timegrid"
	"gonum.org/v1/gonum/mat"
)

func TestLinearizeMatchesAnalytic(t *testing.T) {
	tests := []struct {
		name string
		sys  interface {
			dynamo.System
			physics.Linearizer
		}
		x   dynamo.State
		u   dynamo.Control
		tol float64
	}{
		{"pendulum", physics.NewPendulum(), dynamo.State{0.7, -1.2}, dynamo.Control{0.3}, 1e-6},
		{"pendulum upright", physics.NewPendulum(), dynamo.State{math.Pi, 0}, dynamo.Control{0}, 1e-6},
		{"spring chain", physics.NewSpringMassChain(3), dynamo.State{0.1, 0.2, -0.3, 0, 1, 0}, dynamo.Control{2}, 1e-6},
	}

	for _, tt := range tests {
		for _, doubleSided := range []bool{false, true} {
			a, b, err := Linearize(tt.sys, tt.x, tt.u, 0, doubleSided)
			if err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			wantA, wantB := tt.sys.Linearize(tt.x, tt.u, 0)
			if !mat.EqualApprox(a, wantA, tt.tol) {
				t.Errorf("%s doubleSided=%v: A\n%v\nwant\n%v", tt.name, doubleSided, mat.Formatted(a), mat.Formatted(wantA))
			}
			if !mat.EqualApprox(b, wantB, tt.tol) {
				t.Errorf("%s doubleSided=%v: B\n%v\nwant\n%v", tt.name, doubleSided, mat.Formatted(b), mat.Formatted(wantB))
			}
		}
	}
}

func TestLinearizeDimensionChecks(t *testing.T) {
	p := physics.NewPendulum()
	if _, _, err := Linearize(p, dynamo.State{0}, dynamo.Control{0}, 0, true); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("short state: got %v", err)
	}
	if _, _, err := Linearize(p, dynamo.State{0, 0}, nil, 0, true); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("missing control: got %v", err)
	}
}

func spectralRadius(t *testing.T, m mat.Matrix) float64 {
	t.Helper()
	var eig mat.Eigen
	if !eig.Factorize(m, mat.EigenNone) {
		t.Fatal("eigen decomposition failed")
	}
	rho := 0.0
	for _, v := range eig.Values(nil) {
		rho = math.Max(rho, math.Hypot(real(v), imag(v)))
	}
	return rho
}

func TestDesignLQRStabilizesUprightPendulum(t *testing.T) {
	p := physics.NewPendulum()
	xRef := dynamo.State{math.Pi, 0}
	uRef := dynamo.Control{0}
	dt := 0.01

	q := mat.NewDense(2, 2, []float64{10, 0, 0, 1})
	r := mat.NewDense(1, 1, []float64{0.1})

	lqr, err := DesignLQR(p, xRef, uRef, dt, q, r, true)
	if err != nil {
		t.Fatal(err)
	}

	a, b := p.Linearize(xRef, uRef, 0)
	var ad, bk mat.Dense
	ad.Scale(dt, a)
	ad.Set(0, 0, ad.At(0, 0)+1)
	ad.Set(1, 1, ad.At(1, 1)+1)
	bk.Mul(b, lqr.K)
	bk.Scale(dt, &bk)
	var closed mat.Dense
	closed.Sub(&ad, &bk)

	if rho := spectralRadius(t, &ad); rho <= 1 {
		t.Fatalf("open loop should be unstable, spectral radius %g", rho)
	}
	if rho := spectralRadius(t, &closed); rho >= 1 {
		t.Errorf("closed loop spectral radius %g, want < 1", rho)
	}

	// simulate the nonlinear pendulum from a small offset
	integ := integrators.NewRK4()
	x := dynamo.State{math.Pi + 0.2, 0}
	for i := 0; i < 1000; i++ {
		x = integ.Step(p, x, lqr.Compute(x, float64(i)*dt), float64(i)*dt, dt)
	}
	if math.Abs(x[0]-math.Pi) > 1e-3 || math.Abs(x[1]) > 1e-3 {
		t.Errorf("pendulum not balanced after 10s: %v", x)
	}
}

func TestDesignLQRCartPole(t *testing.T) {
	c := physics.NewCartPole()
	q := mat.NewDiagDense(4, []float64{1, 1, 10, 1})
	r := mat.NewDense(1, 1, []float64{1})

	lqr, err := DesignLQR(c, make(dynamo.State, 4), dynamo.Control{0}, 0.01, mat.DenseCopyOf(q), r, true)
	if err != nil {
		t.Fatal(err)
	}
	u := lqr.Compute(dynamo.State{0, 0, 0.1, 0}, 0)
	if len(u) != 1 || u[0] == 0 {
		t.Errorf("expected non-zero corrective force, got %v", u)
	}
}

func TestDesignLQRRejectsBadWeights(t *testing.T) {
	p := physics.NewPendulum()
	q := mat.NewDense(3, 3, nil)
	r := mat.NewDense(1, 1, []float64{1})
	if _, err := DesignLQR(p, dynamo.State{0, 0}, dynamo.Control{0}, 0.01, q, r, false); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}

func TestLQRComputeAtTarget(t *testing.T) {
	k := mat.NewDense(1, 2, []float64{1.0, 2.0})
	ctrl := NewLQR(k, dynamo.State{0.5, 0}, dynamo.Control{0.25})

	if u := ctrl.Compute(dynamo.State{0.5, 0}, 0); u[0] != 0.25 {
		t.Errorf("expected feedforward at target, got %v", u)
	}
	if u := ctrl.Compute(dynamo.State{1.5, 1}, 0); u[0] != 0.25-3 {
		t.Errorf("got %v, want %v", u, 0.25-3)
	}
}

func TestHoldReplaysSpline(t *testing.T) {
	grid, err := timegrid.NewUniform(3, 3)
	if err != nil {
		t.Fatal(err)
	}
	zoh, err := spline.NewZeroOrderHold(grid, 1)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewHold(zoh); !errors.Is(err, dynamo.ErrSplineNotComputed) {
		t.Fatalf("expected ErrSplineNotComputed, got %v", err)
	}

	if err := zoh.ComputeSpline([]dynamo.State{{1}, {-2}, {3}}); err != nil {
		t.Fatal(err)
	}
	hold, err := NewHold(zoh)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		t    float64
		want float64
	}{
		{-1, 1}, {0, 1}, {0.99, 1}, {1, -2}, {2.5, 3}, {3, 3}, {5, 3},
	}
	for _, tt := range tests {
		if u := hold.Compute(nil, tt.t); u[0] != tt.want {
			t.Errorf("u(%g) = %v, want %v", tt.t, u[0], tt.want)
		}
	}
}
