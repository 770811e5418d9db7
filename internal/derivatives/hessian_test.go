package derivatives

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/optcon/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// poly has an exact Hessian for wᵀf:
//
//	f0 = x0² + 3·x0·x1
//	f1 = x1³
func poly(x []float64) ([]float64, error) {
	return []float64{x[0]*x[0] + 3*x[0]*x[1], x[1] * x[1] * x[1]}, nil
}

func polyHessian(x, w []float64) *mat.Dense {
	return mat.NewDense(2, 2, []float64{
		2 * w[0], 3 * w[0],
		3 * w[0], 6 * w[1] * x[1],
	})
}

func TestNumDiffHessian(t *testing.T) {
	tests := []struct {
		name        string
		doubleSided bool
		tol         float64
	}{
		{"forward", false, 1e-3},
		{"central", true, 1e-5},
	}

	x := []float64{0.8, -1.4}
	w := []float64{2, 0.5}
	want := polyHessian(x, w)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hes, err := NewNumDiff(poly, 2, 2, tt.doubleSided).Hessian(x, w)
			if err != nil {
				t.Fatal(err)
			}
			if !mat.EqualApprox(hes, want, tt.tol) {
				t.Errorf("hessian\n%v\nwant\n%v", mat.Formatted(hes), mat.Formatted(want))
			}
			if hes.At(0, 1) != hes.At(1, 0) {
				t.Error("hessian is not symmetric")
			}
		})
	}
}

func TestNumDiffHessianWeightLength(t *testing.T) {
	nd := NewNumDiff(poly, 2, 2, true)
	if _, err := nd.Hessian([]float64{1, 1}, []float64{1}); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}

	dyn := NewNumDiff(poly, Dynamic, Dynamic, true)
	if _, err := dyn.Hessian([]float64{1, 1}, []float64{1, 2, 3}); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("dynamic: got %v, want ErrDimensionMismatch", err)
	}
}

func TestNumericHessianQuadraticForm(t *testing.T) {
	// φ(x) = ½ xᵀQx has Hessian Q everywhere.
	q := mat.NewSymDense(3, []float64{
		4, 1, 0,
		1, 3, -2,
		0, -2, 5,
	})
	phi := func(x []float64) (float64, error) {
		v := mat.NewVecDense(3, x)
		return 0.5 * mat.Inner(v, q, v), nil
	}

	for _, central := range []bool{false, true} {
		hes, err := numericHessian(phi, []float64{0.1, -2, 0.7}, central)
		if err != nil {
			t.Fatal(err)
		}
		if !mat.EqualApprox(hes, q, 1e-3) {
			t.Errorf("central=%v: hessian\n%v", central, mat.Formatted(hes))
		}
	}
}

func TestNumericHessianPropagatesError(t *testing.T) {
	errBoom := errors.New("boom")
	calls := 0
	phi := func(x []float64) (float64, error) {
		calls++
		if calls > 3 {
			return 0, errBoom
		}
		return math.Exp(x[0]), nil
	}
	if _, err := numericHessian(phi, []float64{1, 2}, true); err != errBoom {
		t.Errorf("got %v, want errBoom", err)
	}
}
