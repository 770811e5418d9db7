package experiment

import (
	"github.com/san-kum/optcon/internal/derivatives"
	"github.com/san-kum/optcon/internal/dynamo"
	"github.com/san-kum/optcon/internal/physics"
	"gonum.org/v1/gonum/mat"
)

// VectorField exposes f(x, u, t) of sys as a function of z = [x; u].
func VectorField(sys dynamo.System, t float64) derivatives.Function {
	nx := sys.StateDim()
	return func(z []float64) ([]float64, error) {
		return sys.Derive(dynamo.State(z[:nx]), dynamo.Control(z[nx:]), t), nil
	}
}

// Stack returns z = [x; u].
func Stack(x dynamo.State, u dynamo.Control) []float64 {
	z := make([]float64, 0, len(x)+len(u))
	z = append(z, x...)
	return append(z, u...)
}

// NumericDerivatives differentiates the vector field of sys by finite
// differences.
func NumericDerivatives(sys dynamo.System, t float64, doubleSided bool) derivatives.Derivatives {
	n := sys.StateDim() + sys.ControlDim()
	return derivatives.NewNumDiff(VectorField(sys, t), n, sys.StateDim(), doubleSided)
}

// AnalyticDerivatives uses the closed form linearization of sys for the
// Jacobian and numeric Hessians. ok is false when sys has none.
func AnalyticDerivatives(sys dynamo.System, t float64) (d derivatives.Derivatives, ok bool) {
	lin, ok := sys.(physics.Linearizer)
	if !ok {
		return nil, false
	}
	nx, nu := sys.StateDim(), sys.ControlDim()
	jac := func(z []float64) (*mat.Dense, error) {
		a, b := lin.Linearize(dynamo.State(z[:nx]), dynamo.Control(z[nx:]), t)
		out := mat.NewDense(nx, nx+nu, nil)
		out.Slice(0, nx, 0, nx).(*mat.Dense).Copy(a)
		if nu > 0 {
			out.Slice(0, nx, nx, nx+nu).(*mat.Dense).Copy(b)
		}
		return out, nil
	}
	return derivatives.NewFunctional(VectorField(sys, t), jac, nil, nx+nu, nx), true
}
