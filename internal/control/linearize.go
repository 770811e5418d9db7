package control

import (
	"github.com/san-kum/optcon/internal/derivatives"
	"github.com/san-kum/optcon/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Linearize returns A = ∂f/∂x and B = ∂f/∂u of sys at (x, u, t), estimated
// with one finite difference Jacobian over the stacked vector [x; u].
func Linearize(sys dynamo.System, x dynamo.State, u dynamo.Control, t float64, doubleSided bool) (*mat.Dense, *mat.Dense, error) {
	nx, nu := sys.StateDim(), sys.ControlDim()
	if len(x) != nx {
		return nil, nil, dynamo.DimensionError("state", len(x), nx)
	}
	if len(u) != nu {
		return nil, nil, dynamo.DimensionError("control", len(u), nu)
	}

	f := func(z []float64) ([]float64, error) {
		return sys.Derive(dynamo.State(z[:nx]), dynamo.Control(z[nx:]), t), nil
	}

	z := make([]float64, 0, nx+nu)
	z = append(z, x...)
	z = append(z, u...)

	jac, err := derivatives.NewNumDiff(f, nx+nu, nx, doubleSided).Jacobian(z)
	if err != nil {
		return nil, nil, err
	}

	a := mat.DenseCopyOf(jac.Slice(0, nx, 0, nx))
	if nu == 0 {
		return a, nil, nil
	}
	b := mat.DenseCopyOf(jac.Slice(0, nx, nx, nx+nu))
	return a, b, nil
}
