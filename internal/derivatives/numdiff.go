package derivatives

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

var (
	machineEps = math.Nextafter(1, 2) - 1
	sqrtEps    = math.Sqrt(machineEps)
)

// NumDiff approximates derivatives of a wrapped function by finite
// differences.
//
// Single sided differencing costs InDim+1 evaluations of f per Jacobian and
// has O(h) truncation error. Double sided (central) differencing costs
// 2·InDim evaluations and has O(h²) truncation error.
type NumDiff struct {
	f           Function
	inDim       int
	outDim      int
	doubleSided bool
	eps         float64
}

// NewNumDiff wraps f. The function is referenced, not copied; the caller
// must keep whatever it closes over valid for the provider's lifetime.
func NewNumDiff(f Function, inDim, outDim int, doubleSided bool) *NumDiff {
	return &NumDiff{
		f:           f,
		inDim:       inDim,
		outDim:      outDim,
		doubleSided: doubleSided,
		eps:         sqrtEps,
	}
}

func (n *NumDiff) InDim() int        { return n.inDim }
func (n *NumDiff) OutDim() int       { return n.outDim }
func (n *NumDiff) DoubleSided() bool { return n.doubleSided }

// Epsilon is the relative perturbation, sqrt of the machine epsilon.
func (n *NumDiff) Epsilon() float64 { return n.eps }

// Clone returns a provider sharing the same function, mode and epsilon.
func (n *NumDiff) Clone() Derivatives {
	c := *n
	return &c
}

func (n *NumDiff) ForwardZero(x []float64) ([]float64, error) {
	if err := checkLen("x", x, n.inDim); err != nil {
		return nil, err
	}
	ev := evaluator{f: n.f, rows: n.outDim}
	return ev.eval(x)
}

// Jacobian estimates df/dx at x. Column i is the difference quotient for a
// perturbation of x[i] by h = eps·max(|x[i]|, 1). The quotient divides by
// the step actually realized in floating point, not by h.
func (n *NumDiff) Jacobian(x []float64) (*mat.Dense, error) {
	if err := checkLen("x", x, n.inDim); err != nil {
		return nil, err
	}

	ev := evaluator{f: n.f, rows: n.outDim}

	var yRef []float64
	if !n.doubleSided {
		var err error
		if yRef, err = ev.eval(x); err != nil {
			return nil, err
		}
	}

	var jac *mat.Dense
	for i, xi := range x {
		h := n.eps * math.Max(math.Abs(xi), 1.0)
		// the conversion forces rounding of the sum before the subtraction
		xph := float64(xi + h)
		dxp := xph - xi

		xPerturbed := slices.Clone(x)
		xPerturbed[i] = xph
		yPerturbed, err := ev.eval(xPerturbed)
		if err != nil {
			return nil, err
		}

		if jac == nil {
			jac = mat.NewDense(ev.rows, len(x), nil)
		}

		if n.doubleSided {
			xmh := float64(xi - h)
			dxm := xi - xmh

			xPerturbed = slices.Clone(x)
			xPerturbed[i] = xmh
			yPerturbedLow, err := ev.eval(xPerturbed)
			if err != nil {
				return nil, err
			}

			setColumn(jac, i, yPerturbed, yPerturbedLow, dxp+dxm)
		} else {
			setColumn(jac, i, yPerturbed, yRef, dxp)
		}
	}

	return jac, nil
}

// Hessian estimates the Hessian of wᵀf at x by second differences. The
// step scheme follows the differencing mode of the provider.
func (n *NumDiff) Hessian(x, w []float64) (*mat.Dense, error) {
	if err := checkLen("x", x, n.inDim); err != nil {
		return nil, err
	}
	if err := checkLen("w", w, n.outDim); err != nil {
		return nil, err
	}
	return numericHessian(weighted(n.f, w), x, n.doubleSided)
}

func setColumn(jac *mat.Dense, col int, hi, lo []float64, step float64) {
	for r := range hi {
		jac.Set(r, col, (hi[r]-lo[r])/step)
	}
}
