package derivatives

import (
	"github.com/san-kum/optcon/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// JacobianFunc returns the analytic Jacobian of a function at x.
type JacobianFunc func(x []float64) (*mat.Dense, error)

// HessianFunc returns the analytic Hessian of wᵀf at x. Generated code
// plugs in here.
type HessianFunc func(x, w []float64) (*mat.Dense, error)

// Functional is a provider backed by caller supplied derivatives.
type Functional struct {
	f      Function
	jac    JacobianFunc
	hes    HessianFunc
	inDim  int
	outDim int
}

// NewFunctional wraps f with its analytic Jacobian. hes may be nil, in which
// case Hessian falls back to central differences of wᵀf.
func NewFunctional(f Function, jac JacobianFunc, hes HessianFunc, inDim, outDim int) *Functional {
	return &Functional{f: f, jac: jac, hes: hes, inDim: inDim, outDim: outDim}
}

func (fn *Functional) InDim() int  { return fn.inDim }
func (fn *Functional) OutDim() int { return fn.outDim }

func (fn *Functional) Clone() Derivatives {
	c := *fn
	return &c
}

func (fn *Functional) ForwardZero(x []float64) ([]float64, error) {
	if err := checkLen("x", x, fn.inDim); err != nil {
		return nil, err
	}
	ev := evaluator{f: fn.f, rows: fn.outDim}
	return ev.eval(x)
}

func (fn *Functional) Jacobian(x []float64) (*mat.Dense, error) {
	if err := checkLen("x", x, fn.inDim); err != nil {
		return nil, err
	}
	jac, err := fn.jac(x)
	if err != nil {
		return nil, err
	}
	r, c := jac.Dims()
	if c != len(x) {
		return nil, dynamo.DimensionError("jacobian columns", c, len(x))
	}
	if fn.outDim != Dynamic && r != fn.outDim {
		return nil, dynamo.DimensionError("jacobian rows", r, fn.outDim)
	}
	return jac, nil
}

func (fn *Functional) Hessian(x, w []float64) (*mat.Dense, error) {
	if err := checkLen("x", x, fn.inDim); err != nil {
		return nil, err
	}
	if err := checkLen("w", w, fn.outDim); err != nil {
		return nil, err
	}
	if fn.hes == nil {
		return numericHessian(weighted(fn.f, w), x, true)
	}
	hes, err := fn.hes(x, w)
	if err != nil {
		return nil, err
	}
	if r, c := hes.Dims(); r != len(x) || c != len(x) {
		return nil, dynamo.DimensionError("hessian order", r, len(x))
	}
	return hes, nil
}
