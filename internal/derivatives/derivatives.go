package derivatives

import (
	"fmt"

	"github.com/san-kum/optcon/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Dynamic marks a dimension that is only known at evaluation time.
const Dynamic = -1

// Function is a vector-valued function of a vector. Implementations must
// be deterministic and must not retain or modify x.
type Function func(x []float64) ([]float64, error)

// Derivatives is the capability shared by all derivative providers.
type Derivatives interface {
	InDim() int
	OutDim() int
	// ForwardZero evaluates f(x).
	ForwardZero(x []float64) ([]float64, error)
	// Jacobian returns df/dx at x as an OutDim × InDim matrix.
	Jacobian(x []float64) (*mat.Dense, error)
	// Hessian returns the InDim × InDim Hessian of wᵀf at x.
	Hessian(x, w []float64) (*mat.Dense, error)
	// Clone returns an independent provider around the same function.
	Clone() Derivatives
}

var (
	_ Derivatives = (*NumDiff)(nil)
	_ Derivatives = (*Functional)(nil)
)

// checkLen validates v against a declared dimension. Empty vectors are
// always rejected; Dynamic dimensions accept any other length.
func checkLen(what string, v []float64, dim int) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: %s is empty", dynamo.ErrDimensionMismatch, what)
	}
	if dim != Dynamic && len(v) != dim {
		return dynamo.DimensionError(what, len(v), dim)
	}
	return nil
}

// evaluator calls f and pins the output length on first use so that every
// evaluation inside one derivative computation has the same shape.
type evaluator struct {
	f    Function
	rows int
}

func (e *evaluator) eval(x []float64) ([]float64, error) {
	y, err := e.f(x)
	if err != nil {
		return nil, err
	}
	if e.rows == Dynamic {
		if len(y) == 0 {
			return nil, fmt.Errorf("%w: f(x) returned an empty vector", dynamo.ErrDimensionMismatch)
		}
		e.rows = len(y)
	}
	if len(y) != e.rows {
		return nil, dynamo.DimensionError("f(x)", len(y), e.rows)
	}
	return y, nil
}
