package spline

import (
	"fmt"

	"github.com/san-kum/optcon/internal/dynamo"
	"github.com/san-kum/optcon/internal/timegrid"
	"gonum.org/v1/gonum/mat"
)

var _ Spliner = (*ZeroOrderHold)(nil)

// ZeroOrderHold holds q_i constant over shot i. The value does not depend
// on time, on the shot duration or on the next node, so those derivatives
// are zero and the derivative with respect to q_i is the identity.
//
// ComputeSpline must not run concurrently with queries on the same value.
type ZeroOrderHold struct {
	grid   *timegrid.TimeGrid
	dim    int
	points []dynamo.State
}

// NewZeroOrderHold creates a hold spline for node values of positive
// dimension dim over grid, which is shared rather than copied.
func NewZeroOrderHold(grid *timegrid.TimeGrid, dim int) (*ZeroOrderHold, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: nil grid", dynamo.ErrInvalidGrid)
	}
	if dim < 1 {
		return nil, fmt.Errorf("%w: spline dimension %d", dynamo.ErrDimensionMismatch, dim)
	}
	return &ZeroOrderHold{grid: grid, dim: dim}, nil
}

func (z *ZeroOrderHold) Grid() *timegrid.TimeGrid { return z.grid }
func (z *ZeroOrderHold) Dim() int                 { return z.dim }

// ComputeSpline stores a copy of points, one per shot of the grid.
func (z *ZeroOrderHold) ComputeSpline(points []dynamo.State) error {
	if len(points) != z.grid.NumShots() {
		return dynamo.DimensionError("spline points", len(points), z.grid.NumShots())
	}
	held := make([]dynamo.State, len(points))
	for i, p := range points {
		if len(p) != z.dim {
			return dynamo.DimensionError(fmt.Sprintf("spline point %d", i), len(p), z.dim)
		}
		held[i] = p.Clone()
	}
	z.points = held
	return nil
}

// EvalSpline returns q_shot. The time argument is not used.
func (z *ZeroOrderHold) EvalSpline(t float64, shot int) (dynamo.State, error) {
	if z.points == nil {
		return nil, dynamo.ErrSplineNotComputed
	}
	if shot < 0 || shot >= len(z.points) {
		return nil, fmt.Errorf("%w: shot %d, spline has %d", dynamo.ErrShotOutOfRange, shot, len(z.points))
	}
	return z.points[shot].Clone(), nil
}

func (z *ZeroOrderHold) SplineDerivativeT(t float64, shot int) dynamo.State {
	return make(dynamo.State, z.dim)
}

func (z *ZeroOrderHold) SplineDerivativeHi(t float64, shot int) dynamo.State {
	return make(dynamo.State, z.dim)
}

func (z *ZeroOrderHold) SplineDerivativeQi(t float64, shot int) *mat.Dense {
	id := mat.NewDense(z.dim, z.dim, nil)
	for i := 0; i < z.dim; i++ {
		id.Set(i, i, 1)
	}
	return id
}

func (z *ZeroOrderHold) SplineDerivativeQiPlus1(t float64, shot int) *mat.Dense {
	return mat.NewDense(z.dim, z.dim, nil)
}
