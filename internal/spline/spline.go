// Package spline implements the control/state splines of a direct multiple
// shooting discretization.
//
// A [Spliner] turns one node value q_i per shot into a function of time and
// reports its derivatives with respect to time, the shot duration h_i and
// the node values q_i and q_{i+1}. Shooting code calls these polymorphically,
// so every variant provides all four derivatives even when they are
// constant.
package spline

import (
	"errors"
	"fmt"

	"github.com/san-kum/optcon/internal/dynamo"
	"github.com/san-kum/optcon/internal/timegrid"
	"gonum.org/v1/gonum/mat"
)

// ErrUnknownKind is returned by New for an unsupported spline kind.
var ErrUnknownKind = errors.New("spline: unknown kind")

// Kind names a spline variant.
type Kind string

const (
	ZeroOrderHoldKind Kind = "zoh"
)

// Spliner interpolates per-shot node values over a time grid and exposes
// the derivatives of the interpolant with respect to time, shot duration
// and the two nodes bounding the shot.
type Spliner interface {
	// ComputeSpline ingests one node value per shot.
	ComputeSpline(points []dynamo.State) error
	// EvalSpline returns the spline value at time t inside shot.
	EvalSpline(t float64, shot int) (dynamo.State, error)

	SplineDerivativeT(t float64, shot int) dynamo.State
	SplineDerivativeHi(t float64, shot int) dynamo.State
	SplineDerivativeQi(t float64, shot int) *mat.Dense
	SplineDerivativeQiPlus1(t float64, shot int) *mat.Dense

	Grid() *timegrid.TimeGrid
	Dim() int
}

// New creates a spliner of the given kind over a shared grid.
func New(kind Kind, grid *timegrid.TimeGrid, dim int) (Spliner, error) {
	switch kind {
	case ZeroOrderHoldKind:
		zoh, err := NewZeroOrderHold(grid, dim)
		if err != nil {
			return nil, err
		}
		return zoh, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Kinds lists the supported spline kinds.
func Kinds() []Kind {
	return []Kind{ZeroOrderHoldKind}
}
