package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors shared by the derivative, spline and shooting packages.
var (
	// ErrDimensionMismatch indicates a vector or matrix whose size does not
	// match the declared dimensions of the receiver.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrShotOutOfRange indicates a shot (interval) index outside the grid.
	ErrShotOutOfRange = errors.New("dynamo: shot index out of range")

	// ErrSplineNotComputed indicates a spline query before ComputeSpline.
	ErrSplineNotComputed = errors.New("dynamo: spline evaluated before ComputeSpline")

	// ErrInvalidGrid indicates a time grid that is empty or not strictly increasing.
	ErrInvalidGrid = errors.New("dynamo: invalid time grid")

	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// DimensionError reports an unexpected vector length.
func DimensionError(what string, got, want int) error {
	return fmt.Errorf("%w: %s has length %d, want %d", ErrDimensionMismatch, what, got, want)
}

// ShotError wraps an error with shooting-interval context.
type ShotError struct {
	Shot    int
	Time    float64
	Wrapped error
}

func (e *ShotError) Error() string {
	return fmt.Sprintf("shot %d (t=%.4f): %v", e.Shot, e.Time, e.Wrapped)
}

func (e *ShotError) Unwrap() error {
	return e.Wrapped
}
