// Package timegrid holds the shooting grid shared between the splines and
// the shooting code of a multiple shooting discretization.
package timegrid

import (
	"fmt"
	"slices"
	"sort"

	"github.com/san-kum/optcon/internal/dynamo"
)

// TimeGrid is an ordered set of shot boundary times t_0 < t_1 < ... < t_N.
// Shot i covers [t_i, t_{i+1}). Consumers hold a pointer to a grid owned by
// the problem setup; rescaling the grid is visible to all of them.
type TimeGrid struct {
	times []float64
}

// New creates a grid from explicit boundary times.
func New(times []float64) (*TimeGrid, error) {
	if len(times) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 boundary times, got %d", dynamo.ErrInvalidGrid, len(times))
	}
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return nil, fmt.Errorf("%w: t[%d]=%g is not after t[%d]=%g", dynamo.ErrInvalidGrid, i, times[i], i-1, times[i-1])
		}
	}
	return &TimeGrid{times: slices.Clone(times)}, nil
}

// NewUniform creates numShots equally long shots over [0, finalTime].
func NewUniform(numShots int, finalTime float64) (*TimeGrid, error) {
	if numShots < 1 {
		return nil, fmt.Errorf("%w: number of shots must be positive, got %d", dynamo.ErrInvalidGrid, numShots)
	}
	if !(finalTime > 0) {
		return nil, fmt.Errorf("%w: final time must be positive, got %g", dynamo.ErrInvalidGrid, finalTime)
	}
	times := make([]float64, numShots+1)
	for i := range times {
		times[i] = finalTime * float64(i) / float64(numShots)
	}
	return &TimeGrid{times: times}, nil
}

func (g *TimeGrid) NumShots() int { return len(g.times) - 1 }

func (g *TimeGrid) InitialTime() float64 { return g.times[0] }

func (g *TimeGrid) FinalTime() float64 { return g.times[len(g.times)-1] }

// Times returns a copy of the boundary times.
func (g *TimeGrid) Times() []float64 { return slices.Clone(g.times) }

func (g *TimeGrid) ShotStart(shot int) (float64, error) {
	if err := g.check(shot); err != nil {
		return 0, err
	}
	return g.times[shot], nil
}

func (g *TimeGrid) ShotEnd(shot int) (float64, error) {
	if err := g.check(shot); err != nil {
		return 0, err
	}
	return g.times[shot+1], nil
}

// ShotDuration returns h_i = t_{i+1} - t_i.
func (g *TimeGrid) ShotDuration(shot int) (float64, error) {
	if err := g.check(shot); err != nil {
		return 0, err
	}
	return g.times[shot+1] - g.times[shot], nil
}

// ShotIndex returns the shot containing t. The final time belongs to the
// last shot; times outside the grid are clamped to the first or last shot.
func (g *TimeGrid) ShotIndex(t float64) int {
	i := sort.SearchFloat64s(g.times, t)
	// SearchFloat64s gives the first boundary >= t
	if i < len(g.times) && g.times[i] == t {
		i++
	}
	shot := i - 1
	if shot < 0 {
		return 0
	}
	if shot >= g.NumShots() {
		return g.NumShots() - 1
	}
	return shot
}

// SetFinalTime rescales the grid so that it ends at finalTime while
// keeping the relative shot lengths.
func (g *TimeGrid) SetFinalTime(finalTime float64) error {
	t0 := g.times[0]
	if !(finalTime > t0) {
		return fmt.Errorf("%w: final time %g not after initial time %g", dynamo.ErrInvalidGrid, finalTime, t0)
	}
	scale := (finalTime - t0) / (g.FinalTime() - t0)
	for i := range g.times {
		g.times[i] = t0 + (g.times[i]-t0)*scale
	}
	g.times[len(g.times)-1] = finalTime
	return nil
}

func (g *TimeGrid) check(shot int) error {
	if shot < 0 || shot >= g.NumShots() {
		return fmt.Errorf("%w: shot %d, grid has %d shots", dynamo.ErrShotOutOfRange, shot, g.NumShots())
	}
	return nil
}
