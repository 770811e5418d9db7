package control

import (
	"github.com/san-kum/optcon/internal/dynamo"
	"github.com/san-kum/optcon/internal/spline"
)

// Hold is a feedforward controller that evaluates a control spline at the
// shot containing t.
type Hold struct {
	spline spline.Spliner
}

// NewHold wraps a spline that has already been computed.
func NewHold(s spline.Spliner) (*Hold, error) {
	if _, err := s.EvalSpline(s.Grid().InitialTime(), 0); err != nil {
		return nil, err
	}
	return &Hold{spline: s}, nil
}

func (h *Hold) Compute(x dynamo.State, t float64) dynamo.Control {
	shot := h.spline.Grid().ShotIndex(t)
	u, err := h.spline.EvalSpline(t, shot)
	if err != nil {
		// unreachable: NewHold saw a computed spline and ShotIndex clamps
		// into [0, NumShots). Hold zero rather than stop the rollout.
		return make(dynamo.Control, h.spline.Dim())
	}
	return dynamo.Control(u)
}
