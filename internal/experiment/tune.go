package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/optcon/internal/control"
	"github.com/san-kum/optcon/internal/optim"
)

// SettleTolerance is the largest distance from the target a tuned
// rollout may end at.
const SettleTolerance = 1e-2

// TuneLQR scales the configured Q and R over the given grids and keeps
// the regulator whose rollout minimizes metric among those that settle
// at the target.
func (e *Experiment) TuneLQR(ctx context.Context, qScales, rScales []float64, metric string) (*control.LQR, map[string]float64, float64, error) {
	search, err := optim.NewGridSearch([]string{"q_scale", "r_scale"}, [][]float64{qScales, rScales})
	if err != nil {
		return nil, nil, 0, err
	}

	target := e.cfg.Target(e.System.StateDim())
	params, best, err := search.Search(ctx, func(ctx context.Context, p map[string]float64) (float64, error) {
		lqr, err := e.scaledLQR(p["q_scale"], p["r_scale"])
		if err != nil {
			return 0, err
		}
		result, err := e.Rollout(ctx, lqr)
		if err != nil {
			return 0, err
		}
		if len(result.Errors) > 0 {
			return 0, result.Errors[0]
		}
		final := result.States[len(result.States)-1]
		if d := final.Sub(target).Norm(); d > SettleTolerance {
			return 0, fmt.Errorf("did not settle: %g from target", d)
		}
		v, ok := result.Metrics[metric]
		if !ok {
			return 0, fmt.Errorf("unknown metric: %s", metric)
		}
		e.log.Debug("lqr candidate", "q_scale", p["q_scale"], "r_scale", p["r_scale"], metric, v)
		return v, nil
	})
	if err != nil {
		return nil, nil, 0, err
	}

	lqr, err := e.scaledLQR(params["q_scale"], params["r_scale"])
	if err != nil {
		return nil, nil, 0, err
	}
	return lqr, params, best, nil
}
