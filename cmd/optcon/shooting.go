package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/optcon/internal/dms"
	"github.com/san-kum/optcon/internal/dynamo"
	"github.com/san-kum/optcon/internal/experiment"
	"github.com/san-kum/optcon/internal/logger"
	"github.com/san-kum/optcon/internal/storage"
	"github.com/san-kum/optcon/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

func runSpline(cmd *cobra.Command, args []string) error {
	exp, err := loadExperiment(cmd)
	if err != nil {
		return err
	}
	shot, _ := cmd.Flags().GetInt("shot")
	samples, _ := cmd.Flags().GetInt("samples")

	series, err := viz.SampleSpline(exp.Spline, samples)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.Plot(series, fmt.Sprintf("%s control spline over %d shots", exp.Config().Spline, exp.Grid.NumShots()), 80, 10))
	fmt.Fprintln(out)

	t, err := exp.Grid.ShotStart(shot)
	if errors.Is(err, dynamo.ErrShotOutOfRange) {
		return fmt.Errorf("--shot: %w", err)
	} else if err != nil {
		return err
	}
	value, err := exp.Spline.EvalSpline(t, shot)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, viz.Metric("shot", fmt.Sprintf("%d at t=%.4g", shot, t)))
	fmt.Fprintln(out, viz.SideBySide(
		viz.RenderVector("u", value, 5),
		viz.RenderVector("∂u/∂t", exp.Spline.SplineDerivativeT(t, shot), 5),
		viz.RenderVector("∂u/∂h_i", exp.Spline.SplineDerivativeHi(t, shot), 5),
	))
	fmt.Fprintln(out, viz.SideBySide(
		viz.RenderMatrix("∂u/∂q_i", exp.Spline.SplineDerivativeQi(t, shot), 5),
		viz.RenderMatrix("∂u/∂q_i+1", exp.Spline.SplineDerivativeQiPlus1(t, shot), 5),
	))
	return nil
}

type shooting struct {
	states  []dynamo.State
	defects []dynamo.State
	sens    []dms.ShotSensitivity
}

func shoot(cmd *cobra.Command, exp *experiment.Experiment) (*shooting, error) {
	states, err := exp.Shoot()
	if err != nil {
		return nil, err
	}
	if perturb, _ := cmd.Flags().GetFloat64("perturb"); perturb != 0 {
		for i := 1; i < len(states)-1; i++ {
			for j := range states[i] {
				states[i][j] += perturb
			}
		}
	}

	defects, err := exp.Defects(states)
	if err != nil {
		return nil, err
	}
	sens, err := exp.Sensitivities(cmd.Context(), states)
	if err != nil {
		return nil, err
	}
	return &shooting{states: states, defects: defects, sens: sens}, nil
}

func runDefects(cmd *cobra.Command, args []string) error {
	exp, err := loadExperiment(cmd)
	if err != nil {
		return err
	}
	res, err := shoot(cmd, exp)
	if err != nil {
		return err
	}

	norms := make([]float64, len(res.defects))
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SHOT\tT\t|d_i|\t|∂Φ/∂s|\t|∂Φ/∂q|")
	for i, d := range res.defects {
		norms[i] = d.Norm()
		t, _ := exp.Grid.ShotStart(i)
		qNorm := 0.0
		if c := res.sens[i].Control; c != nil {
			qNorm = mat.Norm(c, 2)
		}
		fmt.Fprintf(w, "%d\t%.4g\t%.3e\t%.4g\t%.4g\n", i, t, norms[i], mat.Norm(res.sens[i].State, 2), qNorm)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), viz.Metric("defects", viz.Sparkline(norms)))

	if save, _ := cmd.Flags().GetBool("save"); !save {
		return nil
	}

	cfg := exp.Config()
	nodes := exp.Grid.NumShots()
	controls := make([]dynamo.Control, nodes)
	for i := range controls {
		t, _ := exp.Grid.ShotStart(i)
		u, err := exp.Spline.EvalSpline(t, i)
		if err != nil {
			return err
		}
		controls[i] = dynamo.Control(u)
	}
	result := &dynamo.Result{
		States:     res.states,
		Controls:   controls,
		Times:      exp.Grid.Times(),
		Metrics:    map[string]float64{},
		StepsTaken: nodes,
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Kind:        "shooting",
		Model:       cfg.Model,
		Integrator:  cfg.Integrator,
		Spline:      cfg.Spline,
		Shots:       cfg.Shots,
		FinalTime:   cfg.FinalTime,
		Duration:    cfg.FinalTime,
		DefectNorms: norms,
	}, result)
	if err != nil {
		return err
	}
	logger.FromContext(cmd.Context()).Info("saved shooting run", "id", runID, "dir", dataDir)
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	exp, err := loadExperiment(cmd)
	if err != nil {
		return err
	}
	res, err := shoot(cmd, exp)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s  %d shots over %.3gs", exp.Config().Model, exp.Grid.NumShots(), exp.Grid.FinalTime())
	if err := viz.RunInspector(viz.NewInspector(title, res.states, res.defects, res.sens)); err != nil {
		fmt.Fprintln(os.Stderr, "inspector:", err)
		return err
	}
	return nil
}
