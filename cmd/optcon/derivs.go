package main

import (
	"fmt"
	"math"
	"math/cmplx"
	"slices"

	"github.com/goccy/go-json"
	"github.com/san-kum/optcon/internal/control"
	"github.com/san-kum/optcon/internal/experiment"
	"github.com/san-kum/optcon/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type jacobianReport struct {
	Model       string      `json:"model"`
	X           []float64   `json:"x"`
	U           []float64   `json:"u"`
	DoubleSided bool        `json:"double_sided"`
	Jacobian    [][]float64 `json:"jacobian"`
	Analytic    [][]float64 `json:"analytic,omitempty"`
	MaxAbsError *float64    `json:"max_abs_error,omitempty"`
}

func rows(m mat.Matrix) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

func runJacobian(cmd *cobra.Command, args []string) error {
	exp, err := loadExperiment(cmd)
	if err != nil {
		return err
	}
	x, u, err := point(exp)
	if err != nil {
		return err
	}
	cfg := exp.Config()
	z := experiment.Stack(x, u)

	jac, err := experiment.NumericDerivatives(exp.System, 0, cfg.DoubleSided).Jacobian(z)
	if err != nil {
		return err
	}

	report := jacobianReport{
		Model:       cfg.Model,
		X:           x,
		U:           u,
		DoubleSided: cfg.DoubleSided,
		Jacobian:    rows(jac),
	}

	var analytic *mat.Dense
	if d, ok := experiment.AnalyticDerivatives(exp.System, 0); ok {
		if analytic, err = d.Jacobian(z); err != nil {
			return err
		}
		maxErr := floats.Distance(jac.RawMatrix().Data, analytic.RawMatrix().Data, math.Inf(1))
		report.Analytic = rows(analytic)
		report.MaxAbsError = &maxErr
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	mode := "forward"
	if cfg.DoubleSided {
		mode = "central"
	}
	fmt.Fprintln(out, viz.RenderMatrix(fmt.Sprintf("∂f/∂[x;u] %s differences", mode), jac, 6))
	if analytic != nil {
		fmt.Fprintln(out, viz.RenderMatrix("analytic", analytic, 6))
		fmt.Fprintln(out, viz.Metric("max |numeric - analytic|", fmt.Sprintf("%.3e", *report.MaxAbsError)))
	}
	return nil
}

func runHessian(cmd *cobra.Command, args []string) error {
	exp, err := loadExperiment(cmd)
	if err != nil {
		return err
	}
	x, u, err := point(exp)
	if err != nil {
		return err
	}

	w, err := cmd.Flags().GetFloat64Slice("weights")
	if err != nil {
		return err
	}
	if len(w) == 0 {
		w = slices.Repeat([]float64{1}, exp.System.StateDim())
	}

	cfg := exp.Config()
	h, err := experiment.NumericDerivatives(exp.System, 0, cfg.DoubleSided).Hessian(experiment.Stack(x, u), w)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), viz.RenderMatrix("∇²(wᵀf) over [x;u]", h, 6))
	return nil
}

func eigenvalues(m mat.Matrix) ([]complex128, error) {
	var eig mat.Eigen
	if !eig.Factorize(m, mat.EigenNone) {
		return nil, fmt.Errorf("eigen decomposition failed")
	}
	return eig.Values(nil), nil
}

func printEigenvalues(cmd *cobra.Command, label string, m mat.Matrix) error {
	values, err := eigenvalues(m)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.Title.Render(label))
	for _, v := range values {
		fmt.Fprintf(out, "  %s  |λ|=%.4g\n", viz.MetricValue.Render(fmt.Sprintf("%.5g%+.5gi", real(v), imag(v))), cmplx.Abs(v))
	}
	return nil
}

func runLinearize(cmd *cobra.Command, args []string) error {
	exp, err := loadExperiment(cmd)
	if err != nil {
		return err
	}
	x, u, err := point(exp)
	if err != nil {
		return err
	}

	a, b, err := control.Linearize(exp.System, x, u, 0, exp.Config().DoubleSided)
	if err != nil {
		return err
	}

	blocks := []string{viz.RenderMatrix("A = ∂f/∂x", a, 5)}
	if b != nil {
		blocks = append(blocks, viz.RenderMatrix("B = ∂f/∂u", b, 5))
	}
	fmt.Fprintln(cmd.OutOrStdout(), viz.SideBySide(blocks...))
	return printEigenvalues(cmd, "eigenvalues of A", a)
}

func runLQR(cmd *cobra.Command, args []string) error {
	exp, err := loadExperiment(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	var lqr *control.LQR
	if tune, _ := cmd.Flags().GetBool("tune"); tune {
		metric, _ := cmd.Flags().GetString("metric")
		qScales, _ := cmd.Flags().GetFloat64Slice("q-scales")
		rScales, _ := cmd.Flags().GetFloat64Slice("r-scales")
		var params map[string]float64
		var best float64
		lqr, params, best, err = exp.TuneLQR(cmd.Context(), qScales, rScales, metric)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, viz.Metric("q scale", fmt.Sprintf("%g", params["q_scale"])))
		fmt.Fprintln(out, viz.Metric("r scale", fmt.Sprintf("%g", params["r_scale"])))
		fmt.Fprintln(out, viz.Metric(metric, fmt.Sprintf("%.6g", best)))
	} else {
		lqr, err = exp.LQR()
		if err != nil {
			return err
		}
	}

	a, b, err := control.Linearize(exp.System, lqr.Target, lqr.Ref, 0, exp.Config().DoubleSided)
	if err != nil {
		return err
	}
	var bk, closed mat.Dense
	bk.Mul(b, lqr.K)
	closed.Sub(a, &bk)

	fmt.Fprintln(out, viz.Metric("target", fmt.Sprintf("%.4g", []float64(lqr.Target))))
	fmt.Fprintln(out, viz.RenderMatrix("K", lqr.K, 6))
	return printEigenvalues(cmd, "eigenvalues of A - BK", &closed)
}
