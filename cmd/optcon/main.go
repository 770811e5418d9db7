package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/san-kum/optcon/internal/config"
	"github.com/san-kum/optcon/internal/dynamo"
	"github.com/san-kum/optcon/internal/experiment"
	"github.com/san-kum/optcon/internal/logger"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	logJSON  bool

	configFile  string
	preset      string
	model       string
	integrator  string
	splineKind  string
	shots       int
	finalTime   float64
	substeps    int
	doubleSided bool
	dt          float64
	duration    float64
	initState   []float64
	stateAt     []float64
	controlAt   []float64
	jsonOut     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "optcon",
		Short:         "finite difference derivatives and multiple shooting for control problems",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logger.ParseLevel(logLevel)
			log := logger.Text(os.Stderr, level)
			if logJSON {
				log = logger.JSON(os.Stderr, level)
			}
			cmd.SetContext(logger.WithContext(cmd.Context(), log))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".optcon", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")

	jacobianCmd := &cobra.Command{
		Use:   "jacobian",
		Short: "finite difference jacobian of the vector field at (x, u)",
		RunE:  runJacobian,
	}
	addProblemFlags(jacobianCmd)
	addPointFlags(jacobianCmd)
	jacobianCmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON")

	hessianCmd := &cobra.Command{
		Use:   "hessian",
		Short: "hessian of the weighted vector field wᵀf at (x, u)",
		RunE:  runHessian,
	}
	addProblemFlags(hessianCmd)
	addPointFlags(hessianCmd)
	hessianCmd.Flags().Float64Slice("weights", nil, "output weights w (default all ones)")

	linearizeCmd := &cobra.Command{
		Use:   "linearize",
		Short: "A and B matrices and open loop eigenvalues at (x, u)",
		RunE:  runLinearize,
	}
	addProblemFlags(linearizeCmd)
	addPointFlags(linearizeCmd)

	lqrCmd := &cobra.Command{
		Use:   "lqr",
		Short: "design an LQR around the configured target",
		RunE:  runLQR,
	}
	addProblemFlags(lqrCmd)
	lqrCmd.Flags().Bool("tune", false, "grid search Q and R scales against a rollout metric")
	lqrCmd.Flags().String("metric", "control_effort", "rollout metric minimized by --tune")
	lqrCmd.Flags().Float64Slice("q-scales", []float64{0.1, 1, 10}, "Q scales searched by --tune")
	lqrCmd.Flags().Float64Slice("r-scales", []float64{0.01, 0.1, 1, 10}, "R scales searched by --tune")

	splineCmd := &cobra.Command{
		Use:   "spline",
		Short: "plot the control spline and its derivatives on one shot",
		RunE:  runSpline,
	}
	addProblemFlags(splineCmd)
	splineCmd.Flags().Int("shot", 0, "shot whose derivative maps are printed")
	splineCmd.Flags().Int("samples", 10, "samples per shot")

	defectsCmd := &cobra.Command{
		Use:   "defects",
		Short: "shoot from the initial state and report continuity defects and sensitivities",
		RunE:  runDefects,
	}
	addProblemFlags(defectsCmd)
	defectsCmd.Flags().Float64("perturb", 0, "add this offset to every interior node before evaluating")
	defectsCmd.Flags().Bool("save", true, "store the node trajectory")

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "browse shot sensitivities interactively",
		RunE:  runInspect,
	}
	addProblemFlags(inspectCmd)
	inspectCmd.Flags().Float64("perturb", 0, "add this offset to every interior node before evaluating")

	rolloutCmd := &cobra.Command{
		Use:   "rollout",
		Short: "simulate the closed loop and store the run",
		RunE:  runRollout,
	}
	addProblemFlags(rolloutCmd)
	rolloutCmd.Flags().String("controller", "hold", "controller (hold, lqr)")
	rolloutCmd.Flags().BoolVar(&jsonOut, "json", false, "print the run as JSON instead of storing it")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(jacobianCmd, hessianCmd, linearizeCmd, lqrCmd, splineCmd,
		defectsCmd, inspectCmd, rolloutCmd, listCmd, plotCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addProblemFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset name for --model")
	cmd.Flags().StringVar(&model, "model", "pendulum", "model")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
	cmd.Flags().StringVar(&splineKind, "spline", "zoh", "control spline")
	cmd.Flags().IntVar(&shots, "shots", config.DefaultShots, "number of shots")
	cmd.Flags().Float64Var(&finalTime, "final-time", config.DefaultFinalTime, "final time of the shooting grid")
	cmd.Flags().IntVar(&substeps, "substeps", config.DefaultSubsteps, "integrator steps per shot")
	cmd.Flags().BoolVar(&doubleSided, "double-sided", true, "central instead of forward differences")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "rollout timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "rollout duration")
	cmd.Flags().Float64SliceVar(&initState, "init", nil, "initial state")
}

func addPointFlags(cmd *cobra.Command) {
	cmd.Flags().Float64SliceVar(&stateAt, "x", nil, "state (default: initial state)")
	cmd.Flags().Float64SliceVar(&controlAt, "u", nil, "control (default: zero)")
}

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Model = model
	if cmd.Flags().Changed("model") && !cmd.Flags().Changed("init") {
		cfg.InitState = nil
	}

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(model), ", "))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if cmd.Flags().Changed("model") {
			cfg.Model = model
		}
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("spline") {
		cfg.Spline = splineKind
	}
	if flags.Changed("shots") {
		cfg.Shots = shots
	}
	if flags.Changed("final-time") {
		cfg.FinalTime = finalTime
	}
	if flags.Changed("substeps") {
		cfg.Substeps = substeps
	}
	if flags.Changed("double-sided") {
		cfg.DoubleSided = doubleSided
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("init") {
		cfg.InitState = initState
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	return cfg, cfg.Validate()
}

func loadExperiment(cmd *cobra.Command) (*experiment.Experiment, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(cmd.Context())
	if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" && !logJSON {
		log = logger.Text(os.Stderr, logger.ParseLevel(cfg.LogLevel))
		cmd.SetContext(logger.WithContext(cmd.Context(), log))
	}
	return experiment.New(cfg, experiment.NewRegistry(), log)
}

// point returns the (x, u) given by --x and --u, defaulting to the
// initial state and a zero control.
func point(exp *experiment.Experiment) (dynamo.State, dynamo.Control, error) {
	sys := exp.System
	x := exp.InitialState()
	if stateAt != nil {
		x = dynamo.State(stateAt)
	}
	u := make(dynamo.Control, sys.ControlDim())
	if controlAt != nil {
		u = dynamo.Control(controlAt)
	}
	if len(x) != sys.StateDim() {
		return nil, nil, dynamo.DimensionError("--x", len(x), sys.StateDim())
	}
	if len(u) != sys.ControlDim() {
		return nil, nil, dynamo.DimensionError("--u", len(u), sys.ControlDim())
	}
	return x, u, nil
}
