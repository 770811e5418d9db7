package main

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/optcon/internal/config"
	"github.com/san-kum/optcon/internal/logger"
	"github.com/san-kum/optcon/internal/storage"
	"github.com/san-kum/optcon/internal/viz"
	"github.com/spf13/cobra"
)

func runRollout(cmd *cobra.Command, args []string) error {
	exp, err := loadExperiment(cmd)
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("controller")
	ctrl, err := exp.Controller(name)
	if err != nil {
		return err
	}

	result, err := exp.Rollout(cmd.Context(), ctrl)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		logger.FromContext(cmd.Context()).Warn("rollout", "error", e)
	}

	cfg := exp.Config()
	meta := storage.RunMetadata{
		Kind:       "rollout",
		Model:      cfg.Model,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Controller: name,
		Metrics:    result.Metrics,
	}
	if name == "hold" {
		meta.Spline = cfg.Spline
		meta.Shots = cfg.Shots
		meta.FinalTime = cfg.FinalTime
	}

	if jsonOut {
		return storage.Export(cmd.OutOrStdout(), meta, result)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d steps\n", runID, result.StepsTaken)
	for _, k := range slices.Sorted(maps.Keys(result.Metrics)) {
		fmt.Fprintln(out, "  "+viz.Metric(k, fmt.Sprintf("%.5g", result.Metrics[k])))
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tMODEL\tTIME\tDURATION\tINTEG\tCTRL\tSHOTS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%s\t%s\t%d\n",
			run.ID,
			run.Kind,
			run.Model,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Integrator,
			run.Controller,
			run.Shots,
		)
	}

	return w.Flush()
}

func stateCaption(model string, idx int) string {
	captions := map[string][]string{
		"pendulum":    {"theta (angle)", "omega (angular velocity)"},
		"cartpole":    {"cart position", "cart velocity", "pole angle", "pole angular velocity"},
		"spring_mass": {"position", "velocity"},
	}
	if c, ok := captions[model]; ok && idx < len(c) {
		return c[idx]
	}
	return fmt.Sprintf("x%d vs time", idx)
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	result, err := st.LoadResult(runID)
	if err != nil {
		return err
	}
	if len(result.States) == 0 {
		return fmt.Errorf("no data to plot")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "model: %s (%s)\n", meta.Model, meta.Kind)
	fmt.Fprintf(out, "samples: %d\n\n", len(result.States))

	cols := viz.Columns(toRows(result.States))
	const maxPlots = 6
	for i, col := range cols {
		if i == maxPlots {
			break
		}
		fmt.Fprintln(out, viz.Plot([][]float64{col}, stateCaption(meta.Model, i), 80, 10))
		fmt.Fprintln(out)
	}

	if len(result.Controls) > 0 {
		fmt.Fprintln(out, viz.Plot(viz.Columns(toRows(result.Controls)), "controls", 80, 6))
	}
	if len(meta.DefectNorms) > 0 {
		fmt.Fprintln(out, viz.Metric("defects", viz.Sparkline(meta.DefectNorms)))
	}
	return nil
}

func toRows[S ~[]float64](in []S) [][]float64 {
	out := make([][]float64, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func listPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	models := make([]string, 0, len(config.Presets))
	if len(args) == 1 {
		models = append(models, args[0])
	} else {
		for m := range config.Presets {
			models = append(models, m)
		}
	}

	found := false
	slices.Sort(models)
	for _, m := range models {
		presets := config.ListPresets(m)
		if len(presets) == 0 {
			continue
		}
		found = true
		fmt.Fprintf(out, "%s: %s\n", m, strings.Join(presets, ", "))
	}
	if !found {
		fmt.Fprintf(os.Stderr, "no presets for model: %s\n", strings.Join(args, " "))
	}
	return nil
}
