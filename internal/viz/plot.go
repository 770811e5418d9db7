package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/optcon/internal/spline"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan, asciigraph.Magenta, asciigraph.Yellow, asciigraph.Green, asciigraph.Red, asciigraph.Blue,
}

// Plot draws one or more series on a shared axis.
func Plot(series [][]float64, caption string, width, height int) string {
	colors := make([]asciigraph.AnsiColor, len(series))
	for i := range colors {
		colors[i] = seriesColors[i%len(seriesColors)]
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption),
	)
}

// Columns splits row major samples into one series per column.
func Columns(rows [][]float64) [][]float64 {
	if len(rows) == 0 {
		return nil
	}
	cols := make([][]float64, len(rows[0]))
	for j := range cols {
		cols[j] = make([]float64, len(rows))
		for i, row := range rows {
			if j < len(row) {
				cols[j][i] = row[j]
			}
		}
	}
	return cols
}

// SampleSpline evaluates s at samplesPerShot evenly spaced times inside
// every shot and returns one series per spline component.
func SampleSpline(s spline.Spliner, samplesPerShot int) ([][]float64, error) {
	if samplesPerShot < 1 {
		samplesPerShot = 1
	}
	grid := s.Grid()
	rows := make([][]float64, 0, grid.NumShots()*samplesPerShot)
	for shot := 0; shot < grid.NumShots(); shot++ {
		t0, err := grid.ShotStart(shot)
		if err != nil {
			return nil, err
		}
		h, _ := grid.ShotDuration(shot)
		for k := 0; k < samplesPerShot; k++ {
			v, err := s.EvalSpline(t0+h*float64(k)/float64(samplesPerShot), shot)
			if err != nil {
				return nil, fmt.Errorf("sample shot %d: %w", shot, err)
			}
			rows = append(rows, v)
		}
	}
	return Columns(rows), nil
}
