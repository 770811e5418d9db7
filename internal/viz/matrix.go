package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/mat"
)

// FormatMatrix lays m out as right aligned columns with row and column
// indices, using %.*g with the given precision.
func FormatMatrix(m mat.Matrix, precision int) string {
	r, c := m.Dims()
	cells := make([][]string, r+1)
	cells[0] = make([]string, c+1)
	for j := 0; j < c; j++ {
		cells[0][j+1] = fmt.Sprintf("[%d]", j)
	}
	for i := 0; i < r; i++ {
		cells[i+1] = make([]string, c+1)
		cells[i+1][0] = fmt.Sprintf("[%d]", i)
		for j := 0; j < c; j++ {
			cells[i+1][j+1] = fmt.Sprintf("%.*g", precision, m.At(i, j))
		}
	}

	widths := make([]int, c+1)
	for _, row := range cells {
		for j, cell := range row {
			widths[j] = max(widths[j], len(cell))
		}
	}

	lines := make([]string, len(cells))
	for i, row := range cells {
		parts := make([]string, len(row))
		for j, cell := range row {
			parts[j] = fmt.Sprintf("%*s", widths[j], cell)
		}
		line := strings.Join(parts, "  ")
		if i == 0 {
			line = Subtle.Render(line)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// RenderMatrix draws m in a titled panel.
func RenderMatrix(title string, m mat.Matrix, precision int) string {
	r, c := m.Dims()
	header := Title.Render(title) + Subtle.Render(fmt.Sprintf("  %dx%d", r, c))
	return Panel.Render(lipgloss.JoinVertical(lipgloss.Left, header, FormatMatrix(m, precision)))
}

// RenderVector draws v as a single column.
func RenderVector(title string, v []float64, precision int) string {
	if len(v) == 0 {
		return Panel.Render(Title.Render(title) + Subtle.Render("  empty"))
	}
	return RenderMatrix(title, mat.NewDense(len(v), 1, v), precision)
}

// SideBySide joins rendered blocks horizontally with a gap.
func SideBySide(blocks ...string) string {
	spaced := make([]string, 0, 2*len(blocks))
	for i, b := range blocks {
		if i > 0 {
			spaced = append(spaced, " ")
		}
		spaced = append(spaced, b)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, spaced...)
}
