package viz

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/optcon/internal/dms"
	"github.com/san-kum/optcon/internal/dynamo"
	"github.com/san-kum/optcon/internal/spline"
	"github.com/san-kum/optcon/internal/timegrid"
	"gonum.org/v1/gonum/mat"
)

func TestFormatMatrix(t *testing.T) {
	out := FormatMatrix(mat.NewDense(2, 2, []float64{1, -0.5, 1234.25, 0}), 4)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", out)
	}
	for _, want := range []string{"-0.5", "1234", "[1]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSampleSpline(t *testing.T) {
	grid, err := timegrid.NewUniform(3, 3)
	if err != nil {
		t.Fatal(err)
	}
	zoh, err := spline.NewZeroOrderHold(grid, 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := SampleSpline(zoh, 4); err == nil {
		t.Fatal("expected error before the spline is computed")
	}
	if err := zoh.ComputeSpline([]dynamo.State{{1, 10}, {2, 20}, {3, 30}}); err != nil {
		t.Fatal(err)
	}

	series, err := SampleSpline(zoh, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 2 || len(series[0]) != 12 {
		t.Fatalf("got %d series of %d samples", len(series), len(series[0]))
	}
	if series[0][0] != 1 || series[0][4] != 2 || series[1][11] != 30 {
		t.Errorf("unexpected samples %v", series)
	}

	if out := Plot(series, "controls", 40, 5); !strings.Contains(out, "controls") {
		t.Errorf("plot missing caption:\n%s", out)
	}
}

func TestSparkline(t *testing.T) {
	if Sparkline(nil) != "" {
		t.Error("expected empty sparkline")
	}
	if out := Sparkline([]float64{0, 1, 0.5}); !strings.Contains(out, "█") || !strings.Contains(out, "▁") {
		t.Errorf("unexpected sparkline %q", out)
	}
}

func inspector() Inspector {
	sens := make([]dms.ShotSensitivity, 3)
	for i := range sens {
		sens[i] = dms.ShotSensitivity{
			Shot:        i,
			State:       mat.NewDense(2, 2, []float64{1, float64(i), 0, 1}),
			Control:     mat.NewDense(2, 1, []float64{0, 1}),
			NextControl: mat.NewDense(2, 1, nil),
		}
	}
	nodes := []dynamo.State{{0, 0}, {1, 0}, {2, 0}, {3, 0}}
	defects := []dynamo.State{{0, 0}, {1e-3, 0}, {0, 0}}
	return NewInspector("pendulum", nodes, defects, sens)
}

func press(m tea.Model, keys ...string) tea.Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = m.Update(msg)
	}
	return m
}

func TestInspectorNavigation(t *testing.T) {
	m := press(inspector(), "l", "l", "l").(Inspector)
	if m.Shot() != 2 {
		t.Errorf("cursor %d, want clamped at 2", m.Shot())
	}
	m = press(m, "h").(Inspector)
	if m.Shot() != 1 {
		t.Errorf("cursor %d, want 1", m.Shot())
	}
	m = press(m, "g").(Inspector)
	if m.Shot() != 0 {
		t.Errorf("cursor %d, want 0", m.Shot())
	}

	m = press(m, "tab", "tab").(Inspector)
	if m.pane != paneNextControl {
		t.Errorf("pane %v, want next control", m.pane)
	}
	m = press(m, "tab").(Inspector)
	if m.pane != paneState {
		t.Errorf("pane %v should wrap to state", m.pane)
	}
}

func TestInspectorQuit(t *testing.T) {
	_, cmd := inspector().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestInspectorView(t *testing.T) {
	m := press(inspector(), "l").(Inspector)
	out := m.View()
	for _, want := range []string{"pendulum", "2/3", "∂Φ/∂s", "defect", "1.000e-03"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}

	empty := NewInspector("empty", nil, nil, nil)
	if !strings.Contains(empty.View(), "no shots") {
		t.Error("expected empty message")
	}
}
