package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/optcon/internal/dms"
	"github.com/san-kum/optcon/internal/dynamo"
)

type pane int

const (
	paneState pane = iota
	paneControl
	paneNextControl
	numPanes
)

func (p pane) String() string {
	switch p {
	case paneState:
		return "∂Φ/∂s"
	case paneControl:
		return "∂Φ/∂q_i"
	default:
		return "∂Φ/∂q_i+1"
	}
}

// Inspector is a Bubble Tea model for browsing shots: node state, defect
// and one of the three sensitivity matrices at a time.
type Inspector struct {
	title     string
	nodes     []dynamo.State
	defects   []dynamo.State
	sens      []dms.ShotSensitivity
	norms     []float64
	cursor    int
	pane      pane
	precision int
	width     int
}

// NewInspector expects len(nodes) == len(defects)+1 == len(sens)+1.
func NewInspector(title string, nodes, defects []dynamo.State, sens []dms.ShotSensitivity) Inspector {
	norms := make([]float64, len(defects))
	for i, d := range defects {
		norms[i] = d.Norm()
	}
	return Inspector{
		title:     title,
		nodes:     nodes,
		defects:   defects,
		sens:      sens,
		norms:     norms,
		precision: 4,
		width:     80,
	}
}

func (m Inspector) Shot() int { return m.cursor }

func (m Inspector) Init() tea.Cmd { return nil }

func (m Inspector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l", "down", "j":
			if m.cursor < len(m.sens)-1 {
				m.cursor++
			}
		case "left", "h", "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = max(0, len(m.sens)-1)
		case "tab":
			m.pane = (m.pane + 1) % numPanes
		case "+":
			m.precision = min(m.precision+1, 12)
		case "-":
			m.precision = max(m.precision-1, 1)
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

func (m Inspector) View() string {
	var b strings.Builder
	b.WriteString(Title.Render(m.title) + "\n")

	if len(m.sens) == 0 {
		b.WriteString(Subtle.Render("no shots") + "\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("%s  %s  %s\n",
		Metric("shot", fmt.Sprintf("%d/%d", m.cursor+1, len(m.sens))),
		Selected.Render(m.pane.String()),
		Sparkline(m.norms)))

	s := m.sens[m.cursor]
	var matrix string
	switch m.pane {
	case paneState:
		matrix = RenderMatrix(m.pane.String(), s.State, m.precision)
	case paneControl, paneNextControl:
		c := s.Control
		if m.pane == paneNextControl {
			c = s.NextControl
		}
		if c == nil {
			matrix = Panel.Render(Title.Render(m.pane.String()) + Subtle.Render("  no controls"))
		} else {
			matrix = RenderMatrix(m.pane.String(), c, m.precision)
		}
	}

	var blocks []string
	if m.cursor < len(m.nodes) {
		blocks = append(blocks, RenderVector("s_i", m.nodes[m.cursor], m.precision))
	}
	if m.cursor < len(m.defects) {
		blocks = append(blocks, RenderVector("defect", m.defects[m.cursor], m.precision))
	}
	blocks = append(blocks, matrix)

	b.WriteString(SideBySide(blocks...) + "\n")
	b.WriteString(Metric("|d_i|", fmt.Sprintf("%.3e", m.norms[m.cursor])) + "\n\n")
	b.WriteString(KeyHint.Render("h/l shot  tab matrix  +/- precision  q quit") + "\n")
	return b.String()
}

// RunInspector opens the inspector full screen until the user quits.
func RunInspector(m Inspector) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
