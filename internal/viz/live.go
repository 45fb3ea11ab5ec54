package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mkerins/creditcycle/internal/model"
	"github.com/mkerins/creditcycle/internal/shoot"
	"github.com/mkerins/creditcycle/internal/sim"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	underStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	overStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
	convStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Bold(true)
	graphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	summaryStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).Padding(0, 2)
)

// IterationMsg streams one bisection step into the live view.
type IterationMsg shoot.Iteration

// DoneMsg ends the live view with the search result.
type DoneMsg struct {
	Q1     float64
	Result *sim.Result
	Err    error
}

// Model is the live bisection view: a narrowing bracket on top, the most
// recent classified trajectory below.
type Model struct {
	scenario string
	steady   model.SteadyState
	iters    []shoot.Iteration
	done     bool
	q1       float64
	result   *sim.Result
	err      error
}

func NewModel(scenario string, ss model.SteadyState) Model {
	return Model{scenario: scenario, steady: ss}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.done {
				return m, tea.Quit
			}
		}
	case IterationMsg:
		m.iters = append(m.iters, shoot.Iteration(msg))
	case DoneMsg:
		m.done = true
		m.q1 = msg.Q1
		m.result = msg.Result
		m.err = msg.Err
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(headerStyle.Render(fmt.Sprintf("shooting search: %s", m.scenario)))
	sb.WriteString("\n")

	rows := make([]string, 0, len(m.iters)+1)
	rows = append(rows, fmt.Sprintf("%4s  %-22s  %-14s  %s", "iter", "bracket width", "q1 guess", "outcome"))
	start := 0
	if len(m.iters) > 12 {
		start = len(m.iters) - 12
	}
	for _, it := range m.iters[start:] {
		rows = append(rows, fmt.Sprintf("%4d  %-22.3e  %-14.8f  %s",
			it.N, it.Bracket.Width(), it.Q1/m.steady.Q, outcomeStyle(it.Outcome).Render(it.Outcome.String())))
	}
	sb.WriteString(summaryStyle.Render(strings.Join(rows, "\n")))
	sb.WriteString("\n")

	if m.done {
		if m.err != nil {
			sb.WriteString(underStyle.Render(fmt.Sprintf("search failed: %v", m.err)))
			sb.WriteString("\n")
		} else {
			sb.WriteString(convStyle.Render(fmt.Sprintf("q1* = %.9f (%.4f x q*)", m.q1, m.q1/m.steady.Q)))
			sb.WriteString("\n")
			if m.result != nil {
				_, _, qn := m.result.Trajectory.Normalized(m.steady)
				sb.WriteString(graphStyle.Render(Sparkline(qn, "q_t / q*")))
				sb.WriteString("\n")
			}
		}
		sb.WriteString(helpStyle.Render("enter/q: quit"))
	} else {
		sb.WriteString(labelStyle.Render("status") + valueStyle.Render("bisecting..."))
		sb.WriteString("\n")
		sb.WriteString(helpStyle.Render("q: abort"))
	}
	sb.WriteString("\n")
	return sb.String()
}

func outcomeStyle(o sim.Outcome) lipgloss.Style {
	switch o {
	case sim.Converged:
		return convStyle
	case sim.Overshoot:
		return overStyle
	default:
		return underStyle
	}
}
