package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/harperreed/bolha/models"
	"github.com/harperreed/bolha/viz"
)

type graphMsg struct {
	dot string
	err error
}

func (m Model) renderGraphView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("PERMISSION GRAPH"))
	s.WriteString("\n\n")

	// DOT source (scrollable in future)
	if m.graphDOT == "" {
		s.WriteString("Generating graph...\n")
	} else {
		s.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Render(m.graphDOT))
	}

	s.WriteString("\n\n")

	// Help
	s.WriteString(m.renderGraphHelp())

	return s.String()
}

func (m Model) renderGraphHelp() string {
	help := []string{
		"Esc: Back to form",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.showDOT = false
		m.graphDOT = ""
	}

	return m, nil
}

// renderPermissionGraph draws the matrix as currently edited, unsaved
// toggles included.
func (m Model) renderPermissionGraph() tea.Cmd {
	matrix := m.form.Matrix()
	name := m.form.State().Values.String("name")
	if name == "" {
		name = "new profile"
	}
	var options []models.MenuOption
	for _, g := range matrix.Groups() {
		for _, row := range g.Rows {
			options = append(options, row.Option)
		}
	}
	grants := matrix.Grants()
	ctx, logger := m.ctx, m.logger
	return func() tea.Msg {
		dot, err := viz.RenderPermissionGraph(ctx, name, options, grants)
		if err != nil {
			logger.Warn("permission graph failed", zap.Error(err))
		}
		return graphMsg{dot: dot, err: err}
	}
}
