// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Deletes the selected record through the list controller after confirmation
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type deletedMsg struct {
	err error
}

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	res := m.route.Resource
	entityType := strings.ToLower(res.Title)
	entityName := m.deleteTarget.Display(res.LabelField)
	if entityName == "" {
		entityName = m.deleteTarget.ID()
	}

	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	message := fmt.Sprintf("Are you sure you want to delete this %s?", entityType)
	entityInfo := fmt.Sprintf("\n%s: %s\n", strings.ToUpper(entityType), entityName)
	warning := "\nThis action cannot be undone!"

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		entityInfo,
		warning,
		"",
		buttons,
	)

	box := confirmBoxStyle.Render(content)

	// Center the box on screen
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
	)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return m, m.performDelete()
	case "n", "N", "esc":
		m.confirmDelete = false
		m.deleteTarget = nil
	}

	return m, nil
}

// performDelete removes the record; the list reloads itself on success.
func (m Model) performDelete() tea.Cmd {
	l, ctx, id := m.list, m.ctx, m.deleteTarget.ID()
	return func() tea.Msg {
		return deletedMsg{err: l.Delete(ctx, id)}
	}
}
