// ABOUTME: Home screen listing the signed-in user's menu grouped by module
// ABOUTME: Selecting an option opens that resource's list screen
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/harperreed/bolha/guard"
	"github.com/harperreed/bolha/models"
)

type menuMsg struct {
	entries []models.MenuEntry
}

var moduleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("63"))

func (m Model) initHome() (Model, tea.Cmd) {
	ctx, client, logger := m.ctx, m.client, m.logger
	return m, func() tea.Msg {
		entries, err := client.UserMenu(ctx)
		if err != nil {
			logger.Warn("menu fetch failed", zap.Error(err))
			return nil
		}
		return menuMsg{entries: entries}
	}
}

// menuItems flattens the menu into selectable options.
func (m Model) menuItems() []models.MenuEntry {
	var items []models.MenuEntry
	for _, module := range m.menu {
		items = append(items, module.SubMenuOptions...)
	}
	return items
}

func (m Model) menuLen() int {
	return len(m.menuItems())
}

func (m Model) renderHomeView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("BOLHA ADMIN"))
	s.WriteString("\n")
	user := m.session.Current().User
	s.WriteString(tabInactiveStyle.Render(fmt.Sprintf("%s <%s>", user.Name, user.Email)))
	s.WriteString("\n\n")

	if len(m.menu) == 0 {
		s.WriteString("No menu options available.\n")
	}

	idx := 0
	for _, module := range m.menu {
		s.WriteString(moduleStyle.Render(module.Text))
		s.WriteString("\n")
		for _, opt := range module.SubMenuOptions {
			label := "  " + opt.Text
			if idx == m.menuCursor {
				s.WriteString(tabActiveStyle.Render("> " + opt.Text))
			} else {
				s.WriteString(tabInactiveStyle.Render(label))
			}
			s.WriteString("\n")
			idx++
		}
	}

	help := []string{
		"↑/↓: Navigate",
		"Enter: Open",
		"p: Profile",
		"L: Sign out",
		"q: Quit",
	}
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return s.String()
}

func (m Model) handleHomeKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case "down", "j":
		if m.menuCursor < m.menuLen()-1 {
			m.menuCursor++
		}
	case "enter":
		items := m.menuItems()
		if m.menuCursor < len(items) {
			m.nav.Push(items[m.menuCursor].Route)
		}
	case "p":
		m.nav.Push(guard.ProfilePath)
	case "L":
		if err := m.session.SignOut(); err != nil {
			m.logger.Warn("sign-out failed", zap.Error(err))
		}
		m.menu = nil
		m.menuCursor = 0
		m.nav.Reset(guard.SignInPath)
	}
	return m, nil
}
