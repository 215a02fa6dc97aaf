// ABOUTME: Profile screen for the signed-in user
// ABOUTME: Edits the display name and optionally the password with confirmation
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/harperreed/bolha/controller"
	"github.com/harperreed/bolha/guard"
	"github.com/harperreed/bolha/models"
)

type profileSavedMsg struct {
	err error
}

var (
	profileFields = []authField{{"name", "Name"}, {"password", "New password (optional)"}, {"repeatPassword", "Repeat password"}}

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) initProfile() Model {
	user := m.session.Current().User
	sess, logger := m.session, m.logger
	onSaved := func(u models.User) {
		if err := sess.UpdateUser(u); err != nil {
			logger.Warn("failed to store updated user", zap.Error(err))
		}
	}
	m.profile = controller.NewProfileForm(user, m.client, m.nav, onSaved, m.logger)
	m.authInputs = newAuthInputs(profileFields)
	m.authInputs[0].SetValue(user.Name)
	m.authErrors = nil
	m.focusIndex = 0
	m.updateAuthFocus()
	return m
}

func (m Model) renderProfileView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("MY PROFILE"))
	s.WriteString("\n\n")

	user := m.session.Current().User
	s.WriteString("  ")
	s.WriteString(fieldLabelStyle.Render("Email"))
	s.WriteString(fieldValueStyle.Render(user.Email))
	s.WriteString("\n")

	for i, f := range profileFields {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(fieldLabelStyle.Render(f.label))
		s.WriteString(m.authInputs[i].View())
		if msg := m.authErrors[f.key]; msg != "" {
			s.WriteString("  ")
			s.WriteString(fieldErrorStyle.Render(msg))
		}
		s.WriteString("\n")
	}
	if m.busy {
		s.WriteString("\nSaving...\n")
	}

	help := []string{"Tab: Next field", "Enter: Save", "Esc: Home"}
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return s.String()
}

func (m Model) handleProfileKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.authInputs)
		m.updateAuthFocus()
		return m, nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.authInputs) - 1) % len(m.authInputs)
		m.updateAuthFocus()
		return m, nil
	case "esc":
		m.nav.Reset(guard.HomePath)
		return m, nil
	case "enter":
		if m.busy {
			return m, nil
		}
		m.busy = true
		p, ctx := m.profile, m.ctx
		return m, func() tea.Msg {
			return profileSavedMsg{err: p.Submit(ctx)}
		}
	}
	if m.busy {
		return m, nil
	}

	before := m.authInputs[m.focusIndex].Value()
	var cmd tea.Cmd
	m.authInputs[m.focusIndex], cmd = m.authInputs[m.focusIndex].Update(msg)
	if after := m.authInputs[m.focusIndex].Value(); after != before {
		m.profile.Set(profileFields[m.focusIndex].key, after)
		m.authErrors = m.profile.Errors()
	}
	return m, cmd
}

func (m Model) handleProfileSaved(msg profileSavedMsg) (Model, tea.Cmd) {
	m.busy = false
	if m.profile == nil {
		return m, nil
	}
	m.authErrors = m.profile.Errors()
	if msg.err != nil {
		if text := m.profile.Message(); text != "" {
			m.setBanner(text, true)
		}
		return m, nil
	}
	m.setBanner("Profile updated", false)
	return m, nil
}
