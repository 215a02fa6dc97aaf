// ABOUTME: Public auth screens: sign-in, sign-up notice, forgot and reset password
// ABOUTME: Inputs are validated locally before any request leaves the console
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/bolha/api"
	"github.com/harperreed/bolha/controller"
	"github.com/harperreed/bolha/guard"
	"github.com/harperreed/bolha/models"
)

type signedInMsg struct {
	err error
}

type passwordMsg struct {
	kind guard.Kind
	err  error
}

var (
	signInSchema = controller.NewSchema([]controller.Rule{
		{Field: "email", Tags: "required,email"},
		{Field: "password", Tags: "required"},
	})

	forgotSchema = controller.NewSchema([]controller.Rule{
		{Field: "email", Tags: "required,email"},
	})

	resetSchema = controller.NewSchema(
		[]controller.Rule{
			{Field: "token", Tags: "required"},
			{Field: "password", Tags: "required,min=5"},
		},
		controller.CrossRule{Field: "repeatPassword", Other: "password", Tags: "eqfield", Message: "passwords do not match"},
	)
)

// authField pairs an input with the record key it fills.
type authField struct {
	key   string
	label string
}

var (
	signInFields = []authField{{"email", "Email"}, {"password", "Password"}}
	forgotFields = []authField{{"email", "Email"}}
	resetFields  = []authField{{"token", "Reset token"}, {"password", "New password"}, {"repeatPassword", "Repeat password"}}
)

func (m Model) authFields() []authField {
	switch m.route.Kind {
	case guard.KindForgotPassword:
		return forgotFields
	case guard.KindResetPassword:
		return resetFields
	default:
		return signInFields
	}
}

func newAuthInputs(fields []authField) []textinput.Model {
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = f.label
		inputs[i].CharLimit = 120
		if strings.Contains(f.key, "assword") {
			inputs[i].EchoMode = textinput.EchoPassword
			inputs[i].EchoCharacter = '•'
		}
	}
	return inputs
}

func (m Model) initSignIn() Model {
	m.authInputs = newAuthInputs(signInFields)
	m.authErrors = nil
	m.focusIndex = 0
	m.updateAuthFocus()
	return m
}

func (m Model) initForgotPassword() Model {
	m.authInputs = newAuthInputs(forgotFields)
	m.authErrors = nil
	m.focusIndex = 0
	m.updateAuthFocus()
	return m
}

func (m Model) initResetPassword() Model {
	m.authInputs = newAuthInputs(resetFields)
	m.authErrors = nil
	m.focusIndex = 0
	if token := m.route.Query["token"]; token != "" {
		m.authInputs[0].SetValue(token)
		m.focusIndex = 1
	}
	m.updateAuthFocus()
	return m
}

func (m *Model) updateAuthFocus() {
	for i := range m.authInputs {
		if i == m.focusIndex {
			m.authInputs[i].Focus()
		} else {
			m.authInputs[i].Blur()
		}
	}
}

func (m Model) authValues() models.Record {
	values := models.Record{}
	for i, f := range m.authFields() {
		if i < len(m.authInputs) {
			values[f.key] = m.authInputs[i].Value()
		}
	}
	return values
}

func (m Model) renderAuthForm(title string) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	for i, f := range m.authFields() {
		if i >= len(m.authInputs) {
			break
		}
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(m.authInputs[i].View())
		if msg := m.authErrors[f.key]; msg != "" {
			s.WriteString("  ")
			s.WriteString(fieldErrorStyle.Render(msg))
		}
		s.WriteString("\n")
	}
	if m.busy {
		s.WriteString("\nWorking...\n")
	}
	return s.String()
}

func (m Model) renderSignInView() string {
	help := []string{
		"Tab: Next field",
		"Enter: Sign in",
		"Ctrl+F: Forgot password",
		"Ctrl+R: Reset with token",
		"Ctrl+N: Sign up",
		"Ctrl+C: Quit",
	}
	return m.renderAuthForm("BOLHA ADMIN • SIGN IN") + "\n" + helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) renderForgotPasswordView() string {
	help := []string{"Enter: Send reset link", "Esc: Back"}
	return m.renderAuthForm("FORGOT PASSWORD") + "\n" + helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) renderResetPasswordView() string {
	help := []string{"Tab: Next field", "Enter: Change password", "Esc: Back"}
	return m.renderAuthForm("RESET PASSWORD") + "\n" + helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) renderSignUpView() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("SIGN UP"))
	s.WriteString("\n\n")
	s.WriteString("Accounts are created by an administrator under Security > Users.\n")
	s.WriteString("Ask one to create yours, then sign in.\n\n")
	s.WriteString(helpStyle.Render("Esc: Back to sign in"))
	return s.String()
}

func (m Model) handleSignUpKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.nav.Reset(guard.SignInPath)
	}
	return m, nil
}

func (m Model) handleAuthKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
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
		if m.route.Kind != guard.KindSignIn {
			m.nav.Reset(guard.SignInPath)
		}
		return m, nil
	case "enter":
		return m.submitAuth()
	}

	if m.route.Kind == guard.KindSignIn {
		switch msg.String() {
		case "ctrl+f":
			m.clearBanner()
			m.nav.Push(guard.ForgotPasswordPath)
			return m, nil
		case "ctrl+r":
			m.clearBanner()
			m.nav.Push(guard.ResetPasswordPath)
			return m, nil
		case "ctrl+n":
			m.clearBanner()
			m.nav.Push(guard.SignUpPath)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.authInputs[m.focusIndex], cmd = m.authInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m Model) submitAuth() (Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	values := m.authValues()

	var schema *controller.Schema
	switch m.route.Kind {
	case guard.KindForgotPassword:
		schema = forgotSchema
	case guard.KindResetPassword:
		schema = resetSchema
	default:
		schema = signInSchema
	}
	if errs := schema.Validate(values); errs != nil {
		m.authErrors = errs
		return m, nil
	}
	m.authErrors = nil
	m.busy = true
	m.clearBanner()

	ctx, client, sess := m.ctx, m.client, m.session
	kind := m.route.Kind
	switch kind {
	case guard.KindForgotPassword:
		return m, func() tea.Msg {
			return passwordMsg{kind: kind, err: client.ForgotPassword(ctx, values.String("email"))}
		}
	case guard.KindResetPassword:
		return m, func() tea.Msg {
			err := client.ResetPassword(ctx, values.String("token"), values.String("password"), values.String("repeatPassword"))
			return passwordMsg{kind: kind, err: err}
		}
	default:
		creds := models.Credentials{Email: strings.TrimSpace(values.String("email")), Password: values.String("password")}
		return m, func() tea.Msg {
			_, err := sess.SignIn(ctx, client, creds)
			return signedInMsg{err: err}
		}
	}
}

func (m Model) handleAuthResult(msg tea.Msg) (Model, tea.Cmd) {
	m.busy = false
	switch msg := msg.(type) {
	case signedInMsg:
		if msg.err != nil {
			text, _ := api.DisplayMessage(msg.err)
			m.setBanner(text, true)
			return m, nil
		}
		m.clearBanner()
		m.nav.Reset(guard.HomePath)
	case passwordMsg:
		if msg.err != nil {
			text, _ := api.DisplayMessage(msg.err)
			m.setBanner(text, true)
			return m, nil
		}
		if msg.kind == guard.KindForgotPassword {
			m.setBanner("If the account exists, a reset link was sent", false)
			m.nav.Push(guard.ResetPasswordPath)
			return m, nil
		}
		m.setBanner("Password changed, sign in with the new one", false)
		m.nav.Reset(guard.SignInPath)
	}
	return m, nil
}
