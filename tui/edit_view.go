package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/harperreed/bolha/controller"
	"github.com/harperreed/bolha/guard"
	"github.com/harperreed/bolha/models"
)

type formLoadedMsg struct {
	err error
}

type formSubmittedMsg struct {
	err error
}

var fieldLabelStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("170")).
	Width(24)

func isTextKind(k models.FieldKind) bool {
	switch k {
	case models.KindText, models.KindTextArea, models.KindPassword, models.KindNumber, models.KindDate:
		return true
	default:
		return false
	}
}

func (m Model) initForm() (Model, tea.Cmd) {
	res := m.route.Resource
	f := controller.NewForm(res, m.client.Resource(res), m.nav, m.logger)

	m.form = f
	m.formFields = res.Fields
	m.formInputs = make(map[string]textinput.Model, len(res.Fields))
	m.inputErrors = map[string]string{}
	for _, field := range res.Fields {
		if !isTextKind(field.Kind) {
			continue
		}
		input := textinput.New()
		input.Placeholder = field.Label
		if field.MaxLen > 0 {
			input.CharLimit = field.MaxLen
		} else {
			input.CharLimit = 500
		}
		if field.Kind == models.KindPassword {
			input.EchoMode = textinput.EchoPassword
			input.EchoCharacter = '•'
		}
		m.formInputs[field.Name] = input
	}
	m.formFocus = 0
	m.matrixCursor = 0
	m.syncFormInputs()
	m.updateFormFocus()

	ctx, id := m.ctx, m.route.ID
	return m, func() tea.Msg {
		f.LoadLookups(ctx)
		return formLoadedMsg{err: f.LoadRecord(ctx, id)}
	}
}

// syncFormInputs copies controller values into the text inputs.
func (m *Model) syncFormInputs() {
	values := m.form.State().Values
	for name, input := range m.formInputs {
		field, _ := m.route.Resource.Field(name)
		if field.Kind == models.KindPassword {
			input.SetValue("")
		} else {
			text := models.Scalar(values[name])
			if field.Kind == models.KindNumber && text == "0" {
				text = ""
			}
			input.SetValue(text)
		}
		m.formInputs[name] = input
	}
	m.inputErrors = map[string]string{}
}

func (m *Model) updateFormFocus() {
	for i, field := range m.formFields {
		input, ok := m.formInputs[field.Name]
		if !ok {
			continue
		}
		if i == m.formFocus {
			input.Focus()
		} else {
			input.Blur()
		}
		m.formInputs[field.Name] = input
	}
}

func (m Model) focusedField() (models.Field, bool) {
	if m.formFocus < 0 || m.formFocus >= len(m.formFields) {
		return models.Field{}, false
	}
	return m.formFields[m.formFocus], true
}

func (m Model) handleFormLoaded(msg formLoadedMsg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	if msg.err != nil {
		// Read failures keep the draft; the edit screen stays usable.
		m.logger.Debug("form opened without a loaded record", zap.Error(msg.err))
	}
	m.syncFormInputs()
	return m, nil
}

func (m Model) handleFormSubmitted(msg formSubmittedMsg) (Model, tea.Cmd) {
	m.busy = false
	if m.form == nil {
		return m, nil
	}
	if msg.err != nil {
		var verrs controller.ValidationErrors
		if !errors.As(msg.err, &verrs) {
			if text := m.form.State().Message; text != "" {
				m.setBanner(text, true)
			}
		}
		return m, nil
	}

	m.setBanner(m.route.Resource.Title+" saved", false)
	if m.form.ConsumeFocusFirst() {
		m.syncFormInputs()
		m.formFocus = 0
		m.matrixCursor = 0
		m.updateFormFocus()
	}
	return m, nil
}

func (m Model) renderEditView() string {
	var s strings.Builder
	res := m.route.Resource
	state := m.form.State()

	// Title
	if m.route.Mode == guard.ModeNew {
		s.WriteString(titleStyle.Render("NEW " + strings.ToUpper(res.Title)))
	} else {
		s.WriteString(titleStyle.Render("EDIT " + strings.ToUpper(res.Title)))
	}
	s.WriteString("\n\n")

	for i, field := range m.formFields {
		if field.Kind == models.KindGrants {
			s.WriteString(m.renderMatrix(i == m.formFocus))
			continue
		}
		if i == m.formFocus {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		label := field.Label
		if field.Required() {
			label += " *"
		}
		s.WriteString(fieldLabelStyle.Render(label))
		s.WriteString(m.renderFieldValue(field, state))

		errMsg := m.inputErrors[field.Name]
		if errMsg == "" {
			errMsg = state.Errors[field.Name]
		}
		if errMsg != "" {
			s.WriteString("  ")
			s.WriteString(fieldErrorStyle.Render(errMsg))
		}
		s.WriteString("\n")
	}

	if state.Status == controller.StatusSubmitting {
		s.WriteString("\nSaving...\n")
	}
	s.WriteString("\n")

	// Help
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderFieldValue(field models.Field, state controller.FormState) string {
	switch field.Kind {
	case models.KindBool:
		if b, _ := state.Values[field.Name].(bool); b {
			return "[x]"
		}
		return "[ ]"
	case models.KindForeignKey:
		id := models.Scalar(state.Values[field.Name])
		if id == "" {
			return "‹ none ›"
		}
		for _, opt := range state.Lookups[field.Name] {
			if opt.ID == id {
				return "‹ " + opt.Label + " ›"
			}
		}
		return "‹ " + id + " ›"
	default:
		input := m.formInputs[field.Name]
		return input.View()
	}
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Space: Toggle",
		"←/→: Choose",
		"Enter: Save",
		"Esc: Cancel",
	}
	if m.form != nil && m.form.Matrix() != nil {
		help = append(help, "Ctrl+G: Graph")
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	field, ok := m.focusedField()

	switch msg.String() {
	case "esc":
		m.nav.Push(m.route.Resource.Route)
		return m, nil
	case "tab":
		m.formFocus = (m.formFocus + 1) % len(m.formFields)
		m.updateFormFocus()
		return m, nil
	case "shift+tab":
		m.formFocus = (m.formFocus + len(m.formFields) - 1) % len(m.formFields)
		m.updateFormFocus()
		return m, nil
	case "enter", "ctrl+s":
		return m.submitForm()
	case "ctrl+g":
		if m.form.Matrix() != nil {
			return m, m.renderPermissionGraph()
		}
		return m, nil
	}

	if !ok {
		return m, nil
	}

	switch field.Kind {
	case models.KindGrants:
		return m.handleMatrixKeys(msg)
	case models.KindBool:
		switch msg.String() {
		case " ", "space", "x":
			cur, _ := m.form.State().Values[field.Name].(bool)
			m.form.Set(field.Name, !cur)
		case "down":
			m.formFocus = (m.formFocus + 1) % len(m.formFields)
			m.updateFormFocus()
		case "up":
			m.formFocus = (m.formFocus + len(m.formFields) - 1) % len(m.formFields)
			m.updateFormFocus()
		}
		return m, nil
	case models.KindForeignKey:
		switch msg.String() {
		case "left", "right":
			m.cycleLookup(field, msg.String() == "right")
		case "backspace", "delete":
			m.form.Set(field.Name, nil)
		case "down":
			m.formFocus = (m.formFocus + 1) % len(m.formFields)
			m.updateFormFocus()
		case "up":
			m.formFocus = (m.formFocus + len(m.formFields) - 1) % len(m.formFields)
			m.updateFormFocus()
		}
		return m, nil
	}

	switch msg.String() {
	case "down":
		m.formFocus = (m.formFocus + 1) % len(m.formFields)
		m.updateFormFocus()
		return m, nil
	case "up":
		m.formFocus = (m.formFocus + len(m.formFields) - 1) % len(m.formFields)
		m.updateFormFocus()
		return m, nil
	}

	// Update current input
	input := m.formInputs[field.Name]
	before := input.Value()
	var cmd tea.Cmd
	input, cmd = input.Update(msg)
	m.formInputs[field.Name] = input
	if after := input.Value(); after != before {
		m.setFieldText(field, after)
	}
	return m, cmd
}

// setFieldText coerces typed text into the field's type. Text that does
// not parse stays in the input with an error and is not stored.
func (m *Model) setFieldText(field models.Field, text string) {
	value, err := models.ParseInput(field, text)
	if err != nil {
		m.inputErrors[field.Name] = "must be a number"
		return
	}
	delete(m.inputErrors, field.Name)
	if field.Kind == models.KindText || field.Kind == models.KindTextArea || field.Kind == models.KindPassword || field.Kind == models.KindDate {
		// keep what was typed; trimming happens on validation
		value = text
	}
	m.form.Set(field.Name, value)
}

// cycleLookup moves a foreign key through its options. Optional keys
// include an empty choice before the first option.
func (m *Model) cycleLookup(field models.Field, forward bool) {
	state := m.form.State()
	opts := state.Lookups[field.Name]
	choices := make([]any, 0, len(opts)+1)
	if !field.Required() || len(opts) == 0 {
		choices = append(choices, nil)
	}
	for _, o := range opts {
		choices = append(choices, o.ID)
	}
	if len(choices) == 0 {
		return
	}

	cur := models.Scalar(state.Values[field.Name])
	idx := -1
	for i, c := range choices {
		if models.Scalar(c) == cur {
			idx = i
			break
		}
	}
	switch {
	case idx < 0:
		idx = 0
	case forward:
		idx = (idx + 1) % len(choices)
	default:
		idx = (idx + len(choices) - 1) % len(choices)
	}
	m.form.Set(field.Name, choices[idx])
}

func (m Model) submitForm() (Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	if len(m.inputErrors) > 0 {
		return m, nil
	}
	m.busy = true
	f, ctx := m.form, m.ctx
	return m, func() tea.Msg {
		return formSubmittedMsg{err: f.Submit(ctx)}
	}
}
