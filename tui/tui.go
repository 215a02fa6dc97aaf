// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Routes between auth, home, list, form and profile screens behind the session guard
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/harperreed/bolha/api"
	"github.com/harperreed/bolha/clock"
	"github.com/harperreed/bolha/config"
	"github.com/harperreed/bolha/controller"
	"github.com/harperreed/bolha/guard"
	"github.com/harperreed/bolha/models"
	"github.com/harperreed/bolha/session"
)

// Options wires the model to its backend.
type Options struct {
	Client  *api.Client
	Session *session.Context
	Config  *config.Config
	Clock   clock.Clock
	Logger  *zap.Logger
	// StartPath is the first route; the guard may redirect it.
	StartPath string
}

// Model is the main bubbletea model
type Model struct {
	ctx     context.Context
	client  *api.Client
	session *session.Context
	cfg     *config.Config
	clock   clock.Clock
	logger  *zap.Logger

	nav   *guard.Navigator
	guard *guard.Guard
	idle  *guard.IdleTimer

	// Async notifications from controllers. Idle sign-outs get their own
	// slot so a busy queue cannot drop them.
	events  chan tea.Msg
	idleOut chan struct{}

	current string
	route   guard.Match

	// Top-level message shown above every screen.
	banner    string
	bannerErr bool

	// Auth screens
	authInputs []textinput.Model
	authErrors controller.ValidationErrors
	focusIndex int
	busy       bool

	// Home
	menu       []models.MenuEntry
	menuCursor int

	// List
	list          *controller.List[models.Record]
	selectedRow   int
	searching     bool
	searchInput   textinput.Model
	confirmDelete bool
	deleteTarget  models.Record

	// Form
	form         *controller.Form
	formFields   []models.Field
	formInputs   map[string]textinput.Model
	inputErrors  map[string]string
	formFocus    int
	matrixCursor int

	// Profile
	profile *controller.ProfileForm

	// Graph view state
	graphDOT string
	showDOT  bool

	width  int
	height int
}

type listChangedMsg struct{}

type idleMsg struct{}

// NewModel creates a new TUI model
func NewModel(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.StartPath == "" {
		opts.StartPath = guard.HomePath
	}

	nav := guard.NewNavigator(opts.StartPath)
	m := Model{
		ctx:     context.Background(),
		client:  opts.Client,
		session: opts.Session,
		cfg:     opts.Config,
		clock:   opts.Clock,
		logger:  opts.Logger,
		nav:     nav,
		guard:   guard.New(opts.Session, opts.Logger),
		idle:    guard.NewIdleTimer(opts.Clock, opts.Config.IdleTimeout, opts.Session, nav, opts.Logger),
		events:  make(chan tea.Msg, 16),
		idleOut: make(chan struct{}, 1),
		width:   80,
		height:  24,
	}
	idleOut := m.idleOut
	m.idle.OnFire(func() {
		select {
		case idleOut <- struct{}{}:
		default:
		}
	})
	return m
}

// post delivers an event without blocking the sender. A full queue already
// holds a pending redraw.
func post(ch chan tea.Msg, msg tea.Msg) {
	select {
	case ch <- msg:
	default:
	}
}

func (m Model) waitForEvent() tea.Cmd {
	events, idleOut := m.events, m.idleOut
	return func() tea.Msg {
		select {
		case <-idleOut:
			return idleMsg{}
		default:
		}
		select {
		case <-idleOut:
			return idleMsg{}
		case msg := <-events:
			return msg
		}
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// Start resolves the first route. Run calls it before handing the model
// to bubbletea.
func (m Model) Start() (Model, tea.Cmd) {
	return m.syncRoute(true)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.session.Valid() {
			m.idle.Touch()
		}
		m.clearBanner()
		m, cmd = m.handleKeyPress(msg)
	case listChangedMsg:
		m, cmd = m.syncRoute(false)
		return m, tea.Batch(cmd, m.waitForEvent())
	case idleMsg:
		if !m.route.Public() {
			m.setBanner("Signed out after inactivity", true)
		}
		m, cmd = m.syncRoute(true)
		return m, tea.Batch(cmd, m.waitForEvent())
	default:
		m, cmd = m.handleResult(msg)
	}

	var routeCmd tea.Cmd
	m, routeCmd = m.syncRoute(false)
	return m, tea.Batch(cmd, routeCmd)
}

func (m Model) View() string {
	var body string
	switch m.route.Kind {
	case guard.KindSignIn:
		body = m.renderSignInView()
	case guard.KindSignUp:
		body = m.renderSignUpView()
	case guard.KindForgotPassword:
		body = m.renderForgotPasswordView()
	case guard.KindResetPassword:
		body = m.renderResetPasswordView()
	case guard.KindHome:
		body = m.renderHomeView()
	case guard.KindProfile:
		body = m.renderProfileView()
	case guard.KindList:
		if m.confirmDelete {
			return m.renderConfirmDeleteView()
		}
		body = m.renderListView()
	case guard.KindForm:
		if m.showDOT {
			body = m.renderGraphView()
		} else {
			body = m.renderEditView()
		}
	default:
		body = m.renderNotFoundView()
	}
	return m.renderBanner() + body
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.route.Kind {
	case guard.KindSignIn, guard.KindForgotPassword, guard.KindResetPassword:
		return m.handleAuthKeys(msg)
	case guard.KindSignUp:
		return m.handleSignUpKeys(msg)
	case guard.KindHome:
		return m.handleHomeKeys(msg)
	case guard.KindProfile:
		return m.handleProfileKeys(msg)
	case guard.KindList:
		if m.confirmDelete {
			return m.handleConfirmDeleteKeys(msg)
		}
		return m.handleListKeys(msg)
	case guard.KindForm:
		if m.showDOT {
			return m.handleGraphKeys(msg)
		}
		return m.handleEditKeys(msg)
	default:
		switch msg.String() {
		case "esc", "enter":
			m.nav.Reset(guard.HomePath)
		case "q":
			return m, tea.Quit
		}
		return m, nil
	}
}

// handleResult applies the outcome of a finished command.
func (m Model) handleResult(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case signedInMsg, passwordMsg:
		return m.handleAuthResult(msg)
	case menuMsg:
		m.menu = msg.entries
		if m.menuCursor >= m.menuLen() {
			m.menuCursor = 0
		}
	case deletedMsg:
		m.confirmDelete = false
		m.deleteTarget = nil
		if msg.err != nil {
			text, _ := api.DisplayMessage(msg.err)
			m.setBanner(text, true)
		} else {
			m.setBanner("Record deleted", false)
		}
	case formLoadedMsg:
		return m.handleFormLoaded(msg)
	case formSubmittedMsg:
		return m.handleFormSubmitted(msg)
	case profileSavedMsg:
		return m.handleProfileSaved(msg)
	case graphMsg:
		if msg.err != nil {
			m.setBanner("Could not render the permission graph", true)
			return m, nil
		}
		m.graphDOT = msg.dot
		m.showDOT = true
	}
	return m, nil
}

// syncRoute moves the model onto the navigator's current path, applying
// the session guard. force re-enters the screen even when the path is
// unchanged.
func (m Model) syncRoute(force bool) (Model, tea.Cmd) {
	path := m.nav.Current()
	if path == m.current && !force {
		return m, nil
	}

	match, redirected := m.guard.Resolve(path)
	if redirected {
		m.nav.Replace(match.Path)
		path = match.Path
	}
	m.closeScreen()
	m.current = path
	m.route = match
	if !match.Public() {
		m.idle.Touch()
	}
	return m.enter()
}

// enter prepares the screen of m.route.
func (m Model) enter() (Model, tea.Cmd) {
	switch m.route.Kind {
	case guard.KindSignIn:
		m = m.initSignIn()
	case guard.KindForgotPassword:
		m = m.initForgotPassword()
	case guard.KindResetPassword:
		m = m.initResetPassword()
	case guard.KindHome:
		return m.initHome()
	case guard.KindProfile:
		m = m.initProfile()
	case guard.KindList:
		return m.initList()
	case guard.KindForm:
		return m.initForm()
	}
	return m, nil
}

// closeScreen releases per-screen controllers.
func (m *Model) closeScreen() {
	if m.list != nil {
		m.list.Close()
		m.list = nil
	}
	m.form = nil
	m.profile = nil
	m.searching = false
	m.confirmDelete = false
	m.showDOT = false
	m.graphDOT = ""
	m.busy = false
}

func (m *Model) setBanner(text string, isErr bool) {
	m.banner = text
	m.bannerErr = isErr
}

func (m *Model) clearBanner() {
	m.banner = ""
	m.bannerErr = false
}

func (m Model) renderBanner() string {
	if m.banner == "" {
		return ""
	}
	if m.bannerErr {
		return errorBannerStyle.Render(m.banner) + "\n"
	}
	return infoBannerStyle.Render(m.banner) + "\n"
}

func (m Model) renderNotFoundView() string {
	return titleStyle.Render("PAGE NOT FOUND") + "\n\n" +
		"Nothing lives at " + m.route.Path + "\n\n" +
		helpStyle.Render("Enter/Esc: Home • q: Quit")
}

// Stop disarms the idle timer and closes open controllers.
func (m *Model) Stop() {
	m.idle.Stop()
	m.closeScreen()
}

// Run starts the full-screen console and blocks until the user quits.
func Run(opts Options) error {
	m, cmd := NewModel(opts).Start()
	p := tea.NewProgram(startModel{Model: m, first: cmd}, tea.WithAltScreen())
	final, err := p.Run()
	if fm, ok := final.(startModel); ok {
		fm.Stop()
	} else if fm, ok := final.(Model); ok {
		fm.Stop()
	}
	return err
}

// startModel runs the first route's command alongside the event loop.
type startModel struct {
	Model
	first tea.Cmd
}

func (s startModel) Init() tea.Cmd {
	return tea.Batch(s.Model.Init(), s.first)
}

func (s startModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := s.Model.Update(msg)
	s.Model = next.(Model)
	return s, cmd
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorBannerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 1)

	infoBannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("28")).
			Padding(0, 1)

	fieldErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)
