package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/analytics"
	"github.com/five82/addressable/internal/config"
	"github.com/five82/addressable/internal/logging"
	"github.com/five82/addressable/internal/metrics"
	"github.com/five82/addressable/internal/prefs"
	"github.com/five82/addressable/internal/session"
	"github.com/five82/addressable/internal/state"
	"github.com/five82/addressable/internal/views"
)

// View represents the current active view.
type View int

const (
	ViewLogin View = iota
	ViewDashboard
	ViewDetail
	ViewLeads
	ViewCompose
	ViewLogs
)

// Poller is the background dashboard refresher the UI starts after sign-in.
type Poller interface {
	Start()
	Stop()
	Refresh(ctx context.Context) error
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	API       addressable.API
	Session   *session.Manager
	Store     *state.Store
	Poller    Poller
	Analytics analytics.Sink
	Metrics   *metrics.Metrics
	Logger    logging.Logger
	Config    *config.Config

	PollTick     time.Duration // how often the UI re-reads the store
	ThemeName    string
	StatusFilter addressable.MailingStatus
	PrefsPath    string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	api       addressable.API
	session   *session.Manager
	store     *state.Store
	poller    Poller
	sink      analytics.Sink
	metrics   *metrics.Metrics
	log       logging.Logger
	config    *config.Config
	prefsPath string
	pollTick  time.Duration
	keys      keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	modal       Modal

	// flash is a one-line result of the last action.
	flash      string
	flashIsErr bool

	// Data state
	snapshot state.Snapshot
	user     *addressable.User

	login   loginState
	dash    dashboardState
	detail  detailState
	leads   leadsState
	compose composeState
	logs    logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	sink := opts.Analytics
	if sink == nil {
		sink = analytics.Nop{}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}

	m := Model{
		ctx:       ctx,
		api:       opts.API,
		session:   opts.Session,
		store:     store,
		poller:    opts.Poller,
		sink:      sink,
		metrics:   opts.Metrics,
		log:       log,
		config:    opts.Config,
		prefsPath: prefsPath,
		pollTick:  pollTick,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.ThemeName),
		login:     newLoginState(),
		logs:      newLogState(),
	}
	m.dash.view = views.NewDashboard(store, sink, opts.StatusFilter)

	m.currentView = ViewLogin
	if m.session != nil && m.session.LoggedIn() {
		m.enterSignedIn()
	}
	return m
}

// enterSignedIn loads the stored user and shows the dashboard.
func (m *Model) enterSignedIn() {
	if m.session != nil {
		if u, err := m.session.Current(); err == nil {
			m.user = u
		}
	}
	if m.leads.view == nil && m.api != nil {
		m.leads.view, _ = views.NewLeads(views.LeadsOptions{
			API:       m.api,
			Store:     m.store,
			Analytics: m.sink,
			Logger:    m.log,
		})
	}
	m.currentView = ViewDashboard
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		fetchSnapshotCmd(m.store),
	}
	if m.currentView == ViewLogin {
		cmds = append(cmds, m.login.focusCmd())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeLogs()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.clampSelections()
		return m, nil

	case flashMsg:
		m.setFlash(msg.text, msg.err)
		return m, nil

	case loginDoneMsg:
		return m.handleLoginDone(msg)

	case logoutDoneMsg:
		return m.handleSignedOut(msg.err, false)

	case detailLoadedMsg, detailActionMsg:
		return m.handleDetailMsg(msg)

	case leadsMsg:
		return m.handleLeadsMsg(msg)

	case composeMsg:
		return m.handleComposeMsg(msg)

	case logsMsg:
		m.handleLogs(msg)
		return m, nil
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}
	if m.currentView == ViewLogin {
		return m.updateLoginInputs(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	if m.currentView == ViewLogin {
		return m.renderLogin()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.modal != nil {
		return m.updateModal(msg)
	}
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.currentView == ViewLogin {
		return m.handleLoginKey(msg)
	}
	if m.currentView == ViewLogs && m.logs.searching {
		return m.handleLogSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		name := m.theme.Name
		_ = prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name })
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		m.modal = confirmModal{
			title: "Sign out?",
			body:  "Stored credentials are removed from this machine.",
			onConfirm: func() tea.Cmd {
				return logoutCmd(m.ctx, m.session)
			},
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh) && m.currentView != ViewCompose:
		return m, m.refreshCmd()

	case key.Matches(msg, m.keys.Tab):
		return m.cycleView()

	case key.Matches(msg, m.keys.ViewDashboard) && m.currentView != ViewCompose:
		return m.showDashboard()

	case key.Matches(msg, m.keys.ViewLeads) && m.currentView != ViewCompose:
		m.currentView = ViewLeads
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs) && m.currentView != ViewCompose:
		m.currentView = ViewLogs
		return m, m.refreshLogs()

	case key.Matches(msg, m.keys.NewMailing) && m.currentView != ViewCompose:
		return m.openCompose(0)
	}

	switch m.currentView {
	case ViewDashboard:
		return m.handleDashboardKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewLeads:
		return m.handleLeadsKey(msg)
	case ViewCompose:
		return m.handleComposeKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd, closed := m.modal.Update(msg, m.keys)
	if closed {
		m.modal = nil
	} else {
		m.modal = next
	}
	return m, cmd
}

// cycleView moves Dashboard → Leads → Logs → Dashboard. Compose and detail
// are left through esc instead.
func (m Model) cycleView() (tea.Model, tea.Cmd) {
	switch m.currentView {
	case ViewDashboard:
		m.currentView = ViewLeads
	case ViewLeads:
		m.currentView = ViewLogs
		return m, m.refreshLogs()
	case ViewLogs, ViewDetail:
		return m.showDashboard()
	}
	return m, nil
}

// showDashboard leaves any detail view and returns to the dashboard.
func (m Model) showDashboard() (tea.Model, tea.Cmd) {
	m.closeDetail()
	m.closeCompose()
	m.currentView = ViewDashboard
	return m, fetchSnapshotCmd(m.store)
}

func (m *Model) setFlash(text string, err error) {
	if err != nil {
		m.flash = text + ": " + errorText(err)
		m.flashIsErr = true
		return
	}
	m.flash = text
	m.flashIsErr = false
}

// errorText turns client errors into short user-facing text.
func errorText(err error) string {
	switch {
	case errors.Is(err, addressable.ErrPaymentRequired):
		return "not enough tokens"
	case errors.Is(err, addressable.ErrUnauthorized):
		return "session expired, sign in again"
	case errors.Is(err, addressable.ErrNetwork):
		return "network unavailable"
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 && i+2 < len(msg) && len(msg) > 80 {
		msg = msg[i+2:]
	}
	return msg
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{fetchSnapshotCmd(m.store), tickCmd(m.pollTick)}

	// A 401 during polling clears the keychain behind our back.
	if m.currentView != ViewLogin && m.session != nil && !m.session.LoggedIn() {
		next, cmd := m.handleSignedOut(nil, true)
		return next, tea.Batch(append(cmds, cmd)...)
	}

	if m.currentView == ViewLogs && m.logs.follow {
		cmds = append(cmds, m.refreshLogs())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) refreshCmd() tea.Cmd {
	if m.poller == nil {
		return nil
	}
	ctx, p := m.ctx, m.poller
	return func() tea.Msg {
		if err := p.Refresh(ctx); err != nil {
			return flashMsg{text: "Refresh failed", err: err}
		}
		return flashMsg{text: "Refreshed " + time.Now().Format("15:04:05")}
	}
}

// renderMain renders the header, command bar and the active view.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

// contentHeight is what is left below the header and command bar.
func (m Model) contentHeight() int {
	return max(m.height-2, 3)
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewDashboard:
		return m.renderDashboard()
	case ViewDetail:
		return m.renderDetail()
	case ViewLeads:
		return m.renderLeads()
	case ViewCompose:
		return m.renderCompose()
	case ViewLogs:
		return m.renderLogs()
	default:
		return ""
	}
}

// clampSelections keeps every cursor inside its list after new data.
func (m *Model) clampSelections() {
	m.dash.selected = clamp(m.dash.selected, len(m.dash.view.View().Mailings))
	if m.leads.view != nil {
		m.leads.selected = clamp(m.leads.selected, len(m.leads.view.View().Leads))
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type flashMsg struct {
	text string
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
