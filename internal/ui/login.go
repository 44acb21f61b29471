package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/addressable/internal/session"
)

type loginState struct {
	username textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	err      string
}

func newLoginState() loginState {
	user := textinput.New()
	user.Placeholder = "email"
	user.CharLimit = 254
	user.Width = 36
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.CharLimit = 128
	pass.Width = 36
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	return loginState{username: user, password: pass}
}

func (l loginState) focusCmd() tea.Cmd { return textinput.Blink }

func (l *loginState) setFocus(i int) {
	l.focus = i % 2
	if l.focus == 0 {
		l.username.Focus()
		l.password.Blur()
	} else {
		l.password.Focus()
		l.username.Blur()
	}
}

type loginDoneMsg struct {
	session *session.Session
	err     error
}

type logoutDoneMsg struct{ err error }

func loginCmd(ctx context.Context, mgr *session.Manager, username, password string) tea.Cmd {
	return func() tea.Msg {
		if mgr == nil {
			return loginDoneMsg{err: errors.New("no session manager")}
		}
		s, err := mgr.Login(ctx, username, password)
		return loginDoneMsg{session: s, err: err}
	}
}

func logoutCmd(ctx context.Context, mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		if mgr == nil {
			return logoutDoneMsg{}
		}
		return logoutDoneMsg{err: mgr.Logout(ctx)}
	}
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "down", "shift+tab", "up":
		m.login.setFocus(m.login.focus + 1)
		return m, nil
	case "enter":
		if m.login.focus == 0 {
			m.login.setFocus(1)
			return m, nil
		}
		user := strings.TrimSpace(m.login.username.Value())
		pass := m.login.password.Value()
		m.login.busy = true
		m.login.err = ""
		return m, loginCmd(m.ctx, m.session, user, pass)
	}
	return m.updateLoginInputs(msg)
}

func (m Model) updateLoginInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.login.focus == 0 {
		m.login.username, cmd = m.login.username.Update(msg)
	} else {
		m.login.password, cmd = m.login.password.Update(msg)
	}
	return m, cmd
}

func (m Model) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	m.login.busy = false
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, session.ErrEmptyCredentials), errors.Is(msg.err, session.ErrInvalidCredentials):
			m.login.err = msg.err.Error()
		default:
			m.login.err = "Sign in failed: " + errorText(msg.err)
		}
		m.login.password.SetValue("")
		return m, nil
	}

	m.login = newLoginState()
	m.enterSignedIn()
	if msg.session != nil {
		u := msg.session.User
		m.user = &u
	}
	if m.poller != nil {
		m.poller.Start()
	}
	m.setFlash("Signed in", nil)
	return m, fetchSnapshotCmd(m.store)
}

// handleSignedOut returns to the login screen after an explicit sign out or
// a 401 during polling.
func (m Model) handleSignedOut(err error, expired bool) (tea.Model, tea.Cmd) {
	if m.poller != nil {
		m.poller.Stop()
	}
	m.closeDetail()
	m.closeCompose()
	if m.leads.view != nil {
		m.leads.view.Close()
		m.leads = leadsState{}
	}
	m.store.Reset()
	m.snapshot = m.store.Snapshot()
	m.user = nil
	m.currentView = ViewLogin
	m.login = newLoginState()
	switch {
	case err != nil:
		m.login.err = "Sign out: " + errorText(err)
	case expired:
		m.login.err = "Your session has ended. Please sign in again."
	}
	m.flash = ""
	return m, m.login.focusCmd()
}

func (m Model) renderLogin() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Logo.Render("addressable"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("Sign in to manage your mailings"))
	b.WriteString("\n\n")

	label := func(i int, text string) string {
		if m.login.focus == i {
			return styles.AccentText.Render(text)
		}
		return styles.MutedText.Render(text)
	}
	b.WriteString(label(0, "Email"))
	b.WriteString("\n")
	b.WriteString(m.login.username.View())
	b.WriteString("\n\n")
	b.WriteString(label(1, "Password"))
	b.WriteString("\n")
	b.WriteString(m.login.password.View())
	b.WriteString("\n\n")

	switch {
	case m.login.busy:
		b.WriteString(styles.WarningText.Render("Signing in..."))
	case m.login.err != "":
		b.WriteString(styles.DangerText.Render(m.login.err))
	default:
		b.WriteString(styles.FaintText.Render("tab switch field · enter sign in · esc quit"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 3).
		Width(46)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
