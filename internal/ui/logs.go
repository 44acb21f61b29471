package ui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/addressable/internal/logtail"
)

const logTailLines = 400

type logState struct {
	entries   []logtail.Entry
	follow    bool
	level     slog.Level
	query     string
	searching bool
	search    textinput.Model
	viewport  viewport.Model
	err       error
}

func newLogState() logState {
	search := textinput.New()
	search.Placeholder = "filter"
	search.CharLimit = 120
	search.Width = 30
	return logState{
		follow:   true,
		level:    slog.LevelDebug,
		search:   search,
		viewport: viewport.New(80, 20),
	}
}

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

func (m Model) logPath() string {
	if m.config == nil {
		return ""
	}
	return m.config.LogFile
}

func (m Model) refreshLogs() tea.Cmd {
	path := m.logPath()
	return func() tea.Msg {
		if path == "" {
			return logsMsg{}
		}
		entries, err := logtail.Tail(path, logTailLines)
		return logsMsg{entries: entries, err: err}
	}
}

func (m *Model) handleLogs(msg logsMsg) {
	m.logs.err = msg.err
	if msg.err == nil {
		m.logs.entries = msg.entries
	}
	m.syncLogViewport()
}

func (m *Model) resizeLogs() {
	m.logs.viewport.Width = max(m.width-2, 10)
	m.logs.viewport.Height = max(m.contentHeight()-2, 1)
	m.syncLogViewport()
}

// syncLogViewport re-renders the filtered entries into the viewport.
func (m *Model) syncLogViewport() {
	shown := logtail.Filter(m.logs.entries, m.logs.level, m.logs.query)
	lines := make([]string, len(shown))
	for i, e := range shown {
		lines[i] = m.formatLogEntry(e)
	}
	m.logs.viewport.SetContent(strings.Join(lines, "\n"))
	if m.logs.follow {
		m.logs.viewport.GotoBottom()
	}
}

func nextLevel(l slog.Level) slog.Level {
	switch {
	case l < slog.LevelInfo:
		return slog.LevelInfo
	case l < slog.LevelWarn:
		return slog.LevelWarn
	case l < slog.LevelError:
		return slog.LevelError
	}
	return slog.LevelDebug
}

func (m Model) formatLogEntry(e logtail.Entry) string {
	styles := m.theme.Styles()
	level := styles.MutedText
	switch {
	case e.Level >= slog.LevelError:
		level = styles.DangerText
	case e.Level >= slog.LevelWarn:
		level = styles.WarningText
	case e.Level >= slog.LevelInfo:
		level = styles.InfoText
	}
	ts := ""
	if !e.Time.IsZero() {
		ts = styles.FaintText.Render(e.Time.Local().Format("15:04:05")) + " "
	}
	var attrs strings.Builder
	for _, a := range e.Attrs {
		fmt.Fprintf(&attrs, " %s%s", styles.MutedText.Render(a.Key+"="), styles.Text.Render(a.Value))
	}
	return ts + level.Render(padRight(e.Level.String(), 5)) + " " + styles.Text.Render(e.Message) + attrs.String()
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		return m.showDashboard()
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logs.follow = !m.logs.follow
		if m.logs.follow {
			m.logs.viewport.GotoBottom()
			return m, m.refreshLogs()
		}
		return m, nil
	case key.Matches(msg, m.keys.CycleLevel):
		m.logs.level = nextLevel(m.logs.level)
		m.syncLogViewport()
		return m, nil
	case key.Matches(msg, m.keys.Search):
		m.logs.searching = true
		m.logs.search.SetValue(m.logs.query)
		m.logs.search.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Top):
		m.logs.follow = false
		m.logs.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logs.viewport.GotoBottom()
		return m, nil
	}

	if key.Matches(msg, m.keys.Up, m.keys.PageUp) {
		m.logs.follow = false
	}
	var cmd tea.Cmd
	m.logs.viewport, cmd = m.logs.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleLogSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.logs.query = strings.TrimSpace(m.logs.search.Value())
		m.logs.searching = false
		m.logs.search.Blur()
		m.syncLogViewport()
		return m, nil
	case "esc":
		m.logs.searching = false
		m.logs.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.logs.search, cmd = m.logs.search.Update(msg)
	return m, cmd
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	height := m.contentHeight()

	title := "Logs · " + m.logs.level.String() + "+"
	if m.logs.query != "" {
		title += fmt.Sprintf(" · %q", m.logs.query)
	}
	if !m.logs.follow {
		title += " · paused"
	}

	var body string
	switch {
	case m.logPath() == "":
		body = styles.MutedText.Render("Logging to a file is disabled.")
	case m.logs.err != nil:
		body = styles.DangerText.Render("Read " + m.logPath() + ": " + m.logs.err.Error())
	case len(m.logs.entries) == 0:
		body = styles.MutedText.Render("No log entries yet in " + m.logPath())
	default:
		body = m.logs.viewport.View()
	}

	if m.logs.searching {
		boxHeight := max(height-1, 3)
		return m.renderTitledBox(title, body, m.width, boxHeight, true) + "\n" +
			lipgloss.NewStyle().Width(m.width).Render(styles.AccentText.Render("/")+m.logs.search.View())
	}
	return m.renderTitledBox(title, body, m.width, height, true)
}
