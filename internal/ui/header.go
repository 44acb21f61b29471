package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar: logo, user, data freshness and the
// last action result.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)
	compact := m.width < 100

	parts := []string{bg.render("addressable", styles.Logo)}

	if m.user != nil {
		name := fullName(m.user.FirstName, m.user.LastName)
		if name == "" && m.user.Email != nil {
			name = *m.user.Email
		}
		if name != "" {
			parts = append(parts, bg.render(truncate(name, 24), styles.Text))
		}
	}

	snap := m.snapshot
	switch {
	case !snap.HasData && snap.LastError == nil:
		parts = append(parts, bg.render("Loading campaigns...", styles.WarningText.Bold(true)))
	case snap.IsOffline():
		parts = append(parts,
			bg.render("● OFFLINE", styles.DangerText),
			bg.render(errorText(snap.LastError), styles.DangerText),
			bg.render("Retrying...", styles.WarningText.Bold(true)),
		)
	case snap.LastError != nil:
		parts = append(parts, bg.render("● STALE", styles.WarningText.Bold(true)))
	default:
		parts = append(parts, bg.render("● ONLINE", styles.SuccessText))
	}

	if snap.HasData {
		c := snap.Counts()
		if c.Untagged > 0 {
			label := fmt.Sprintf("%d untagged", c.Untagged)
			if compact {
				label = fmt.Sprintf("U:%d", c.Untagged)
			}
			parts = append(parts, bg.render(label, styles.WarningText))
		}
	}

	if ts := formatTimestamp(snap.LastUpdated, time.Now()); ts != "" {
		parts = append(parts, bg.render(ts, styles.MutedText))
	}

	if m.flash != "" {
		maxLen := 80
		if compact {
			maxLen = 40
		}
		style := styles.InfoText
		if m.flashIsErr {
			style = styles.DangerText
		}
		parts = append(parts, bg.render(truncate(m.flash, maxLen), style))
	}

	return styles.Header.Width(m.width).Render(bg.join(parts, 2))
}

// formatTimestamp returns "15:04:05 (now)" style text, empty for a zero time.
func formatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	since := now.Sub(t)
	out := t.Format("15:04:05")
	switch {
	case since < time.Minute:
		out += " (now)"
	case since < time.Hour:
		out += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		out += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return out
}

func fullName(first, last *string) string {
	var parts []string
	for _, p := range []*string{first, last} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	return strings.Join(parts, " ")
}

type command struct{ key, desc string }

// commands returns the command bar entries for the active view.
func (m Model) commands() []command {
	switch m.currentView {
	case ViewDetail:
		cmds := []command{{"[/]", "Tab"}, {"a", "Add/Remove"}, {"x", "Remove"}}
		if m.detail.view != nil {
			if label := m.detail.view.View().ActionLabel; label != "" {
				cmds = append(cmds, command{"s", label})
			}
		}
		return append(cmds, command{"esc", "Back"}, command{"?", "More"})
	case ViewLeads:
		return []command{{"j/k", "Navigate"}, {"enter", "Thread"}, {"t", "Tag"}, {"m", "Reply"}, {"d", "Dashboard"}, {"?", "More"}}
	case ViewCompose:
		return m.composeCommands()
	case ViewLogs:
		follow := "Pause"
		if !m.logs.follow {
			follow = "Follow"
		}
		return []command{{"Space", follow}, {"v", "Level " + m.logs.level.String()}, {"/", "Search"}, {"d", "Dashboard"}, {"?", "More"}}
	default:
		return []command{{"f", m.filterLabel()}, {"enter", "Open"}, {"n", "New"}, {"i", "Leads"}, {"l", "Logs"}, {"r", "Refresh"}, {"?", "More"}}
	}
}

// renderCommandBar renders the key hints below the header.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Bold(true)

	cmds := m.commands()
	segments := make([]string, 0, len(cmds))
	for _, c := range cmds {
		segments = append(segments,
			bg.render(c.key, keyStyle)+bg.render(":", styles.FaintText)+bg.render(c.desc, styles.MutedText))
	}
	return styles.Footer.Width(m.width).Render(bg.join(segments, 2))
}
