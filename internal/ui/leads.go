package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/views"
)

type leadsState struct {
	view     *views.Leads
	selected int
}

type leadsMsg struct {
	op  string
	err error
}

func (m Model) selectedLead() (addressable.IncomingLead, bool) {
	if m.leads.view == nil {
		return addressable.IncomingLead{}, false
	}
	ls := m.leads.view.View().Leads
	if len(ls) == 0 {
		return addressable.IncomingLead{}, false
	}
	return ls[clamp(m.leads.selected, len(ls))], true
}

func (m Model) handleLeadsMsg(msg leadsMsg) (tea.Model, tea.Cmd) {
	switch {
	case isDiscarded(msg.err):
	case msg.err != nil:
		m.setFlash(msg.op, msg.err)
	case msg.op != "":
		m.setFlash(msg.op, nil)
	}
	return m, fetchSnapshotCmd(m.store)
}

func (m Model) handleLeadsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := m.leads.view
	if l == nil {
		return m, nil
	}
	lv := l.View()
	if sel, ok := m.moveSelection(msg, m.leads.selected, len(lv.Leads), m.contentHeight()-2); ok {
		m.leads.selected = sel
		return m, nil
	}

	ctx := m.ctx
	switch {
	case key.Matches(msg, m.keys.Escape):
		return m.showDashboard()

	case key.Matches(msg, m.keys.Confirm):
		lead, ok := m.selectedLead()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			_, err := l.OpenThread(ctx, lead.ID)
			return leadsMsg{op: "Load messages", err: err}
		}

	case key.Matches(msg, m.keys.TagLead):
		lead, ok := m.selectedLead()
		if !ok || lv.Busy {
			return m, nil
		}
		m.modal = tagModal{
			lead: lead,
			tag:  addressable.TagFromLead(lead),
			onSave: func(tag addressable.LeadTag) tea.Cmd {
				return func() tea.Msg {
					_, err := l.Tag(ctx, lead, tag)
					return leadsMsg{op: "Tagged " + lead.DisplayName(), err: err}
				}
			},
		}
		return m, nil

	case key.Matches(msg, m.keys.Reply):
		if lv.ThreadID == 0 || lv.Busy {
			m.setFlash("Open a thread with enter first", nil)
			return m, nil
		}
		m.modal = newInputModal("Reply", []string{"Message"}, nil, func(values []string) tea.Cmd {
			return func() tea.Msg {
				_, err := l.Reply(ctx, values[0])
				return leadsMsg{op: "Message sent", err: err}
			}
		}, nil)
		return m, nil
	}
	return m, nil
}

func leadRow(lead addressable.IncomingLead) string {
	interest := addressable.InterestFromScore(lead.QualityScore)
	label := "-"
	if interest != addressable.InterestUnset {
		label = interest.String()
	}
	return fmt.Sprintf(" %-22s %-14s %-8s %s", truncate(lead.DisplayName(), 22), lead.FromNumber, string(lead.Status), label)
}

func (m Model) renderLeads() string {
	styles := m.theme.Styles()
	height := m.contentHeight()
	if m.leads.view == nil {
		return m.renderTitledBox("Incoming Leads", styles.MutedText.Render("Sign in to see leads."), m.width, height, true)
	}
	lv := m.leads.view.View()

	listWidth := m.width
	if lv.ThreadID != 0 {
		listWidth = max(m.width/2, 30)
	}
	var body string
	if len(lv.Leads) == 0 {
		body = styles.MutedText.Render("No incoming leads yet.")
	} else {
		rows := make([]string, len(lv.Leads))
		for i, lead := range lv.Leads {
			rows[i] = leadRow(lead)
		}
		body = m.renderRows(rows, m.leads.selected, listWidth-2, height-2, true)
	}
	title := fmt.Sprintf("Incoming Leads (%d) · %d untagged", len(lv.Leads), lv.Untagged)
	list := m.renderTitledBox(title, body, listWidth, height, lv.ThreadID == 0)
	if lv.ThreadID == 0 {
		return list
	}

	threadWidth := m.width - listWidth
	thread := m.renderTitledBox("Messages", m.renderThread(lv, threadWidth-2, height-2), threadWidth, height, true)
	return lipgloss.JoinHorizontal(lipgloss.Top, list, thread)
}

// renderThread renders the newest messages that fit, oldest first.
func (m Model) renderThread(lv views.LeadsView, width, height int) string {
	styles := m.theme.Styles()
	if len(lv.Thread) == 0 {
		return styles.MutedText.Render("No messages.")
	}
	var lines []string
	for _, msg := range lv.Thread {
		who, style := "You", styles.AccentText
		if msg.IsIncoming {
			who, style = "Lead", styles.InfoText
		}
		stamp := ""
		if msg.CreatedAt != nil {
			stamp = " " + *msg.CreatedAt
		}
		lines = append(lines, style.Render(who)+styles.FaintText.Render(stamp))
		wrapped := lipgloss.NewStyle().Width(max(width-2, 10)).Render(msg.Body)
		for _, l := range strings.Split(wrapped, "\n") {
			lines = append(lines, " "+styles.Text.Render(l))
		}
	}
	if lv.Busy {
		lines = append(lines, styles.WarningText.Render("Sending..."))
	}
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return strings.Join(lines, "\n")
}
