package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/prefs"
	"github.com/five82/addressable/internal/views"
)

type dashboardState struct {
	view     *views.Dashboard
	selected int
}

// filterCycle is every bucket the f key steps through; empty means all.
func filterCycle() []addressable.MailingStatus {
	return append([]addressable.MailingStatus{""}, addressable.MailingStatuses()...)
}

func nextFilter(current addressable.MailingStatus) addressable.MailingStatus {
	cycle := filterCycle()
	for i, f := range cycle {
		if f == current {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return ""
}

func (m Model) filterLabel() string {
	if f := m.dash.view.Filter(); f != "" {
		return "Filter: " + string(f)
	}
	return "Filter: All"
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	dv := m.dash.view.View()

	if sel, ok := m.moveSelection(msg, m.dash.selected, len(dv.Mailings), m.contentHeight()-8); ok {
		m.dash.selected = sel
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.CycleFilter):
		next := nextFilter(dv.Filter)
		m.dash.view.SetFilter(m.ctx, next)
		m.dash.selected = 0
		_ = prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.StatusFilter = string(next) })
		return m, nil

	case key.Matches(msg, m.keys.Tiles):
		tiles := views.Tiles()
		i := int(msg.String()[0] - '1')
		if i < 0 || i >= len(tiles) {
			return m, nil
		}
		m.dash.view.Tap(m.ctx, tiles[i])
		switch tiles[i] {
		case views.TileCampaigns:
			m.dash.view.SetFilter(m.ctx, "")
			m.dash.selected = 0
		case views.TileCards:
			m.dash.view.SetFilter(m.ctx, addressable.StatusMailed)
			m.dash.selected = 0
		default:
			m.currentView = ViewLeads
		}
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		if len(dv.Mailings) == 0 {
			return m, nil
		}
		return m.openDetail(dv.Mailings[clamp(m.dash.selected, len(dv.Mailings))].ID)
	}
	return m, nil
}

func (m Model) renderDashboard() string {
	dv := m.dash.view.View()
	height := m.contentHeight()
	styles := m.theme.Styles()

	tileWidth := max((m.width-3)/4, 12)
	tiles := make([]string, 0, 4)
	for i, t := range views.Tiles() {
		value := styles.Text.Bold(true).Render(fmt.Sprintf("%d", t.Value(dv.Counts)))
		if dv.Loading {
			value = styles.FaintText.Render("...")
		}
		tiles = append(tiles, m.renderTitledBox(fmt.Sprintf("%d %s", i+1, t), " "+value, tileWidth, 3, false))
	}
	tileRow := lipgloss.JoinHorizontal(lipgloss.Top, tiles...)

	banner := ""
	if n := len(dv.Untagged); n > 0 {
		banner = styles.WarningText.Render(fmt.Sprintf(" %d incoming %s to tag · press i", n, plural(n, "lead", "leads")))
	} else if dv.Offline {
		banner = styles.DangerText.Render(" Offline: showing the last data received")
	}

	listHeight := height - lipgloss.Height(tileRow) - 1
	innerWidth := max(m.width-2, 10)
	var body string
	switch {
	case dv.Loading:
		body = styles.MutedText.Render("Loading campaigns...")
	case len(dv.Mailings) == 0:
		body = styles.MutedText.Render("No mailings. Press n to start a radius mailing.")
	default:
		rows := make([]string, len(dv.Mailings))
		for i, ml := range dv.Mailings {
			rows[i] = mailingRow(ml)
		}
		body = m.renderRows(rows, m.dash.selected, innerWidth, listHeight-2, true)
	}
	title := fmt.Sprintf("Mailings (%d) · %s", len(dv.Mailings), m.filterLabel())
	list := m.renderTitledBox(title, body, m.width, listHeight, true)

	return strings.Join([]string{tileRow, banner, list}, "\n")
}

func mailingRow(ml addressable.Mailing) string {
	drop := "no drop date"
	if d, ok := ml.DropDate(); ok {
		drop = "drop " + addressable.FormatDropDate(d)
	}
	name := ml.Name
	if touch := views.TouchLabel(ml); touch != "" {
		name += " · " + touch
	}
	return fmt.Sprintf(" %-32s %-11s %6d recipients  %s",
		truncate(name, 32), string(ml.Status()), ml.ActiveRecipientCount, drop)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
