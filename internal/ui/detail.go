package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/views"
)

type detailState struct {
	view     *views.MailingDetail
	selected int
}

type detailLoadedMsg struct{ err error }

type detailActionMsg struct {
	op     string
	result views.ActionResult
	err    error
}

func (m *Model) closeDetail() {
	if m.detail.view != nil {
		m.detail.view.Close()
	}
	m.detail = detailState{}
}

func (m Model) tokenOrdersURL() func(int) string {
	if m.config == nil {
		return nil
	}
	return m.config.TokenOrdersURL
}

// openDetail shows the mailing with id and starts loading it.
func (m Model) openDetail(id int) (tea.Model, tea.Cmd) {
	if m.api == nil {
		return m, nil
	}
	m.closeDetail()
	d, err := views.NewMailingDetail(views.DetailOptions{
		API:            m.api,
		Store:          m.store,
		Analytics:      m.sink,
		Logger:         m.log,
		TokenOrdersURL: m.tokenOrdersURL(),
	})
	if err != nil {
		m.setFlash("Open mailing", err)
		return m, nil
	}
	m.detail.view = d
	m.currentView = ViewDetail
	ctx := m.ctx
	return m, func() tea.Msg { return detailLoadedMsg{err: d.Load(ctx, id)} }
}

func (m Model) handleDetailMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case detailLoadedMsg:
		if msg.err != nil && !isDiscarded(msg.err) {
			m.setFlash("Load mailing", msg.err)
		}
		return m, nil

	case detailActionMsg:
		if isDiscarded(msg.err) {
			return m, nil
		}
		if msg.err != nil {
			m.setFlash(msg.op, msg.err)
			return m, nil
		}
		switch msg.result.Effect {
		case views.EffectOpenCompose:
			return m.openCompose(msg.result.MailingID)
		case views.EffectOpenURL:
			m.setFlash("Buy tokens at "+msg.result.URL, nil)
		default:
			m.setFlash(msg.op+" done", nil)
		}
		return m, m.refreshCmd()
	}
	return m, nil
}

func (m Model) selectedRecipient() (addressable.Recipient, bool) {
	if m.detail.view == nil {
		return addressable.Recipient{}, false
	}
	rs := m.detail.view.View().Recipients
	if len(rs) == 0 {
		return addressable.Recipient{}, false
	}
	return rs[clamp(m.detail.selected, len(rs))], true
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.detail.view == nil {
		return m.showDashboard()
	}
	d := m.detail.view
	dv := d.View()

	if sel, ok := m.moveSelection(msg, m.detail.selected, len(dv.Recipients), m.contentHeight()-10); ok {
		m.detail.selected = sel
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		return m.showDashboard()

	case key.Matches(msg, m.keys.PrevTab), key.Matches(msg, m.keys.NextTab):
		tabs := addressable.RecipientTabs()
		delta := 1
		if key.Matches(msg, m.keys.PrevTab) {
			delta = len(tabs) - 1
		}
		d.SetTab(m.ctx, tabs[(int(dv.Tab)+delta)%len(tabs)])
		m.detail.selected = 0
		return m, nil

	case key.Matches(msg, m.keys.Settings):
		if dv.Action == addressable.ActionNone || dv.Mailing == nil || dv.Busy {
			return m, nil
		}
		action, label, ctx := dv.Action, dv.ActionLabel, m.ctx
		run := func() tea.Cmd {
			return func() tea.Msg {
				res, err := d.Perform(ctx, action)
				return detailActionMsg{op: label, result: res, err: err}
			}
		}
		if action == addressable.ActionRevert || action == addressable.ActionCancel {
			m.modal = confirmModal{
				title:     label + "?",
				body:      fmt.Sprintf("%s %q.", label, dv.Mailing.Name),
				onConfirm: run,
			}
			return m, nil
		}
		return m, run()

	case key.Matches(msg, m.keys.Membership):
		r, ok := m.selectedRecipient()
		if !ok || dv.Busy {
			return m, nil
		}
		next := addressable.MembershipMember
		op := "Add recipient"
		if r.ListMembership == addressable.MembershipMember {
			next = addressable.MembershipRemoved
			op = "Remove recipient"
		}
		ctx := m.ctx
		return m, func() tea.Msg {
			return detailActionMsg{op: op, err: d.SetMembership(ctx, r.ID, next)}
		}

	case key.Matches(msg, m.keys.RemoveOut):
		r, ok := m.selectedRecipient()
		if !ok || dv.Busy {
			return m, nil
		}
		ctx := m.ctx
		m.modal = confirmModal{
			title: "Remove permanently?",
			body:  r.FullName + " will not receive any future mailings.",
			onConfirm: func() tea.Cmd {
				return func() tea.Msg {
					return detailActionMsg{op: "Remove permanently", err: d.RemovePermanently(ctx, r.ID)}
				}
			},
		}
		return m, nil
	}
	return m, nil
}

func (m Model) renderDetail() string {
	if m.detail.view == nil {
		return ""
	}
	dv := m.detail.view.View()
	styles := m.theme.Styles()
	height := m.contentHeight()

	if dv.Mailing == nil {
		body := styles.MutedText.Render("Loading mailing...")
		if dv.Err != nil {
			body = styles.DangerText.Render(errorText(dv.Err))
		}
		return m.renderTitledBox("Mailing", body, m.width, height, true)
	}
	ml := *dv.Mailing

	var info strings.Builder
	line := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&info, " %s %s\n", styles.MutedText.Render(padRight(label, 12)), styles.Text.Render(value))
	}
	line("Status", string(ml.Status())+" ("+string(ml.MailingStatus)+")")
	line("Touch", dv.TouchLabel)
	line("Recipients", fmt.Sprintf("%d active of %d", ml.ActiveRecipientCount, ml.ListCount))
	if date, ok := ml.DropDate(); ok {
		line("Drop date", addressable.FormatDropDate(date))
	}
	line("Site", ml.SiteAddress())
	if ra := dv.ReturnAddress; ra != nil {
		line("From", strings.TrimSpace(strings.Join([]string{ra.FromFirstName, ra.FromLastName, ra.FromBusinessName}, " ")))
	}
	if dv.ActionLabel != "" {
		line("Action", "s "+dv.ActionLabel)
	}
	if dv.Busy {
		info.WriteString(" " + styles.WarningText.Render("Working...") + "\n")
	}
	infoText := strings.TrimRight(info.String(), "\n")
	infoBox := m.renderTitledBox(ml.Name, infoText, m.width, strings.Count(infoText, "\n")+3, false)

	var tabs []string
	for _, tab := range addressable.RecipientTabs() {
		label := fmt.Sprintf(" %s %d ", tab, dv.TabCounts[tab])
		if tab == dv.Tab {
			tabs = append(tabs, styles.Selected.Render(label))
		} else {
			tabs = append(tabs, styles.MutedText.Render(label))
		}
	}
	tabBar := strings.Join(tabs, " ")

	listHeight := max(height-(strings.Count(infoText, "\n")+3)-1, 3)
	innerWidth := max(m.width-2, 10)
	var body string
	switch {
	case dv.Loading && len(dv.Recipients) == 0:
		body = styles.MutedText.Render("Loading recipients...")
	case len(dv.Recipients) == 0:
		body = styles.MutedText.Render("No recipients on this tab.")
	default:
		rows := make([]string, len(dv.Recipients))
		for i, r := range dv.Recipients {
			rows[i] = fmt.Sprintf(" %-24s %-9s %s", truncate(r.FullName, 24), string(r.ListMembership), r.SiteAddress)
		}
		body = m.renderRows(rows, m.detail.selected, innerWidth, listHeight-2, true)
	}
	list := m.renderTitledBox("Recipients", body, m.width, listHeight, true)

	return strings.Join([]string{infoBox, tabBar, list}, "\n")
}
