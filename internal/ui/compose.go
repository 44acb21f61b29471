package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/compose"
	"github.com/five82/addressable/internal/views"
)

type composeState struct {
	wizard   *compose.Wizard
	selected int // cursor over covers or topics
	note     int // next saved note template to offer
}

type composeMsg struct {
	op      string
	outcome compose.Outcome
	err     error
}

func isDiscarded(err error) bool {
	return errors.Is(err, views.ErrDiscarded) ||
		errors.Is(err, compose.ErrDiscarded) ||
		errors.Is(err, context.Canceled)
}

func (m *Model) closeCompose() {
	if m.compose.wizard != nil {
		m.compose.wizard.Close()
	}
	m.compose = composeState{}
}

// openCompose starts the wizard; id zero composes a new mailing, otherwise
// the mailing resumes at the step its state implies.
func (m Model) openCompose(id int) (tea.Model, tea.Cmd) {
	if m.api == nil {
		return m, nil
	}
	m.closeDetail()
	m.closeCompose()

	accountID := 0
	if m.user != nil && m.user.AccountID != nil {
		accountID = *m.user.AccountID
	}
	w, err := compose.New(compose.Options{
		API:       m.api,
		Analytics: m.sink,
		Metrics:   m.metrics,
		Logger:    m.log,
		AccountID: accountID,
	})
	if err != nil {
		m.setFlash("Compose", err)
		return m, nil
	}
	m.compose.wizard = w
	m.currentView = ViewCompose
	ctx := m.ctx
	return m, func() tea.Msg {
		return composeMsg{op: "Load", err: w.Load(ctx, id)}
	}
}

func (m Model) advanceCmd() tea.Cmd {
	w, ctx := m.compose.wizard, m.ctx
	return func() tea.Msg {
		out, err := w.Advance(ctx)
		return composeMsg{op: "Save", outcome: out, err: err}
	}
}

func (m Model) handleComposeMsg(msg composeMsg) (tea.Model, tea.Cmd) {
	w := m.compose.wizard
	if w == nil || isDiscarded(msg.err) {
		return m, nil
	}
	switch msg.outcome {
	case compose.ExitToDashboard:
		next, cmd := m.showDashboard()
		return next, tea.Batch(cmd, m.refreshCmd())
	case compose.Moved:
		m.compose.selected = 0
	}
	switch {
	case errors.Is(msg.err, compose.ErrIncomplete):
		m.setFlash("Finish this step first", nil)
	case errors.Is(msg.err, compose.ErrBusy):
	case msg.err != nil && msg.op == "Load":
		m.setFlash("Load options", msg.err)
	}
	return m.showComposeAlert()
}

// showComposeAlert raises the wizard's pending alert as a modal.
func (m Model) showComposeAlert() (tea.Model, tea.Cmd) {
	w := m.compose.wizard
	st := w.State()
	if st.Alert == compose.AlertNone || m.modal != nil {
		return m, nil
	}
	ctx := m.ctx
	orders := m.tokenOrdersURL()
	m.modal = alertModal{
		title:   st.Alert.Title(),
		message: st.Alert.Message(),
		action:  st.Alert.Action(),
		onAction: func() tea.Cmd {
			id := w.BuyMore(ctx)
			if id == 0 || orders == nil {
				return func() tea.Msg { return flashMsg{text: "No account to buy tokens for"} }
			}
			return func() tea.Msg { return flashMsg{text: "Buy tokens at " + orders(id)} }
		},
		onClose: func() tea.Cmd {
			w.DismissAlert()
			return nil
		},
	}
	return m, nil
}

func (m Model) composeCommands() []command {
	if m.compose.wizard == nil {
		return nil
	}
	st := m.compose.wizard.State()
	var cmds []command
	switch st.Step {
	case compose.StepSelectLocation:
		cmds = append(cmds, command{"c", "Change location"})
	case compose.StepSelectCard:
		cmds = append(cmds, command{"j/k", "Choose"})
	case compose.StepChooseTopic:
		cmds = append(cmds, command{"j/k", "Choose"})
		if st.TopicID != 0 && len(st.Templates) > 0 {
			cmds = append(cmds, command{"u", "Use saved note"})
		}
	case compose.StepAudienceProcessing:
		cmds = append(cmds, command{"r", "Refresh"})
	case compose.StepConfirmSend:
		cmds = append(cmds, command{"D", "Drop date"})
		if !st.CanAfford {
			cmds = append(cmds, command{"b", "Buy tokens"})
		}
	}
	if st.NextEnabled {
		cmds = append(cmds, command{"enter", st.NextLabel})
	}
	if st.BackVisible {
		cmds = append(cmds, command{"esc", st.BackLabel})
	}
	return append(cmds, command{"?", "More"})
}

func (m Model) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	w := m.compose.wizard
	if w == nil {
		return m.showDashboard()
	}
	st := w.State()
	if st.Busy || st.Loading {
		return m, nil
	}
	ctx := m.ctx

	switch st.Step {
	case compose.StepSelectCard:
		if sel, ok := m.moveSelection(msg, m.compose.selected, len(st.Covers), 5); ok {
			m.compose.selected = sel
			return m, nil
		}
	case compose.StepChooseTopic:
		if sel, ok := m.moveSelection(msg, m.compose.selected, len(st.Topics), 5); ok {
			m.compose.selected = sel
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		switch w.Back(ctx) {
		case compose.ExitToDashboard:
			return m.showDashboard()
		case compose.Moved:
			m.compose.selected = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, func() tea.Msg { return composeMsg{op: "Refresh", err: w.Refresh(ctx)} }

	case key.Matches(msg, m.keys.BuyMore) && st.Step == compose.StepConfirmSend && !st.CanAfford:
		id := w.BuyMore(ctx)
		if orders := m.tokenOrdersURL(); orders != nil && id != 0 {
			m.setFlash("Buy tokens at "+orders(id), nil)
		}
		return m, nil

	case key.Matches(msg, m.keys.EditDate) && st.Step == compose.StepConfirmSend:
		return m.openDateModal(st)

	case msg.String() == "c" && st.Step == compose.StepSelectLocation:
		return m.openLocationModal(st.Location)

	case key.Matches(msg, m.keys.UseNote) && st.Step == compose.StepChooseTopic:
		return m.useNextNote(st)

	case key.Matches(msg, m.keys.Confirm):
		return m.composeConfirm(st)
	}
	return m, nil
}

// composeConfirm applies the cursor choice of the current step and advances.
func (m Model) composeConfirm(st compose.State) (tea.Model, tea.Cmd) {
	w := m.compose.wizard
	switch st.Step {
	case compose.StepSelectLocation:
		if st.Location.IsEmpty() {
			return m.openLocationModal(st.Location)
		}

	case compose.StepSelectCard:
		if len(st.Covers) == 0 {
			return m, nil
		}
		if err := w.SelectCover(st.Covers[clamp(m.compose.selected, len(st.Covers))].ID); err != nil {
			m.setFlash("Choose card", err)
			return m, nil
		}

	case compose.StepChooseTopic:
		if len(st.Topics) == 0 {
			return m, nil
		}
		topic := st.Topics[clamp(m.compose.selected, len(st.Topics))]
		if topic.ID != st.TopicID {
			if err := w.SelectTopic(m.ctx, topic.ID); err != nil {
				m.setFlash("Choose topic", err)
				return m, nil
			}
			st = w.State()
		}
		if missing := missingMergeVars(st); len(missing) > 0 {
			return m.openMergeVarModal(missing)
		}
	}
	return m, m.advanceCmd()
}

// useNextNote puts the next saved message template on touch one. Its merge
// variables are asked for when the step is confirmed.
func (m Model) useNextNote(st compose.State) (tea.Model, tea.Cmd) {
	if st.TopicID == 0 || len(st.Templates) == 0 {
		return m, nil
	}
	tmpl := st.Templates[m.compose.note%len(st.Templates)]
	m.compose.note++
	if err := m.compose.wizard.UseTemplate(m.ctx, 1, tmpl.ID); err != nil {
		m.setFlash("Use saved note", err)
		return m, nil
	}
	m.setFlash("Touch 1 note: "+tmpl.Title, nil)
	return m, nil
}

type mergeVar struct {
	touch int
	name  string
}

func missingMergeVars(st compose.State) []mergeVar {
	var out []mergeVar
	for n, t := range []compose.Touch{st.TouchOne, st.TouchTwo} {
		for _, name := range t.VarNames() {
			if t.MergeVars[name] == "" {
				out = append(out, mergeVar{touch: n + 1, name: name})
			}
		}
	}
	return out
}

func (m Model) openMergeVarModal(vars []mergeVar) (tea.Model, tea.Cmd) {
	w := m.compose.wizard
	labels := make([]string, len(vars))
	for i, v := range vars {
		labels[i] = fmt.Sprintf("Touch %d · %s", v.touch, titleCase(v.name))
	}
	advance := m.advanceCmd()
	m.modal = newInputModal("Fill in your note", labels, nil, func(values []string) tea.Cmd {
		for i, v := range vars {
			if err := w.SetMergeVar(v.touch, v.name, values[i]); err != nil {
				return func() tea.Msg { return flashMsg{text: "Merge variable", err: err} }
			}
		}
		return advance
	}, nil)
	return m, nil
}

func (m Model) openLocationModal(loc addressable.Location) (tea.Model, tea.Cmd) {
	w, ctx := m.compose.wizard, m.ctx
	advance := m.advanceCmd()
	labels := []string{"Address", "Address line 2", "City", "State", "Zip code"}
	values := []string{loc.AddressLine1, loc.AddressLine2, loc.City, loc.State, loc.Zipcode}
	m.modal = newInputModal("Location of Sale", labels, values, func(v []string) tea.Cmd {
		next := addressable.Location{
			AddressLine1: v[0],
			AddressLine2: v[1],
			City:         v[2],
			State:        strings.ToUpper(v[3]),
			Zipcode:      v[4],
			Latitude:     loc.Latitude,
			Longitude:    loc.Longitude,
		}
		if err := w.SetLocation(ctx, next); err != nil {
			return func() tea.Msg { return flashMsg{text: "Location", err: err} }
		}
		if next.IsEmpty() {
			return nil
		}
		return advance
	}, nil)
	return m, nil
}

func (m Model) openDateModal(st compose.State) (tea.Model, tea.Cmd) {
	w, ctx := m.compose.wizard, m.ctx
	current := ""
	if st.TargetDate != nil {
		current = addressable.FormatDropDate(*st.TargetDate)
	}
	w.BeginDateEdit()
	m.modal = newInputModal("Target drop date", []string{"Date (yyyy-mm-dd)"}, []string{current},
		func(v []string) tea.Cmd {
			date, err := addressable.ParseDropDate(v[0])
			if err != nil {
				w.CancelDateEdit()
				return func() tea.Msg { return flashMsg{text: "Drop date", err: err} }
			}
			w.EndDateEdit(ctx, date)
			return nil
		},
		func() tea.Cmd {
			w.CancelDateEdit()
			return nil
		})
	return m, nil
}

func (m Model) renderCompose() string {
	w := m.compose.wizard
	if w == nil {
		return ""
	}
	st := w.State()
	styles := m.theme.Styles()
	height := m.contentHeight()
	title := fmt.Sprintf("Step %d of %d · %s", st.Step.Number(), len(compose.Steps()), st.Title)

	var b strings.Builder
	switch {
	case st.Loading:
		b.WriteString(styles.MutedText.Render("Loading..."))
	case st.Busy:
		b.WriteString(styles.WarningText.Render("Saving..."))
	default:
		b.WriteString(m.renderComposeStep(st, max(m.width-4, 10), height-6))
	}

	b.WriteString("\n\n")
	next := styles.FaintText.Render("[" + st.NextLabel + "]")
	if st.NextEnabled {
		next = styles.AccentText.Bold(true).Render("enter " + st.NextLabel)
	}
	b.WriteString(next)
	if st.BackVisible {
		b.WriteString("   " + styles.MutedText.Render("esc "+st.BackLabel))
	}
	if st.Err != nil && st.Alert == compose.AlertNone {
		b.WriteString("\n" + styles.DangerText.Render(errorText(st.Err)))
	}
	return m.renderTitledBox(title, b.String(), m.width, height, true)
}

func (m Model) renderComposeStep(st compose.State, width, height int) string {
	styles := m.theme.Styles()
	var b strings.Builder
	switch st.Step {
	case compose.StepSelectLocation:
		b.WriteString(styles.MutedText.Render("Where was the sale? Neighbors around it receive the card."))
		b.WriteString("\n\n")
		if st.Location.IsEmpty() {
			b.WriteString(styles.FaintText.Render("No location yet. Press c or enter to add one."))
		} else {
			b.WriteString(styles.Text.Render(formatLocation(st.Location)))
		}

	case compose.StepSelectCard:
		if len(st.Covers) == 0 {
			return styles.MutedText.Render("No cards available.")
		}
		rows := make([]string, len(st.Covers))
		for i, c := range st.Covers {
			mark := "  "
			if c.ID == st.CoverID {
				mark = "✓ "
			}
			rows[i] = mark + valueOr(c.Name, fmt.Sprintf("Card %d", c.ID))
		}
		b.WriteString(m.renderRows(rows, m.compose.selected, width, height, true))

	case compose.StepChooseTopic:
		if len(st.Topics) == 0 {
			return styles.MutedText.Render("No campaign types available.")
		}
		rows := make([]string, len(st.Topics))
		for i, t := range st.Topics {
			mark := "  "
			if t.ID == st.TopicID {
				mark = "✓ "
			}
			rows[i] = mark + t.Name
		}
		listHeight := min(len(rows), max(height/2, 3))
		b.WriteString(m.renderRows(rows, m.compose.selected, width, listHeight, true))
		if st.TopicID != 0 {
			for n, t := range []compose.Touch{st.TouchOne, st.TouchTwo} {
				fmt.Fprintf(&b, "\n\n%s\n%s", styles.AccentText.Render(fmt.Sprintf("Touch %d", n+1)),
					styles.Text.Render(truncate(renderNote(t), width*2)))
			}
		}

	case compose.StepAudienceProcessing:
		b.WriteString(styles.Text.Render("We are building your audience. This can take a few minutes."))
		if st.Mailing != nil {
			fmt.Fprintf(&b, "\n\n%s %s", styles.MutedText.Render("List status"), styles.InfoText.Render(string(st.Mailing.List())))
		}
		b.WriteString("\n" + styles.FaintText.Render("Press r to check again, or finish and come back later."))

	case compose.StepConfirmAudience:
		if st.Mailing != nil {
			fmt.Fprintf(&b, "%s %d\n", styles.MutedText.Render("Recipients"), st.Mailing.ActiveRecipientCount)
			fmt.Fprintf(&b, "%s %s", styles.MutedText.Render("Near"), formatLocation(st.Location))
		}

	case compose.StepConfirmSend:
		date := "not set"
		if st.TargetDate != nil {
			date = addressable.FormatDropDate(*st.TargetDate)
		}
		if st.EditingDate {
			date += " (editing)"
		}
		fmt.Fprintf(&b, "%s %s\n", styles.MutedText.Render("Drop date "), styles.Text.Render(date))
		if st.Mailing != nil {
			fmt.Fprintf(&b, "%s %d\n", styles.MutedText.Render("Recipients"), st.Mailing.ActiveRecipientCount)
		}
		if st.Account != nil {
			balance := styles.SuccessText.Render(fmt.Sprintf("%d", st.Account.RadiusTokens()))
			if !st.CanAfford {
				balance = styles.DangerText.Render(fmt.Sprintf("%d (not enough)", st.Account.RadiusTokens()))
			}
			fmt.Fprintf(&b, "%s %s", styles.MutedText.Render("Tokens    "), balance)
		}

	case compose.StepRadiusSent:
		b.WriteString(styles.SuccessText.Render("Your radius mailing is on its way."))
	}
	return b.String()
}

// renderNote fills the merge variables of a touch into its body.
func renderNote(t compose.Touch) string {
	body := t.Body
	for _, name := range t.VarNames() {
		value := t.MergeVars[name]
		if value == "" {
			value = "[" + name + "]"
		}
		body = strings.ReplaceAll(body, "{{"+name+"}}", value)
	}
	return body
}

func formatLocation(l addressable.Location) string {
	var parts []string
	for _, p := range []string{l.AddressLine1, l.AddressLine2, l.City, strings.TrimSpace(l.State + " " + l.Zipcode)} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

func valueOr(p *string, fallback string) string {
	if p == nil || *p == "" {
		return fallback
	}
	return *p
}
