package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/addressable/internal/addressable"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

func renderModal(theme Theme, width, height int, title, body, footer string) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(title))
	if body != "" {
		b.WriteString("\n\n")
		b.WriteString(body)
	}
	if footer != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.FaintText.Render(footer))
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(min(60, max(width-4, 20)))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

// confirmModal asks a yes/no question and runs onConfirm on yes.
type confirmModal struct {
	title     string
	body      string
	onConfirm func() tea.Cmd
}

func (c confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(k, keys.Confirm), k.String() == "y":
		return c, c.onConfirm(), true
	case key.Matches(k, keys.Escape), k.String() == "n", k.String() == "q":
		return c, nil, true
	}
	return c, nil, false
}

func (c confirmModal) View(theme Theme, width, height int) string {
	return renderModal(theme, width, height, c.title, c.body, "enter/y confirm · esc/n cancel")
}

// alertModal shows a message with an optional primary action.
type alertModal struct {
	title    string
	message  string
	action   string
	onAction func() tea.Cmd
	onClose  func() tea.Cmd
}

func (a alertModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil, false
	}
	if a.action != "" && key.Matches(k, keys.BuyMore) && a.onAction != nil {
		return a, a.onAction(), true
	}
	if key.Matches(k, keys.Confirm) || key.Matches(k, keys.Escape) {
		var cmd tea.Cmd
		if a.onClose != nil {
			cmd = a.onClose()
		}
		return a, cmd, true
	}
	return a, nil, false
}

func (a alertModal) View(theme Theme, width, height int) string {
	footer := "enter dismiss"
	if a.action != "" {
		footer = fmt.Sprintf("b %s · enter dismiss", a.action)
	}
	return renderModal(theme, width, height, a.title, theme.Styles().Text.Render(a.message), footer)
}

// inputModal collects one or more text fields.
type inputModal struct {
	title    string
	labels   []string
	inputs   []textinput.Model
	focus    int
	onSubmit func(values []string) tea.Cmd
	onCancel func() tea.Cmd
}

// newInputModal builds a form; onCancel may be nil.
func newInputModal(title string, labels, values []string, onSubmit func([]string) tea.Cmd, onCancel func() tea.Cmd) *inputModal {
	inputs := make([]textinput.Model, len(labels))
	for i := range labels {
		ti := textinput.New()
		ti.CharLimit = 320
		ti.Width = 40
		if i < len(values) {
			ti.SetValue(values[i])
		}
		inputs[i] = ti
	}
	if len(inputs) > 0 {
		inputs[0].Focus()
	}
	return &inputModal{title: title, labels: labels, inputs: inputs, onSubmit: onSubmit, onCancel: onCancel}
}

func (im *inputModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			var cmd tea.Cmd
			if im.onCancel != nil {
				cmd = im.onCancel()
			}
			return im, cmd, true
		case "enter":
			if im.focus < len(im.inputs)-1 {
				im.move(1)
				return im, nil, false
			}
			values := make([]string, len(im.inputs))
			for i, in := range im.inputs {
				values[i] = strings.TrimSpace(in.Value())
			}
			return im, im.onSubmit(values), true
		case "tab", "down":
			im.move(1)
			return im, nil, false
		case "shift+tab", "up":
			im.move(-1)
			return im, nil, false
		}
	}
	if len(im.inputs) == 0 {
		return im, nil, false
	}
	var cmd tea.Cmd
	im.inputs[im.focus], cmd = im.inputs[im.focus].Update(msg)
	return im, cmd, false
}

func (im *inputModal) move(delta int) {
	if len(im.inputs) == 0 {
		return
	}
	im.inputs[im.focus].Blur()
	im.focus = (im.focus + delta + len(im.inputs)) % len(im.inputs)
	im.inputs[im.focus].Focus()
}

func (im *inputModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	for i, in := range im.inputs {
		label := styles.MutedText
		if i == im.focus {
			label = styles.AccentText
		}
		b.WriteString(label.Render(im.labels[i]))
		b.WriteString("\n")
		b.WriteString(in.View())
		if i < len(im.inputs)-1 {
			b.WriteString("\n")
		}
	}
	return renderModal(theme, width, height, im.title, b.String(), "tab next field · enter submit · esc cancel")
}

// tagModal edits the three lead tags.
type tagModal struct {
	lead   addressable.IncomingLead
	tag    addressable.LeadTag
	onSave func(addressable.LeadTag) tea.Cmd
}

func (t tagModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil, false
	}
	switch k.String() {
	case "s":
		t.tag.Spam = !t.tag.Spam
	case "1":
		t.tag.Interest = addressable.InterestLow
	case "2":
		t.tag.Interest = addressable.InterestFair
	case "3":
		t.tag.Interest = addressable.InterestLead
	case "r":
		t.tag.Removal = !t.tag.Removal
	case "enter":
		return t, t.onSave(t.tag), true
	case "esc":
		return t, nil, true
	}
	return t, nil, false
}

func (t tagModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	check := func(on bool) string {
		if on {
			return styles.SuccessText.Render("[x]")
		}
		return styles.MutedText.Render("[ ]")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s Spam\n", check(t.tag.Spam))
	b.WriteString("Interest: ")
	for _, i := range []addressable.Interest{addressable.InterestLow, addressable.InterestFair, addressable.InterestLead} {
		label := fmt.Sprintf("%d %s", int(i), i.String())
		if t.tag.Interest == i {
			b.WriteString(styles.Selected.Render(" " + label + " "))
		} else {
			b.WriteString(styles.MutedText.Render(" " + label + " "))
		}
	}
	fmt.Fprintf(&b, "\n%s Remove from future mailings", check(t.tag.Removal))
	return renderModal(theme, width, height, "Tag "+t.lead.DisplayName(), b.String(),
		"s spam · 1-3 interest · r removal · enter save · esc cancel")
}
