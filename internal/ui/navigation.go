package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// moveSelection applies the navigation keys to a cursor over n rows. It
// reports false when msg is not a navigation key.
func (m Model) moveSelection(msg tea.KeyMsg, selected, n, page int) (int, bool) {
	page = max(page, 1)
	switch {
	case key.Matches(msg, m.keys.Up):
		selected--
	case key.Matches(msg, m.keys.Down):
		selected++
	case key.Matches(msg, m.keys.Top):
		selected = 0
	case key.Matches(msg, m.keys.Bottom):
		selected = n - 1
	case key.Matches(msg, m.keys.PageUp):
		selected -= page
	case key.Matches(msg, m.keys.PageDown):
		selected += page
	default:
		return selected, false
	}
	return clamp(selected, n), true
}
