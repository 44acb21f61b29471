package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderTitledBox draws a bordered pane with the title set into the top edge.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColor, bgColor := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColor, bgColor = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := newBgStyle(bgColor)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	width = max(width, 8)
	innerWidth := width - 2
	title = truncate(title, innerWidth-4)
	titleLen := lipgloss.Width(title)
	leftPad := (innerWidth - titleLen - 2) / 2
	rightPad := innerWidth - titleLen - 2 - leftPad

	top := bg.render("┌", borderStyle) +
		bg.render(strings.Repeat("─", leftPad), borderStyle) +
		bg.render(" "+title+" ", titleStyle) +
		bg.render(strings.Repeat("─", rightPad), borderStyle) +
		bg.render("┐", borderStyle)
	bottom := bg.render("└", borderStyle) +
		bg.render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColor))
	lines := strings.Split(content, "\n")
	rows := make([]string, 0, max(height-2, 0))
	for i := 0; i < height-2; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		rows = append(rows, bg.render("│", borderStyle)+contentStyle.Render(line)+bg.render("│", borderStyle))
	}
	return top + "\n" + strings.Join(rows, "\n") + "\n" + bottom
}

// listWindow returns the [start, end) slice of n rows that keeps selected
// visible in a pane of height rows.
func listWindow(n, selected, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := selected - height/2
	start = max(0, min(start, n-height))
	return start, start + height
}

// renderRows joins rows, highlighting selected and scrolling to keep it in
// view.
func (m Model) renderRows(rows []string, selected, width, height int, focused bool) string {
	start, end := listWindow(len(rows), selected, height)
	styles := m.theme.Styles()
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		row := padRight(truncate(rows[i], width), width)
		if i == selected && focused {
			row = styles.Selected.Render(row)
		}
		out = append(out, row)
	}
	return strings.Join(out, "\n")
}
