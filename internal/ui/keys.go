package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	Escape     key.Binding
	Refresh    key.Binding
	Logout     key.Binding

	// View switching
	ViewDashboard key.Binding
	ViewLeads     key.Binding
	ViewLogs      key.Binding
	NewMailing    key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Confirm  key.Binding

	// Dashboard
	CycleFilter key.Binding
	Tiles       key.Binding

	// Mailing detail
	PrevTab    key.Binding
	NextTab    key.Binding
	Settings   key.Binding
	Membership key.Binding
	RemoveOut  key.Binding

	// Leads
	TagLead key.Binding
	Reply   key.Binding

	// Compose
	UseNote  key.Binding
	EditDate key.Binding
	BuyMore  key.Binding

	// Logs
	ToggleFollow key.Binding
	CycleLevel   key.Binding
	Search       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Cycle views"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh now"),
		),
		Logout: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "Sign out"),
		),

		ViewDashboard: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Dashboard"),
		),
		ViewLeads: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Incoming leads"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Logs"),
		),
		NewMailing: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "New radius mailing"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("ctrl+u", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("ctrl+d", "Page down"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open / Next"),
		),

		CycleFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Cycle status filter"),
		),
		Tiles: key.NewBinding(
			key.WithKeys("1", "2", "3", "4"),
			key.WithHelp("1-4", "Campaigns/Cards/Calls/Texts"),
		),

		PrevTab: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Previous recipient tab"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Next recipient tab"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Mailing action"),
		),
		Membership: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add/remove recipient"),
		),
		RemoveOut: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Remove permanently"),
		),

		TagLead: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Tag lead"),
		),
		Reply: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Reply by text"),
		),

		UseNote: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Use a saved note"),
		),
		EditDate: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "Edit drop date"),
		),
		BuyMore: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Buy tokens"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),
		CycleLevel: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Cycle minimum level"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Filter logs"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ViewDashboard, k.ViewLeads, k.ViewLogs, k.NewMailing, k.Escape},
		{k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown, k.Confirm},
		{k.CycleFilter, k.Tiles},
		{k.PrevTab, k.NextTab, k.Settings, k.Membership, k.RemoveOut},
		{k.TagLead, k.Reply},
		{k.UseNote, k.EditDate, k.BuyMore},
		{k.ToggleFollow, k.CycleLevel, k.Search},
		{k.Refresh, k.CycleTheme, k.Logout, k.Help, k.Quit},
	}
}
