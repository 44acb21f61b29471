// Package ui is the Bubble Tea terminal interface for Addressable.
//
// # Architecture Overview
//
// Model is the single tea.Model. It owns no network code of its own: every
// screen is backed by a view model from internal/views or internal/compose,
// and blocking calls run inside tea.Cmd functions whose results come back as
// messages. The dashboard data is read from state.Store on every tick, which
// the background poller keeps current.
//
// # Package Structure
//
//   - app.go: Model, Options, Init/Update/View and Run
//   - header.go: status bar and command bar
//   - layout.go: titled panes and scrolling rows
//   - login.go: sign in, sign out and session expiry
//   - dashboard.go: count tiles, status filter and the mailing list
//   - detail.go: mailing detail, recipient tabs and the settings action
//   - leads.go: incoming leads, tagging and the text thread
//   - compose.go: the radius mailing wizard, one renderer per step
//   - logs.go: the log file viewer
//   - modal.go: confirm, alert, form and tag dialogs
//   - keys.go, help.go: key bindings and the help overlay
//   - theme.go: color palettes
//
// # Views
//
//   - Login: shown until a basic token is stored, and again after a 401
//   - Dashboard: tiles for campaigns, cards, calls and texts above the
//     mailings of the selected status bucket
//   - Detail: one mailing with its recipients
//   - Leads: incoming calls and texts, with the open thread beside them
//   - Compose: the seven step radius mailing wizard
//   - Logs: the tail of the application log with level and text filters
//
// # Event Flow
//
//  1. Run builds the Model and starts the program in the alt screen
//  2. tickMsg re-reads the store and notices a cleared keychain
//  3. Key presses either change local state or return a command
//  4. Command results arrive as messages and update the flash line
//  5. Context cancellation stops the program
//
// # Key Bindings
//
//   - d / i / l: Dashboard, leads and logs
//   - n: New radius mailing
//   - tab: Cycle dashboard, leads and logs
//   - enter: Open or advance, esc: back
//   - f: Cycle the dashboard status filter
//   - r: Refresh now
//   - T: Cycle theme
//   - O: Sign out
//   - h or ?: Help
//   - e or Ctrl+C: Exit
package ui
