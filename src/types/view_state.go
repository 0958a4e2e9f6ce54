// types/view_state.go - ViewState contract shared by every pane and screen,
// plus the cross-view messages the app model routes between them.

package types

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ViewType identifies each screen for the app model's routing and footer.
type ViewType int

const (
	LoginViewType ViewType = iota
	ChatViewType
	AppointmentsViewType
	CalendarViewType
	WizardViewType
)

// ViewState is one screen in the navigation stack. Views render from
// service snapshots and never drive the connection state machine directly.
type ViewState interface {
	ViewType() ViewType
	View() string
	Update(msg tea.Msg) (ViewState, tea.Cmd)
	// ControlInfo returns the footer hint lines for this view.
	ControlInfo() []string
}

// SessionSelectedMsg is emitted by the sidebar when the doctor picks a
// conversation. The app model tears down the previous connection and opens
// the new one.
type SessionSelectedMsg struct {
	SessionID string
	PeerName  string
}

// StatusNoteMsg puts a transient note in the status bar.
type StatusNoteMsg struct {
	Text string
}

// QuitAppMsg asks the app model to tear down the connection and exit.
type QuitAppMsg struct{}
