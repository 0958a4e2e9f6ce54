// chatview/composite.go - Composite dashboard screen: sidebar, message pane
// and input box next to each other, with a status bar on top. Renders from
// chat.Manager snapshots; the manager owns the socket lifecycle.

package chatview

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"teledesk/src/components/sidebar"
	"teledesk/src/services/chat"
	"teledesk/src/types"
)

// Focus identifies which pane receives key input.
type Focus int

const (
	FocusSidebar Focus = iota
	FocusInput
)

// Status bar fragments.
var (
	statusConnected    = "🟢 Connected"
	statusConnecting   = "⏳ Connecting..."
	statusDisconnected = "🔌 Disconnected"
	statusErrored      = "⛔"

	peerTagStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("129")).
			Padding(0, 1)

	selfTagStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33")).
			Padding(0, 1)

	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	typingStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	errStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	msgPaneStyle = lipgloss.NewStyle().Padding(1, 2)
)

// How long a transient warning stays in the status area.
const warnDuration = 3 * time.Second

// EventMsg wraps a chat.Event for the Bubble Tea loop. The app model reads
// the manager's event channel and forwards each event here.
type EventMsg struct {
	Event chat.Event
}

// clearWarnMsg clears a transient warning. Seq fences stale ticks when a
// newer warning replaced the one that scheduled it.
type clearWarnMsg struct {
	Seq int
}

// Model is the dashboard screen state.
type Model struct {
	Manager  *chat.Manager
	Sidebar  *sidebar.Model
	PeerName string

	input   textinput.Model
	focus   Focus
	warn    string
	warnSeq int

	// Lines scrolled up from the bottom. Zero means follow the latest
	// message.
	scrollBack int

	Width  int
	Height int
}

// New builds the dashboard screen around a connection manager and a loaded
// sidebar.
func New(manager *chat.Manager, sb *sidebar.Model) *Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 2000
	ti.Width = 60

	sb.Focused = true
	return &Model{
		Manager: manager,
		Sidebar: sb,
		input:   ti,
		focus:   FocusSidebar,
		Width:   100,
		Height:  30,
	}
}

// ViewType identifies this screen to the app model.
func (m *Model) ViewType() types.ViewType { return types.ChatViewType }

// InputFocused reports whether plain keys go to the message box, so the app
// model keeps its screen-switching shortcuts out of the way.
func (m *Model) InputFocused() bool { return m.focus == FocusInput }

// Update routes keys to the focused pane and reacts to manager events.
func (m *Model) Update(msg tea.Msg) (types.ViewState, tea.Cmd) {
	switch v := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = v.Width
		m.Height = v.Height
		m.Sidebar.Height = v.Height
		if w := v.Width - m.Sidebar.Width - 8; w > 20 {
			m.input.Width = w
		}
		return m, nil

	case EventMsg:
		return m.handleEvent(v.Event)

	case clearWarnMsg:
		if v.Seq == m.warnSeq {
			m.warn = ""
		}
		return m, nil

	case types.SessionSelectedMsg:
		// The app model switches the connection; this pane just moves
		// focus to the input and resets scroll.
		m.PeerName = v.PeerName
		m.Sidebar.ActiveID = v.SessionID
		m.Sidebar.MarkRead(v.SessionID)
		m.setFocus(FocusInput)
		m.scrollBack = 0
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(v)
	}

	if m.focus == FocusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(key tea.KeyMsg) (types.ViewState, tea.Cmd) {
	switch key.String() {
	case "tab":
		if m.focus == FocusSidebar {
			m.setFocus(FocusInput)
		} else {
			m.setFocus(FocusSidebar)
		}
		return m, nil
	case "pgup":
		m.scrollBack += 5
		return m, nil
	case "pgdown":
		m.scrollBack -= 5
		if m.scrollBack < 0 {
			m.scrollBack = 0
		}
		return m, nil
	}

	if m.focus == FocusSidebar {
		_, cmd := m.Sidebar.Update(key)
		return m, cmd
	}

	switch key.String() {
	case "enter":
		return m, m.submit()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	if after := m.input.Value(); after != before {
		m.Manager.LocalInputChanged(strings.TrimSpace(after) != "")
	}
	return m, cmd
}

func (m *Model) handleEvent(ev chat.Event) (types.ViewState, tea.Cmd) {
	switch e := ev.(type) {
	case chat.MessageEvent:
		// The open session is always read up to date.
		if !e.Message.IsCurrentUser && m.Sidebar.ActiveID != "" {
			m.Sidebar.MarkRead(m.Sidebar.ActiveID)
		}
	case chat.ErrorEvent:
		return m, m.showWarn(e.Text)
	}
	return m, nil
}

// submit sends the input box content through the manager's rate limiter.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	err := m.Manager.Send(text)
	switch {
	case errors.Is(err, chat.ErrTooSoon):
		return m.showWarn("You're sending messages too quickly. Please wait a moment.")
	case errors.Is(err, chat.ErrNotConnected):
		return m.showWarn("Not connected. Your message was not sent.")
	case err != nil:
		return m.showWarn("Could not send the message.")
	}
	m.input.Reset()
	m.Manager.LocalInputChanged(false)
	m.scrollBack = 0
	return nil
}

// showWarn displays a transient warning and schedules its removal.
func (m *Model) showWarn(text string) tea.Cmd {
	m.warn = text
	m.warnSeq++
	seq := m.warnSeq
	return tea.Tick(warnDuration, func(time.Time) tea.Msg {
		return clearWarnMsg{Seq: seq}
	})
}

func (m *Model) setFocus(f Focus) {
	m.focus = f
	m.Sidebar.Focused = f == FocusSidebar
	if f == FocusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// renderStatusBar shows the peer name on the left and the connection state
// on the right. A fatal error replaces the state text.
func (m *Model) renderStatusBar() string {
	status := m.Manager.Status()
	var right string
	switch status.State {
	case chat.StateConnected:
		right = statusConnected
	case chat.StateConnecting:
		right = statusConnecting
	case chat.StateErrored:
		right = errStyle.Render(statusErrored + " " + status.Err)
	default:
		right = statusDisconnected
		if status.Err != "" {
			right += "  " + warnStyle.Render(status.Err)
		}
	}

	left := lipgloss.NewStyle().Bold(true).Render(m.PeerName)
	if m.PeerName == "" {
		left = lipgloss.NewStyle().Bold(true).Render("Select a conversation")
	}
	gap := m.Width - m.Sidebar.Width - lipgloss.Width(left) - lipgloss.Width(right) - 6
	if gap < 1 {
		gap = 1
	}
	return "  " + left + strings.Repeat(" ", gap) + right
}

// renderMessages renders the visible window of the message log, following
// the latest message unless the user scrolled back.
func (m *Model) renderMessages() string {
	msgs := m.Manager.Messages()
	var lines []string
	for _, msg := range msgs {
		tag := peerTagStyle.Render(msg.SenderName)
		if msg.IsCurrentUser {
			tag = selfTagStyle.Render("You")
		}
		stamp := timeStyle.Render(clockPart(msg.Timestamp))
		lines = append(lines, tag+" "+stamp)
		lines = append(lines, "  "+msg.Content)
	}

	visible := m.Height - 8
	if visible < 4 {
		visible = 4
	}
	end := len(lines) - m.scrollBack
	if end > len(lines) {
		end = len(lines)
	}
	if end < 0 {
		end = 0
	}
	start := end - visible
	if start < 0 {
		start = 0
	}
	return msgPaneStyle.Render(strings.Join(lines[start:end], "\n"))
}

// clockPart trims an ISO-8601 timestamp down to HH:MM for display.
func clockPart(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("15:04")
}

// renderFooter shows the typing indicator or the current warning under the
// input box.
func (m *Model) renderFooter() string {
	if m.warn != "" {
		return "  " + warnStyle.Render(m.warn)
	}
	if remote := m.Manager.RemoteTyping(); remote.Active {
		name := remote.Name
		if name == "" {
			name = m.PeerName
		}
		return "  " + typingStyle.Render(name+" is typing...")
	}
	return ""
}

// View arranges the panes with Lipgloss.
func (m *Model) View() string {
	statusBar := m.renderStatusBar()
	messages := m.renderMessages()
	inputView := "  " + m.input.View()
	footer := m.renderFooter()

	mainArea := lipgloss.JoinVertical(lipgloss.Left, statusBar, messages, inputView, footer)
	layout := lipgloss.JoinHorizontal(lipgloss.Top, m.Sidebar.View(), mainArea)
	return lipgloss.NewStyle().Padding(1, 1).Render(layout)
}

// ControlInfo returns the footer hints for the focused pane.
func (m *Model) ControlInfo() []string {
	if m.focus == FocusSidebar {
		return m.Sidebar.ControlInfo()
	}
	return []string{"Enter: send", "Tab: focus sidebar", "PgUp/PgDn: scroll"}
}
