// sidebar/model.go - Conversation list pane shown next to the chat window.
// Selecting an entry emits types.SessionSelectedMsg; the app model owns the
// connection switch.

package sidebar

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"teledesk/src/models"
	"teledesk/src/types"
)

var (
	patientEmoji = "🧑"
	adminEmoji   = "🛠"
	unreadStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Background(lipgloss.Color("236")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// Model is the sidebar state: the session list and the cursor.
type Model struct {
	Sessions []models.ChatSession
	Selected int
	ActiveID string // session currently open in the chat pane
	Focused  bool
	Width    int
	Height   int
}

// New creates an empty sidebar; call SetSessions once the list loads.
func New() *Model {
	return &Model{Width: 28, Height: 24}
}

// SetSessions replaces the list, keeping the cursor on the same session
// when it survives the refresh.
func (m *Model) SetSessions(sessions []models.ChatSession) {
	var keep string
	if m.Selected >= 0 && m.Selected < len(m.Sessions) {
		keep = m.Sessions[m.Selected].ID
	}
	m.Sessions = sessions
	m.Selected = 0
	for i, s := range sessions {
		if s.ID == keep {
			m.Selected = i
			break
		}
	}
}

// MarkRead zeroes the unread counter for one session.
func (m *Model) MarkRead(sessionID string) {
	for i := range m.Sessions {
		if m.Sessions[i].ID == sessionID {
			m.Sessions[i].UnreadCount = 0
		}
	}
}

// Update handles list navigation. Enter emits SessionSelectedMsg, q asks
// the app to quit.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !m.Focused {
		return m, nil
	}
	if key.String() == "q" {
		return m, func() tea.Msg { return types.QuitAppMsg{} }
	}
	if len(m.Sessions) == 0 {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.Selected == 0 {
			m.Selected = len(m.Sessions) - 1
		} else {
			m.Selected--
		}
	case "down", "j":
		if m.Selected == len(m.Sessions)-1 {
			m.Selected = 0
		} else {
			m.Selected++
		}
	case "enter":
		s := m.Sessions[m.Selected]
		return m, func() tea.Msg {
			return types.SessionSelectedMsg{SessionID: s.ID, PeerName: s.PeerName}
		}
	}
	return m, nil
}

// View renders the conversation list with unread badges.
func (m *Model) View() string {
	var b strings.Builder
	pad := "  "
	b.WriteString(pad + titleStyle.Render("Conversations") + "\n")
	b.WriteString(pad + strings.Repeat("-", m.Width-4) + "\n")

	if len(m.Sessions) == 0 {
		b.WriteString(pad + dimStyle.Render("No conversations yet") + "\n")
	}
	for i, s := range m.Sessions {
		emoji := patientEmoji
		if s.PeerRole == "admin" {
			emoji = adminEmoji
		}
		line := emoji + " " + s.PeerName
		if s.UnreadCount > 0 {
			line += " " + unreadStyle.Render(fmt.Sprintf("(%d)", s.UnreadCount))
		}
		marker := "  "
		style := lipgloss.NewStyle()
		if s.ID == m.ActiveID {
			style = style.Bold(true)
		}
		if m.Focused && i == m.Selected {
			style = focusStyle
			marker = "> "
		}
		b.WriteString(pad + marker + style.Render(line) + "\n")
		if s.LastMessage != "" {
			preview := s.LastMessage
			if runes := []rune(preview); len(runes) > m.Width-8 {
				preview = string(runes[:m.Width-8]) + "…"
			}
			b.WriteString(pad + "  " + dimStyle.Render(preview) + "\n")
		}
	}
	return lipgloss.NewStyle().Padding(1, 1).Width(m.Width).Render(b.String())
}

// ControlInfo returns the footer hints for the sidebar.
func (m *Model) ControlInfo() []string {
	return []string{"↑/↓: select", "Enter: open", "Tab: focus chat", "q: quit"}
}
