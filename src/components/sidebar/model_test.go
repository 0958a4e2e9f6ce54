package sidebar

import (
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"teledesk/src/models"
	"teledesk/src/types"
)

func sessions() []models.ChatSession {
	return []models.ChatSession{
		{ID: "s1", PeerName: "Amina", PeerRole: "patient"},
		{ID: "s2", PeerName: "Front Desk", PeerRole: "admin", UnreadCount: 2},
		{ID: "s3", PeerName: "Bilal", PeerRole: "patient"},
	}
}

func TestSetSessionsKeepsCursor(t *testing.T) {
	m := New()
	m.SetSessions(sessions())
	m.Selected = 2

	// Refresh drops the first entry; the cursor follows s3.
	m.SetSessions(sessions()[1:])
	require.Equal(t, 1, m.Selected)
	require.Equal(t, "s3", m.Sessions[m.Selected].ID)
}

func TestEnterEmitsSelection(t *testing.T) {
	m := New()
	m.Focused = true
	m.SetSessions(sessions())
	m.Selected = 1

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(types.SessionSelectedMsg)
	require.True(t, ok)
	require.Equal(t, "s2", msg.SessionID)
	require.Equal(t, "Front Desk", msg.PeerName)
}

func TestUnfocusedIgnoresKeys(t *testing.T) {
	m := New()
	m.SetSessions(sessions())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
	require.Equal(t, 0, m.Selected)
}

func TestMarkReadClearsUnread(t *testing.T) {
	m := New()
	m.SetSessions(sessions())

	m.MarkRead("s2")
	require.Equal(t, 0, m.Sessions[1].UnreadCount)
}

func TestQuitKeyEmitsQuit(t *testing.T) {
	m := New()
	m.Focused = true

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	_, ok := cmd().(types.QuitAppMsg)
	require.True(t, ok)
}

func TestPreviewTruncatesOnRunes(t *testing.T) {
	long := "نتیجه آزمایش امروز رسید، همه چیز خوب است"
	m := New()
	m.Width = 20
	m.SetSessions([]models.ChatSession{
		{ID: "s1", PeerName: "Amina", PeerRole: "patient", LastMessage: long},
	})

	view := m.View()
	require.True(t, utf8.ValidString(view))
	require.Contains(t, view, string([]rune(long)[:12])+"…")
}

func TestNavigationWraps(t *testing.T) {
	m := New()
	m.Focused = true
	m.SetSessions(sessions())

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.Equal(t, 2, m.Selected)
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 0, m.Selected)
}
