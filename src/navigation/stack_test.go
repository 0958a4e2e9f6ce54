package navigation

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"teledesk/src/types"
)

type stubView struct {
	name string
}

func (s *stubView) ViewType() types.ViewType { return types.ChatViewType }
func (s *stubView) View() string             { return s.name }
func (s *stubView) Update(tea.Msg) (types.ViewState, tea.Cmd) {
	return s, nil
}
func (s *stubView) ControlInfo() []string { return nil }

func TestPushPop(t *testing.T) {
	root := &stubView{name: "root"}
	s := NewStack(root)
	require.True(t, s.AtRoot())

	child := &stubView{name: "child"}
	s.Push(child)
	require.Equal(t, 2, s.Depth())
	require.Same(t, child, s.Top())

	s.Pop()
	require.Same(t, types.ViewState(root), s.Top())
}

func TestRootSurvivesPop(t *testing.T) {
	root := &stubView{name: "root"}
	s := NewStack(root)

	s.Pop()
	s.Pop()
	require.True(t, s.AtRoot())
	require.Same(t, types.ViewState(root), s.Top())
}

func TestReplaceTop(t *testing.T) {
	s := NewStack(&stubView{name: "root"})
	s.Push(&stubView{name: "old"})

	swapped := &stubView{name: "new"}
	s.ReplaceTop(swapped)
	require.Same(t, types.ViewState(swapped), s.Top())
	require.Equal(t, 2, s.Depth())
}
