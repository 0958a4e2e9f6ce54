// view.go - ViewState wrapper rendering a wizard flow one step at a time.

package wizard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"teledesk/src/types"
)

// DoneMsg carries the confirmed result out of the wizard view. The app model
// decides what to post based on which flow it pushed.
type DoneMsg struct {
	Result map[string]string
}

// CancelledMsg is sent when the flow is abandoned with esc.
type CancelledMsg struct{}

// View renders a Wizard as a screen on the navigation stack.
type View struct {
	wiz   *Wizard
	Width int
}

// NewView wraps a wizard flow for the navigation stack.
func NewView(wiz *Wizard) *View {
	return &View{wiz: wiz, Width: 48}
}

// ViewType identifies this screen to the app model.
func (v *View) ViewType() types.ViewType { return types.WizardViewType }

// CapturesEsc claims esc so the flow can step back before cancelling.
func (v *View) CapturesEsc() bool { return true }

// Update handles step navigation. Completing the last step emits DoneMsg;
// esc at the first step (or anywhere, via cancel) emits CancelledMsg.
func (v *View) Update(msg tea.Msg) (types.ViewState, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	switch key.String() {
	case "up", "k":
		v.wiz.MoveUp()
	case "down", "j":
		v.wiz.MoveDown()
	case "enter":
		if v.wiz.Next() && v.wiz.Done() {
			result := v.wiz.Result()
			return v, func() tea.Msg { return DoneMsg{Result: result} }
		}
	case "esc", "backspace":
		if !v.wiz.Back() {
			v.wiz.Cancel()
			return v, func() tea.Msg { return CancelledMsg{} }
		}
	}
	return v, nil
}

// View renders the current step with its choices.
func (v *View) View() string {
	var b strings.Builder
	pad := "  "

	step := v.wiz.Current()
	if step == nil {
		return pad + "Working...\n"
	}

	n, total := v.wiz.Progress()
	title := lipgloss.NewStyle().Bold(true).Render(v.wiz.Title())
	b.WriteString("\n" + pad + title + fmt.Sprintf("  (step %d of %d)\n", n, total))
	b.WriteString(pad + strings.Repeat("-", v.Width-4) + "\n\n")

	b.WriteString(pad + step.Title + "\n\n")
	if len(step.Choices) == 0 {
		b.WriteString(pad + "Nothing available.\n")
		return b.String()
	}
	for i, c := range step.Choices {
		style := lipgloss.NewStyle()
		marker := "  "
		if i == step.Selected {
			style = style.Foreground(lipgloss.Color("33")).Bold(true)
			marker = "> "
		}
		b.WriteString(pad + marker + style.Render(c.Label) + "\n")
	}
	return b.String()
}

// ControlInfo returns the footer hints for the wizard.
func (v *View) ControlInfo() []string {
	return []string{"↑/↓: select", "Enter: next", "Esc: back / cancel"}
}
