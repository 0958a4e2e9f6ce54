// appointments/model.go - Upcoming appointments screen: list, confirm and
// cancel-with-reason. All mutations go through the REST client; the server
// decides what is allowed.

package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"teledesk/src/models"
	"teledesk/src/services/api"
	"teledesk/src/services/schedule"
	"teledesk/src/types"
)

const requestTimeout = 10 * time.Second

type mode int

const (
	modeList mode = iota
	modeCancelReason
	modeNote
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	focusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Background(lipgloss.Color("236")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusEmoji   = map[string]string{"pending": "⏳", "confirmed": "✅", "completed": "📋", "cancelled": "❌"}
	sessionLabels = map[string]string{"video": "Video", "audio": "Audio", "in_person": "In person"}
)

// LoadedMsg carries the fetched appointment list.
type LoadedMsg struct {
	Appointments []models.Appointment
	Err          error
}

// ActionDoneMsg reports a confirm or cancel result; the list is reloaded
// afterwards.
type ActionDoneMsg struct {
	Err error
}

// ReferralRequestedMsg asks the app model to start the referral wizard for
// the selected appointment's patient.
type ReferralRequestedMsg struct {
	Appointment models.Appointment
}

// FollowUpRequestedMsg asks the app model to start the follow-up wizard for
// the selected appointment.
type FollowUpRequestedMsg struct {
	Appointment models.Appointment
}

// PrescriptionsRequestedMsg asks the app model to open the selected
// patient's prescription history.
type PrescriptionsRequestedMsg struct {
	Appointment models.Appointment
}

// Model is the appointments screen state.
type Model struct {
	Client  *api.Client
	Clock24 bool

	list     []models.Appointment
	selected int
	mode     mode
	reason   textinput.Model
	errText  string
	loading  bool
	Width    int
}

// New builds the screen; Init-style loading is kicked off with Reload.
func New(client *api.Client, clock24 bool) *Model {
	ti := textinput.New()
	ti.Placeholder = "Reason shown to the patient"
	ti.CharLimit = 200
	ti.Width = 48
	return &Model{Client: client, Clock24: clock24, reason: ti, Width: 72, loading: true}
}

// ViewType identifies this screen to the app model.
func (m *Model) ViewType() types.ViewType { return types.AppointmentsViewType }

// CapturesEsc claims esc while an inline prompt is open.
func (m *Model) CapturesEsc() bool { return m.mode != modeList }

// Reload fetches the upcoming appointments.
func (m *Model) Reload() tea.Cmd {
	client := m.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		appts, err := client.Appointments(ctx, "")
		return LoadedMsg{Appointments: appts, Err: err}
	}
}

func (m *Model) confirmSelected() tea.Cmd {
	appt := m.current()
	if appt == nil || appt.Status != "pending" {
		return nil
	}
	client, id := m.Client, appt.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return ActionDoneMsg{Err: client.ConfirmAppointment(ctx, id)}
	}
}

func (m *Model) cancelSelected(reason string) tea.Cmd {
	appt := m.current()
	if appt == nil {
		return nil
	}
	client, id := m.Client, appt.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return ActionDoneMsg{Err: client.CancelAppointment(ctx, id, reason)}
	}
}

func (m *Model) noteSelected(note string) tea.Cmd {
	appt := m.current()
	if appt == nil {
		return nil
	}
	client, id := m.Client, appt.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return ActionDoneMsg{Err: client.AddConsultationNote(ctx, id, note)}
	}
}

func (m *Model) current() *models.Appointment {
	if m.selected < 0 || m.selected >= len(m.list) {
		return nil
	}
	return &m.list[m.selected]
}

// Update handles list navigation and the cancel-reason prompt.
func (m *Model) Update(msg tea.Msg) (types.ViewState, tea.Cmd) {
	switch v := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if v.Err != nil {
			m.errText = v.Err.Error()
			return m, nil
		}
		m.errText = ""
		m.list = v.Appointments
		if m.selected >= len(m.list) {
			m.selected = 0
		}
		return m, nil

	case ActionDoneMsg:
		if v.Err != nil {
			m.errText = v.Err.Error()
			return m, nil
		}
		m.errText = ""
		m.loading = true
		note := func() tea.Msg { return types.StatusNoteMsg{Text: "Appointment updated."} }
		return m, tea.Batch(m.Reload(), note)

	case tea.KeyMsg:
		if m.mode != modeList {
			return m.updateReason(v)
		}
		return m.updateList(v)
	}
	return m, nil
}

func (m *Model) updateList(key tea.KeyMsg) (types.ViewState, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.list)-1 {
			m.selected++
		}
	case "c":
		return m, m.confirmSelected()
	case "x":
		if m.current() != nil {
			m.mode = modeCancelReason
			m.reason.Placeholder = "Reason shown to the patient"
			m.reason.Reset()
			m.reason.Focus()
		}
	case "n":
		if m.current() != nil {
			m.mode = modeNote
			m.reason.Placeholder = "Consultation note"
			m.reason.Reset()
			m.reason.Focus()
		}
	case "p":
		if appt := m.current(); appt != nil {
			a := *appt
			return m, func() tea.Msg { return PrescriptionsRequestedMsg{Appointment: a} }
		}
	case "r":
		m.loading = true
		return m, m.Reload()
	case "f":
		if appt := m.current(); appt != nil {
			a := *appt
			return m, func() tea.Msg { return ReferralRequestedMsg{Appointment: a} }
		}
	case "u":
		if appt := m.current(); appt != nil {
			a := *appt
			return m, func() tea.Msg { return FollowUpRequestedMsg{Appointment: a} }
		}
	}
	return m, nil
}

// updateReason drives both inline prompts: the cancel reason and the
// consultation note.
func (m *Model) updateReason(key tea.KeyMsg) (types.ViewState, tea.Cmd) {
	switch key.String() {
	case "enter":
		text := strings.TrimSpace(m.reason.Value())
		if text == "" {
			return m, nil
		}
		wasNote := m.mode == modeNote
		m.mode = modeList
		m.reason.Blur()
		if wasNote {
			return m, m.noteSelected(text)
		}
		return m, m.cancelSelected(text)
	case "esc":
		m.mode = modeList
		m.reason.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.reason, cmd = m.reason.Update(key)
	return m, cmd
}

func (m *Model) timeLabel(a models.Appointment) string {
	start, end := a.StartTime, a.EndTime
	if !m.Clock24 {
		if s, err := schedule.To12Hour(start); err == nil {
			start = s
		}
		if e, err := schedule.To12Hour(end); err == nil {
			end = e
		}
	}
	return fmt.Sprintf("%s %s - %s", a.Date, start, end)
}

// View renders the list, or the cancel-reason prompt over it.
func (m *Model) View() string {
	var b strings.Builder
	pad := "  "
	b.WriteString("\n" + pad + titleStyle.Render("Appointments") + "\n")
	b.WriteString(pad + strings.Repeat("-", m.Width-4) + "\n")

	switch {
	case m.loading:
		b.WriteString(pad + dimStyle.Render("Loading...") + "\n")
	case len(m.list) == 0:
		b.WriteString(pad + dimStyle.Render("No appointments.") + "\n")
	}

	for i, a := range m.list {
		emoji := statusEmoji[a.Status]
		if emoji == "" {
			emoji = "•"
		}
		line := fmt.Sprintf("%s %s  %s  %s", emoji, a.PatientName, m.timeLabel(a), sessionLabels[a.SessionType])
		marker := "  "
		style := lipgloss.NewStyle()
		if i == m.selected {
			style = focusStyle
			marker = "> "
		}
		b.WriteString(pad + marker + style.Render(line) + "\n")
		if i == m.selected && a.Complaint != "" {
			b.WriteString(pad + "    " + dimStyle.Render(a.Complaint) + "\n")
		}
	}

	switch m.mode {
	case modeCancelReason:
		b.WriteString("\n" + pad + "Cancel appointment - reason:\n")
		b.WriteString(pad + m.reason.View() + "\n")
	case modeNote:
		b.WriteString("\n" + pad + "Consultation note:\n")
		b.WriteString(pad + m.reason.View() + "\n")
	}
	if m.errText != "" {
		b.WriteString("\n" + pad + errStyle.Render(m.errText) + "\n")
	}
	return b.String()
}

// ControlInfo returns the footer hints for this screen.
func (m *Model) ControlInfo() []string {
	switch m.mode {
	case modeCancelReason:
		return []string{"Enter: cancel appointment", "Esc: keep it"}
	case modeNote:
		return []string{"Enter: save note", "Esc: discard"}
	}
	return []string{"↑/↓: select", "c: confirm", "x: cancel", "n: note", "p: prescriptions", "f: refer", "u: follow-up", "r: refresh", "Esc: back"}
}
