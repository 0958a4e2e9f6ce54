// prescriptions/model.go - Read-only list of a patient's prior prescriptions,
// opened from the appointments screen.

package prescriptions

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"teledesk/src/models"
	"teledesk/src/services/api"
	"teledesk/src/types"
)

const requestTimeout = 10 * time.Second

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	medStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// LoadedMsg carries the fetched prescriptions.
type LoadedMsg struct {
	Prescriptions []models.Prescription
	Err           error
}

// Model is the prescription history screen.
type Model struct {
	Client      *api.Client
	PatientID   string
	PatientName string

	list     []models.Prescription
	selected int
	errText  string
	loading  bool
	Width    int
}

// New builds the screen for one patient; call Reload to fetch.
func New(client *api.Client, patientID, patientName string) *Model {
	return &Model{Client: client, PatientID: patientID, PatientName: patientName, Width: 72, loading: true}
}

// ViewType identifies this screen to the app model. It shares the
// appointments type since it is a detail screen of that flow.
func (m *Model) ViewType() types.ViewType { return types.AppointmentsViewType }

// Reload fetches the patient's prescription history.
func (m *Model) Reload() tea.Cmd {
	client, patientID := m.Client, m.PatientID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		list, err := client.PatientPrescriptions(ctx, patientID)
		return LoadedMsg{Prescriptions: list, Err: err}
	}
}

// Update handles list navigation.
func (m *Model) Update(msg tea.Msg) (types.ViewState, tea.Cmd) {
	switch v := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if v.Err != nil {
			m.errText = v.Err.Error()
			return m, nil
		}
		m.errText = ""
		m.list = v.Prescriptions
		m.selected = 0
		return m, nil

	case tea.KeyMsg:
		switch v.String() {
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.list)-1 {
				m.selected++
			}
		case "r":
			m.loading = true
			return m, m.Reload()
		}
	}
	return m, nil
}

// View renders the history, expanding the selected prescription.
func (m *Model) View() string {
	var b strings.Builder
	pad := "  "
	b.WriteString("\n" + pad + titleStyle.Render("Prescriptions - "+m.PatientName) + "\n")
	b.WriteString(pad + strings.Repeat("-", m.Width-4) + "\n")

	switch {
	case m.loading:
		b.WriteString(pad + dimStyle.Render("Loading...") + "\n")
	case len(m.list) == 0:
		b.WriteString(pad + dimStyle.Render("No prescriptions on record.") + "\n")
	}

	for i, p := range m.list {
		marker := "  "
		line := "💊 " + p.CreatedAt
		if len(p.Medicines) > 0 {
			line += "  " + p.Medicines[0].Name
			if len(p.Medicines) > 1 {
				line += dimStyle.Render(" +more")
			}
		}
		style := lipgloss.NewStyle()
		if i == m.selected {
			marker = "> "
			style = style.Bold(true)
		}
		b.WriteString(pad + marker + style.Render(line) + "\n")

		if i != m.selected {
			continue
		}
		for _, med := range p.Medicines {
			b.WriteString(pad + "    " + medStyle.Render(med.Name) +
				dimStyle.Render("  "+med.Dosage+"  "+med.Frequency+"  "+med.Duration) + "\n")
		}
		for _, test := range p.Tests {
			b.WriteString(pad + "    " + dimStyle.Render("🧪 "+test.Name) + "\n")
		}
		if p.Advice != "" {
			b.WriteString(pad + "    " + dimStyle.Render(p.Advice) + "\n")
		}
	}

	if m.errText != "" {
		b.WriteString("\n" + pad + errStyle.Render(m.errText) + "\n")
	}
	return b.String()
}

// ControlInfo returns the footer hints for this screen.
func (m *Model) ControlInfo() []string {
	return []string{"↑/↓: select", "r: refresh", "Esc: back"}
}
