// calendar/model.go - Weekly availability editor. One weekday is focused at a
// time; ranges are painted over half-hour slots and coalesced before saving.

package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"teledesk/src/models"
	"teledesk/src/services/api"
	"teledesk/src/services/schedule"
	"teledesk/src/types"
)

const (
	requestTimeout = 10 * time.Second
	slotMinutes    = 30
	dayStartMin    = 7 * 60  // 07:00
	dayEndMin      = 21 * 60 // 21:00
	slotCount      = (dayEndMin - dayStartMin) / slotMinutes
)

var (
	weekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

	titleStyle   = lipgloss.NewStyle().Bold(true)
	dayTabStyle  = lipgloss.NewStyle().Padding(0, 1)
	dayFocus     = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("33")).Background(lipgloss.Color("236"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true)
	paintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	availStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// LoadedMsg carries the fetched weekly availability.
type LoadedMsg struct {
	Days []models.DayAvailability
	Err  error
}

// SavedMsg reports the outcome of saving one weekday.
type SavedMsg struct {
	Weekday int
	Err     error
}

// Model is the calendar screen state. days is indexed by time.Weekday.
type Model struct {
	Client  *api.Client
	Clock24 bool

	days    [7][]models.TimeRange
	day     int // focused weekday
	slot    int // cursor slot within the day
	paintAt int // selection anchor slot, -1 when not painting
	dirty   [7]bool
	errText string
	note    string
	loading bool
	Width   int
}

// New builds the calendar screen; call Reload to fetch the current week.
func New(client *api.Client, clock24 bool) *Model {
	return &Model{Client: client, Clock24: clock24, paintAt: -1, day: 1, Width: 56, loading: true}
}

// ViewType identifies this screen to the app model.
func (m *Model) ViewType() types.ViewType { return types.CalendarViewType }

// CapturesEsc claims esc while a range is being painted.
func (m *Model) CapturesEsc() bool { return m.paintAt != -1 }

// Reload fetches the stored availability for the whole week.
func (m *Model) Reload() tea.Cmd {
	client := m.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		days, err := client.Availability(ctx)
		return LoadedMsg{Days: days, Err: err}
	}
}

func (m *Model) saveDay() tea.Cmd {
	client := m.Client
	day := models.DayAvailability{Weekday: m.day, Ranges: m.days[m.day]}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return SavedMsg{Weekday: day.Weekday, Err: client.SetDayAvailability(ctx, day)}
	}
}

func slotStart(i int) string {
	min := dayStartMin + i*slotMinutes
	return formatMin(min)
}

func slotEnd(i int) string {
	return formatMin(dayStartMin + (i+1)*slotMinutes)
}

func formatMin(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// slotAvailable reports whether slot i is inside any stored range for the
// focused day.
func (m *Model) slotAvailable(i int) bool {
	candidate := models.TimeRange{Start: slotStart(i), End: slotEnd(i)}
	hit, err := schedule.ConflictsWith(m.days[m.day], candidate)
	return err == nil && hit
}

// commitPaint merges the painted slot run into the focused day's ranges.
func (m *Model) commitPaint() {
	lo, hi := m.paintAt, m.slot
	if lo > hi {
		lo, hi = hi, lo
	}
	painted := models.TimeRange{Start: slotStart(lo), End: slotEnd(hi)}
	m.days[m.day] = schedule.MergeRanges(append(m.days[m.day], painted))
	m.dirty[m.day] = true
	m.paintAt = -1
}

// Update handles grid navigation, painting and saving.
func (m *Model) Update(msg tea.Msg) (types.ViewState, tea.Cmd) {
	switch v := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if v.Err != nil {
			m.errText = v.Err.Error()
			return m, nil
		}
		m.errText = ""
		m.days = [7][]models.TimeRange{}
		for _, d := range v.Days {
			if d.Weekday >= 0 && d.Weekday < 7 {
				m.days[d.Weekday] = schedule.MergeRanges(d.Ranges)
			}
		}
		m.dirty = [7]bool{}
		return m, nil

	case SavedMsg:
		if v.Err != nil {
			m.errText = v.Err.Error()
			return m, nil
		}
		m.errText = ""
		m.dirty[v.Weekday] = false
		m.note = weekdayNames[v.Weekday] + " saved"
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(v)
	}
	return m, nil
}

func (m *Model) handleKey(key tea.KeyMsg) (types.ViewState, tea.Cmd) {
	m.note = ""
	switch key.String() {
	case "left", "h":
		if m.paintAt == -1 {
			m.day = (m.day + 6) % 7
		}
	case "right", "l":
		if m.paintAt == -1 {
			m.day = (m.day + 1) % 7
		}
	case "up", "k":
		if m.slot > 0 {
			m.slot--
		}
	case "down", "j":
		if m.slot < slotCount-1 {
			m.slot++
		}
	case " ":
		if m.paintAt == -1 {
			m.paintAt = m.slot
		} else {
			m.commitPaint()
		}
	case "d":
		m.days[m.day] = nil
		m.dirty[m.day] = true
		m.paintAt = -1
	case "t":
		m.Clock24 = !m.Clock24
	case "s":
		if m.dirty[m.day] {
			return m, m.saveDay()
		}
	case "r":
		m.loading = true
		m.paintAt = -1
		return m, m.Reload()
	case "esc":
		m.paintAt = -1
	}
	return m, nil
}

func (m *Model) clockLabel(hhmm string) string {
	if m.Clock24 {
		return hhmm
	}
	if v, err := schedule.To12Hour(hhmm); err == nil {
		return v
	}
	return hhmm
}

// View renders the weekday tabs and the focused day's slot column.
func (m *Model) View() string {
	var b strings.Builder
	pad := "  "
	b.WriteString("\n" + pad + titleStyle.Render("Availability") + "\n")

	var tabs []string
	for i, name := range weekdayNames {
		label := name
		if m.dirty[i] {
			label += "*"
		}
		if i == m.day {
			tabs = append(tabs, dayFocus.Render(label))
		} else {
			tabs = append(tabs, dayTabStyle.Render(label))
		}
	}
	b.WriteString(pad + lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n")
	b.WriteString(pad + strings.Repeat("-", m.Width-4) + "\n")

	if m.loading {
		b.WriteString(pad + dimStyle.Render("Loading...") + "\n")
		return b.String()
	}

	paintLo, paintHi := -1, -1
	if m.paintAt != -1 {
		paintLo, paintHi = m.paintAt, m.slot
		if paintLo > paintHi {
			paintLo, paintHi = paintHi, paintLo
		}
	}

	for i := 0; i < slotCount; i++ {
		label := m.clockLabel(slotStart(i))
		mark := "·"
		style := dimStyle
		if m.slotAvailable(i) {
			mark = "■"
			style = availStyle
		}
		if i >= paintLo && i <= paintHi {
			mark = "▒"
			style = paintStyle
		}
		cursor := "  "
		if i == m.slot {
			cursor = cursorStyle.Render("> ")
		}
		b.WriteString(pad + cursor + style.Render(mark+" "+label) + "\n")
	}

	b.WriteString("\n" + pad + dimStyle.Render("Ranges: "+rangeSummary(m.days[m.day], m.Clock24)) + "\n")
	if m.note != "" {
		b.WriteString(pad + availStyle.Render(m.note) + "\n")
	}
	if m.errText != "" {
		b.WriteString(pad + errTextStyle.Render(m.errText) + "\n")
	}
	return b.String()
}

func rangeSummary(ranges []models.TimeRange, clock24 bool) string {
	if len(ranges) == 0 {
		return "none"
	}
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		start, end := r.Start, r.End
		if !clock24 {
			if v, err := schedule.To12Hour(start); err == nil {
				start = v
			}
			if v, err := schedule.To12Hour(end); err == nil {
				end = v
			}
		}
		parts[i] = start + "-" + end
	}
	return strings.Join(parts, ", ")
}

// ControlInfo returns the footer hints for this screen.
func (m *Model) ControlInfo() []string {
	if m.paintAt != -1 {
		return []string{"↑/↓: extend", "Space: set range", "Esc: back"}
	}
	return []string{"←/→: day", "↑/↓: slot", "Space: paint", "d: clear day", "s: save", "t: 12/24h", "Esc: back"}
}
