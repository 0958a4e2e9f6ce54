// Package app wires the dashboard together: session, REST client, chat
// connection manager and the navigation stack of screens.
package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"teledesk/src/components/appointments"
	"teledesk/src/components/calendar"
	"teledesk/src/components/chatview"
	"teledesk/src/components/login"
	"teledesk/src/components/prescriptions"
	"teledesk/src/components/sidebar"
	"teledesk/src/components/wizard"
	"teledesk/src/config"
	"teledesk/src/models"
	"teledesk/src/navigation"
	"teledesk/src/services/api"
	"teledesk/src/services/chat"
	"teledesk/src/services/schedule"
	"teledesk/src/services/storage"
	"teledesk/src/session"
	"teledesk/src/types"
)

const requestTimeout = 10 * time.Second

var (
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("36")).Padding(0, 1)
)

// sessionsLoadedMsg carries the sidebar's conversation list.
type sessionsLoadedMsg struct {
	sessions []models.ChatSession
	err      error
}

// wizardDataMsg carries the fetched inputs for a booking wizard.
type wizardDataMsg struct {
	referral    bool
	appointment models.Appointment
	specs       []models.Specialization
	days        []models.DayAvailability
	err         error
}

// bookingDoneMsg reports the posted referral or follow-up.
type bookingDoneMsg struct {
	label string
	err   error
}

// clearNoteMsg clears the transient status note.
type clearNoteMsg struct {
	seq int
}

// App is the root Bubble Tea model.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	sess    *session.Context
	client  *api.Client
	manager *chat.Manager

	creds *storage.CredentialsRepository
	prefs *storage.PreferencesRepository

	nav  *navigation.Stack
	side *sidebar.Model
	dash *chatview.Model

	// Inputs of the wizard currently on the stack, consumed on DoneMsg.
	pendingWizard *wizardDataMsg

	note    string
	noteSeq int
	width   int
	height  int
}

// New builds the app. sess is nil when no stored credentials exist; the app
// then starts on the login screen.
func New(cfg *config.Config, logger *slog.Logger, sess *session.Context) *App {
	a := &App{
		cfg:    cfg,
		logger: logger.With("component", "app"),
		sess:   sess,
		creds:  storage.NewCredentialsRepository(cfg.DataDir),
		prefs:  storage.NewPreferencesRepository(cfg.DataDir),
		width:  100,
		height: 30,
	}
	a.client = api.NewClient(cfg.APIBase, sess, logger)

	if sess == nil {
		a.nav = navigation.NewStack(login.New(a.client))
		return a
	}
	a.buildDashboard()
	return a
}

// buildDashboard creates the connection manager and the root chat screen for
// the current session context.
func (a *App) buildDashboard() {
	a.manager = chat.NewManager(a.cfg.WSBase, a.sess, chat.NewDialer(), a.logger, chat.Options{})
	a.side = sidebar.New()
	a.dash = chatview.New(a.manager, a.side)
	a.nav = navigation.NewStack(a.dash)
}

// Init starts the initial loads.
func (a *App) Init() tea.Cmd {
	if a.manager == nil {
		return nil
	}
	return tea.Batch(a.loadSessions(), a.waitForChatEvent())
}

// waitForChatEvent blocks on the manager's event channel and re-arms itself
// after every event.
func (a *App) waitForChatEvent() tea.Cmd {
	ch := a.manager.Events()
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return chatview.EventMsg{Event: ev}
	}
}

func (a *App) loadSessions() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		sessions, err := client.ChatSessions(ctx)
		return sessionsLoadedMsg{sessions: sessions, err: err}
	}
}

// loadWizardData fetches what a booking wizard needs before it is pushed.
func (a *App) loadWizardData(referral bool, appt models.Appointment) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		out := wizardDataMsg{referral: referral, appointment: appt}
		if referral {
			specs, err := client.Specializations(ctx)
			if err != nil {
				out.err = err
				return out
			}
			out.specs = specs
		}
		days, err := client.Availability(ctx)
		if err != nil {
			out.err = err
			return out
		}
		out.days = days
		return out
	}
}

// Update is the top-level message router.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = v.Width, v.Height
		return a.forwardToTop(msg)

	case tea.KeyMsg:
		return a.handleKey(v)

	case login.LoggedInMsg:
		if v.Err != nil {
			return a.forwardToTop(msg)
		}
		return a, a.completeLogin(v)

	case types.SessionSelectedMsg:
		if a.manager != nil {
			a.manager.Connect(v.SessionID)
		}
		if prefs, err := a.prefs.Load(); err == nil {
			prefs.LastSession = v.SessionID
			_ = a.prefs.Save(prefs)
		}
		return a.forwardToTop(msg)

	case sessionsLoadedMsg:
		if v.err != nil {
			a.logger.Warn("loading chat sessions failed", "err", v.err)
			return a, a.showNote("Could not load conversations.")
		}
		if a.side != nil {
			a.side.SetSessions(v.sessions)
		}
		return a, nil

	case chatview.EventMsg:
		top, cmd := a.nav.Top().Update(msg)
		a.nav.ReplaceTop(top)
		if a.dash != nil && !a.nav.AtRoot() {
			// Keep the dashboard current while another screen is on top.
			updated, dashCmd := a.dash.Update(msg)
			if d, ok := updated.(*chatview.Model); ok {
				a.dash = d
			}
			cmd = tea.Batch(cmd, dashCmd)
		}
		return a, tea.Batch(cmd, a.waitForChatEvent())

	case appointments.ReferralRequestedMsg:
		return a, a.loadWizardData(true, v.Appointment)

	case appointments.FollowUpRequestedMsg:
		return a, a.loadWizardData(false, v.Appointment)

	case appointments.PrescriptionsRequestedMsg:
		view := prescriptions.New(a.client, v.Appointment.PatientID, v.Appointment.PatientName)
		a.nav.Push(view)
		return a, view.Reload()

	case wizardDataMsg:
		return a.pushWizard(v)

	case wizard.DoneMsg:
		return a.submitWizard(v)

	case wizard.CancelledMsg:
		a.nav.Pop()
		a.pendingWizard = nil
		return a, nil

	case bookingDoneMsg:
		if v.err != nil {
			return a, a.showNote("Booking failed: " + v.err.Error())
		}
		return a, a.showNote(v.label + " created.")

	case types.StatusNoteMsg:
		return a, a.showNote(v.Text)

	case types.QuitAppMsg:
		return a.quit()

	case clearNoteMsg:
		if v.seq == a.noteSeq {
			a.note = ""
		}
		return a, nil
	}

	return a.forwardToTop(msg)
}

// escCapturer lets a screen claim the esc key for its own sub-state (a
// wizard's back step, an open inline prompt) instead of being popped.
type escCapturer interface {
	CapturesEsc() bool
}

func (a *App) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c":
		return a.quit()
	case "esc":
		if !a.nav.AtRoot() {
			if c, ok := a.nav.Top().(escCapturer); ok && c.CapturesEsc() {
				return a.forwardToTop(key)
			}
			a.nav.Pop()
			return a, nil
		}
	}

	// Dashboard-level screen switching, unless the chat input has focus.
	if a.manager != nil && a.nav.AtRoot() && !a.dash.InputFocused() {
		switch key.String() {
		case "a":
			view := appointments.New(a.client, a.cfg.Clock24)
			a.nav.Push(view)
			return a, view.Reload()
		case "v":
			view := calendar.New(a.client, a.cfg.Clock24)
			a.nav.Push(view)
			return a, view.Reload()
		}
	}
	return a.forwardToTop(key)
}

func (a *App) forwardToTop(msg tea.Msg) (tea.Model, tea.Cmd) {
	top, cmd := a.nav.Top().Update(msg)
	if top != nil {
		a.nav.ReplaceTop(top)
	}
	return a, cmd
}

// completeLogin persists the tokens, swaps in an authenticated client and
// replaces the login screen with the dashboard.
func (a *App) completeLogin(v login.LoggedInMsg) tea.Cmd {
	sess, err := session.New(v.Tokens.Access, v.Tokens.Refresh, v.Tokens.CSRF)
	if err != nil {
		a.logger.Error("building session from login tokens", "err", err)
		return a.showNote("Sign-in failed.")
	}
	if err := a.creds.Save(&storage.Credentials{
		Access:  v.Tokens.Access,
		Refresh: v.Tokens.Refresh,
		CSRF:    v.Tokens.CSRF,
	}); err != nil {
		a.logger.Warn("saving credentials", "err", err)
	}

	a.sess = sess
	a.client = api.NewClient(a.cfg.APIBase, sess, a.logger)
	a.buildDashboard()
	a.logger.Info("signed in", "user", sess.Identity().UserID)
	return tea.Batch(a.loadSessions(), a.waitForChatEvent())
}

// pushWizard builds the flow from the fetched data and puts it on top.
func (a *App) pushWizard(v wizardDataMsg) (tea.Model, tea.Cmd) {
	if v.err != nil {
		return a, a.showNote("Could not start the booking flow: " + v.err.Error())
	}

	slotLen := time.Duration(a.cfg.SlotMinutes) * time.Minute
	var ranges []models.TimeRange
	for _, d := range v.days {
		ranges = append(ranges, d.Ranges...)
	}
	slots := wizard.SlotChoices(ranges, slotLen)

	today := time.Now().Format("2006-01-02")
	horizon := time.Now().AddDate(0, 0, 6).Format("2006-01-02")
	dates, err := schedule.ExpandDates(today, horizon)
	if err != nil {
		return a, a.showNote("Could not start the booking flow.")
	}

	var flow *wizard.Wizard
	if v.referral {
		flow = wizard.NewReferral(v.specs, dates, slots, a.cfg.Clock24)
	} else {
		flow = wizard.NewFollowUp(dates, slots, a.cfg.Clock24)
	}
	a.pendingWizard = &v
	a.nav.Push(wizard.NewView(flow))
	return a, nil
}

// submitWizard posts the confirmed flow.
func (a *App) submitWizard(v wizard.DoneMsg) (tea.Model, tea.Cmd) {
	a.nav.Pop()
	pending := a.pendingWizard
	a.pendingWizard = nil
	if pending == nil {
		return a, nil
	}

	client := a.client
	if pending.referral {
		ref := wizard.BuildReferral(v.Result, pending.appointment.PatientID)
		return a, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			_, err := client.CreateReferral(ctx, ref)
			return bookingDoneMsg{label: "Referral", err: err}
		}
	}
	fu := wizard.BuildFollowUp(v.Result, pending.appointment.ID, pending.appointment.PatientID)
	return a, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := client.CreateFollowUp(ctx, fu)
		return bookingDoneMsg{label: "Follow-up", err: err}
	}
}

func (a *App) showNote(text string) tea.Cmd {
	a.note = text
	a.noteSeq++
	seq := a.noteSeq
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearNoteMsg{seq: seq}
	})
}

func (a *App) quit() (tea.Model, tea.Cmd) {
	if a.manager != nil {
		a.manager.Teardown()
	}
	return a, tea.Quit
}

// View renders the top screen plus the footer hints.
func (a *App) View() string {
	body := a.nav.Top().View()

	hints := a.nav.Top().ControlInfo()
	if a.manager != nil && a.nav.AtRoot() {
		hints = append(hints, "a: appointments", "v: availability", "Ctrl+C: quit")
	}
	footer := footerStyle.Render(strings.Join(hints, "  "))
	if a.note != "" {
		footer = noteStyle.Render(a.note) + "\n" + footer
	}
	return body + "\n" + footer
}
