// login/model.go - OTP sign-in screen: phone number first, then the texted
// code. Verified tokens are handed to the app model, which persists them and
// opens the dashboard.

package login

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"teledesk/src/services/api"
	"teledesk/src/types"
)

const requestTimeout = 15 * time.Second

type phase int

const (
	phasePhone phase = iota
	phaseCode
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// OTPSentMsg reports the request-code call.
type OTPSentMsg struct {
	Err error
}

// LoggedInMsg carries verified tokens to the app model.
type LoggedInMsg struct {
	Tokens api.TokenPair
	Phone  string
	Err    error
}

// Model is the login screen state.
type Model struct {
	Client *api.Client

	phase   phase
	phone   textinput.Model
	code    textinput.Model
	busy    bool
	errText string
}

// New builds the login screen with the phone field focused.
func New(client *api.Client) *Model {
	phone := textinput.New()
	phone.Placeholder = "Phone number"
	phone.CharLimit = 20
	phone.Width = 32
	phone.Focus()

	code := textinput.New()
	code.Placeholder = "One-time code"
	code.CharLimit = 8
	code.Width = 32

	return &Model{Client: client, phone: phone, code: code}
}

// ViewType identifies this screen to the app model.
func (m *Model) ViewType() types.ViewType { return types.LoginViewType }

func (m *Model) requestOTP(phone string) tea.Cmd {
	client := m.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return OTPSentMsg{Err: client.RequestOTP(ctx, phone)}
	}
}

func (m *Model) verifyOTP(phone, code string) tea.Cmd {
	client := m.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		tokens, err := client.VerifyOTP(ctx, phone, code)
		return LoggedInMsg{Tokens: tokens, Phone: phone, Err: err}
	}
}

// Update drives the two-phase flow.
func (m *Model) Update(msg tea.Msg) (types.ViewState, tea.Cmd) {
	switch v := msg.(type) {
	case OTPSentMsg:
		m.busy = false
		if v.Err != nil {
			m.errText = "Could not send the code: " + v.Err.Error()
			return m, nil
		}
		m.errText = ""
		m.phase = phaseCode
		m.phone.Blur()
		m.code.Focus()
		return m, nil

	case LoggedInMsg:
		// The app model swallows the success case; only failures come
		// back here.
		m.busy = false
		if v.Err != nil {
			m.errText = "Sign-in failed: " + v.Err.Error()
			m.code.Reset()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(v)
	}
	return m, nil
}

func (m *Model) handleKey(key tea.KeyMsg) (types.ViewState, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	switch key.String() {
	case "enter":
		if m.phase == phasePhone {
			phone := strings.TrimSpace(m.phone.Value())
			if phone == "" {
				m.errText = "Enter your phone number."
				return m, nil
			}
			m.busy = true
			return m, m.requestOTP(phone)
		}
		code := strings.TrimSpace(m.code.Value())
		if code == "" {
			m.errText = "Enter the code you received."
			return m, nil
		}
		m.busy = true
		return m, m.verifyOTP(strings.TrimSpace(m.phone.Value()), code)
	case "esc":
		if m.phase == phaseCode {
			m.phase = phasePhone
			m.code.Blur()
			m.code.Reset()
			m.phone.Focus()
			m.errText = ""
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.phase == phasePhone {
		m.phone, cmd = m.phone.Update(key)
	} else {
		m.code, cmd = m.code.Update(key)
	}
	return m, cmd
}

// View renders the sign-in form.
func (m *Model) View() string {
	var b strings.Builder
	pad := "  "
	b.WriteString("\n" + pad + titleStyle.Render("🩺 TELEDESK") + "\n\n")

	switch m.phase {
	case phasePhone:
		b.WriteString(pad + "Sign in with your phone number.\n\n")
		b.WriteString(pad + m.phone.View() + "\n")
	case phaseCode:
		b.WriteString(pad + "We texted a code to " + strings.TrimSpace(m.phone.Value()) + ".\n\n")
		b.WriteString(pad + m.code.View() + "\n")
	}

	if m.busy {
		b.WriteString("\n" + pad + dimStyle.Render("Working...") + "\n")
	}
	if m.errText != "" {
		b.WriteString("\n" + pad + errStyle.Render(m.errText) + "\n")
	}
	return b.String()
}

// ControlInfo returns the footer hints for this screen.
func (m *Model) ControlInfo() []string {
	if m.phase == phaseCode {
		return []string{"Enter: verify", "Esc: change number"}
	}
	return []string{"Enter: send code", "Ctrl+C: quit"}
}
