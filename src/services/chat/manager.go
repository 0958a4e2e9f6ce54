// manager.go - Connection state machine for the doctor-patient support
// channel. Owns exactly one transport per chat session, keeps the
// UI-visible status accurate, reconnects after transient failures and
// stops dead on fatal close codes.

package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"teledesk/src/models"
	"teledesk/src/session"

	"github.com/gorilla/websocket"
)

// ErrNotConnected is returned by Send when no transport is open. There is
// no queueing or acknowledgement-based retry; a send either goes out over
// an open socket or fails here.
var ErrNotConnected = errors.New("chat: not connected")

// State is the connection lifecycle. StateErrored is disconnected with a
// fatal per-session error (expired session, rate-limit close); no
// reconnect is ever scheduled from it.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateErrored:
		return "errored"
	default:
		return "disconnected"
	}
}

// Status is the snapshot the rendering layer consumes. Err is the
// user-visible error text, empty when none.
type Status struct {
	State State
	Err   string
}

// User-facing error strings. The session-expired text is part of the UI
// contract and must not change without the widget copy changing with it.
const (
	errSessionExpired = "Session expired or invalid. Please refresh the page."
	errRateLimited    = "Message rate limit exceeded. Please refresh the page."
	errConnectivity   = "Connection problem. Retrying..."
)

// Options tunes the manager's timers. Zero fields take the defaults that
// match the production support channel.
type Options struct {
	ReconnectDelay  time.Duration // fixed delay after an abnormal close, default 3s
	MinSendInterval time.Duration // outbound rate limit, default 1s
	TypingIdle      time.Duration // local typing debounce-to-idle, default 2s
	TypingExpiry    time.Duration // defensive remote indicator expiry, default 6s
}

func (o Options) withDefaults() Options {
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = 3 * time.Second
	}
	if o.MinSendInterval <= 0 {
		o.MinSendInterval = time.Second
	}
	if o.TypingIdle <= 0 {
		o.TypingIdle = 2 * time.Second
	}
	if o.TypingExpiry <= 0 {
		o.TypingExpiry = 6 * time.Second
	}
	return o
}

// Manager drives one chat session's connection lifecycle:
// disconnected → connecting → connected → disconnected.
//
// A generation counter fences stale callbacks: every Connect/Teardown bumps
// it, and the read loop, dial goroutine and reconnect timer all abandon
// their work when their generation no longer matches.
type Manager struct {
	mu sync.Mutex

	baseURL string // e.g. "wss://api.example.com"
	sess    *session.Context
	dialer  Dialer
	logger  *slog.Logger
	opts    Options

	state     State
	errText   string
	conn      Transport
	gen       int
	sessionID string
	reconnect *time.Timer

	msgs    *MessageLog
	limiter *SendLimiter
	typing  *TypingCoordinator

	events chan Event
}

// NewManager wires a manager to its transport dialer and session context.
// Nothing connects until Connect is called.
func NewManager(baseURL string, sess *session.Context, dialer Dialer, logger *slog.Logger, opts Options) *Manager {
	opts = opts.withDefaults()
	m := &Manager{
		baseURL: baseURL,
		sess:    sess,
		dialer:  dialer,
		logger:  logger.With("component", "chat"),
		opts:    opts,
		msgs:    NewMessageLog(),
		limiter: NewSendLimiter(opts.MinSendInterval),
		events:  make(chan Event, 64),
	}
	m.typing = NewTypingCoordinator(
		sess.Identity().UserID,
		opts.TypingIdle,
		opts.TypingExpiry,
		m.sendTyping,
		func(state models.TypingState) { m.emit(TypingEvent{State: state}) },
	)
	return m
}

// Events is the notification channel the UI subscribes to. Events are
// dropped rather than blocking the manager when the buffer is full; the UI
// renders from snapshots, so a dropped event only delays a repaint.
func (m *Manager) Events() <-chan Event { return m.events }

// Status returns the current lifecycle snapshot.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{State: m.state, Err: m.errText}
}

// Messages returns the visible log in delivery order.
func (m *Manager) Messages() []models.Message { return m.msgs.Snapshot() }

// RemoteTyping returns the remote participant's typing indicator.
func (m *Manager) RemoteTyping() models.TypingState { return m.typing.Remote() }

// Connect opens the transport for sessionID. Any previously owned handle
// is closed first; opening a new connection always wins over the old one.
func (m *Manager) Connect(sessionID string) {
	m.mu.Lock()
	m.closeConnLocked()
	m.stopReconnectLocked()
	switched := sessionID != m.sessionID
	if switched {
		// A new conversation starts from an empty log; nothing from the
		// previous session may leak into it. Reconnects to the same session
		// keep the log and let the fresh history replace it.
		m.msgs.Replace(nil)
	}
	m.gen++
	gen := m.gen
	m.sessionID = sessionID
	m.setStatusLocked(StateConnecting, "")
	m.mu.Unlock()

	if switched {
		m.typing.ResetRemote()
	}

	m.logger.Info("connecting", "session", sessionID)
	go m.dial(gen, sessionID)
}

// Teardown closes the transport with a clean-closure frame and cancels all
// timers. Used on widget unmount and before switching sessions.
func (m *Manager) Teardown() {
	m.typing.Stop()

	m.mu.Lock()
	m.gen++
	m.stopReconnectLocked()
	m.closeConnLocked()
	m.setStatusLocked(StateDisconnected, "")
	m.mu.Unlock()
}

// Send transmits one chat message, subject to the outbound rate limit.
func (m *Manager) Send(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateConnected {
		return ErrNotConnected
	}
	if err := m.limiter.Allow(); err != nil {
		return err
	}
	return m.writeLocked(outboundFrame{
		Type:    "message",
		Message: text,
		CSRF:    m.sess.CSRF(),
	})
}

// LocalInputChanged forwards input transitions to the typing coordinator.
func (m *Manager) LocalInputChanged(hasText bool) {
	m.typing.LocalInputChanged(hasText)
}

// dial runs off the update loop; the handshake blocks.
func (m *Manager) dial(gen int, sessionID string) {
	target := fmt.Sprintf("%s/ws/support/%s/?token=%s",
		m.baseURL, url.PathEscape(sessionID), url.QueryEscape(m.sess.Access()))

	t, err := m.dialer.Dial(target)

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		if err == nil {
			t.Close()
		}
		return
	}
	if err != nil {
		// Dial failure counts as an abnormal closure: retry on the fixed
		// delay.
		m.logger.Warn("dial failed", "session", sessionID, "error", err)
		m.setStatusLocked(StateDisconnected, errConnectivity)
		m.scheduleReconnectLocked(gen)
		m.mu.Unlock()
		return
	}

	m.conn = t
	m.stopReconnectLocked()
	m.setStatusLocked(StateConnected, "")
	// History is requested immediately on open; the reply replaces the log.
	if werr := m.writeLocked(outboundFrame{Type: "load_history"}); werr != nil {
		m.logger.Warn("load_history request failed", "error", werr)
	}
	m.mu.Unlock()

	m.logger.Info("connected", "session", sessionID)
	go m.readLoop(gen, t)
}

// readLoop delivers frames until the transport errors, then classifies the
// closure. One loop per generation.
func (m *Manager) readLoop(gen int, t Transport) {
	for {
		_, data, err := t.ReadMessage()
		if err != nil {
			m.handleClose(gen, err)
			return
		}
		m.handleFrame(gen, data)
	}
}

// handleFrame parses and dispatches one inbound frame. Malformed payloads
// are logged and dropped; they never crash the widget or corrupt the log.
func (m *Manager) handleFrame(gen int, data []byte) {
	m.mu.Lock()
	stale := gen != m.gen
	m.mu.Unlock()
	if stale {
		return
	}

	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		m.logger.Warn("dropping malformed frame", "error", err)
		return
	}

	switch frame.Type {
	case "chat_history":
		m.msgs.Replace(frame.Messages)
		m.emit(HistoryEvent{Count: m.msgs.Len()})
	case "message":
		msg := models.Message{
			Content:       frame.Content,
			SenderID:      frame.SenderID,
			SenderName:    frame.SenderName,
			Timestamp:     frame.Timestamp,
			IsCurrentUser: frame.IsCurrentUser,
		}
		if m.msgs.Append(msg) {
			m.emit(MessageEvent{Message: msg})
		}
	case "typing":
		m.typing.RemoteTyping(frame.UserID, frame.IsTyping, frame.SenderName)
	case "error":
		m.mu.Lock()
		m.errText = frame.Message
		m.mu.Unlock()
		m.emit(ErrorEvent{Text: frame.Message})
	default:
		m.logger.Warn("dropping frame with unknown type", "type", frame.Type)
	}
}

// handleClose classifies the closure and decides whether to reconnect.
func (m *Manager) handleClose(gen int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	m.conn = nil

	code := websocket.CloseAbnormalClosure
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		code = ce.Code
	}

	switch code {
	case CloseSessionExpired:
		m.logger.Warn("session expired", "session", m.sessionID)
		m.setStatusLocked(StateErrored, errSessionExpired)
	case CloseRateLimited:
		m.logger.Warn("rate limited by server", "session", m.sessionID)
		m.setStatusLocked(StateErrored, errRateLimited)
	case websocket.CloseNormalClosure:
		m.setStatusLocked(StateDisconnected, "")
	default:
		m.logger.Warn("abnormal closure, will reconnect",
			"session", m.sessionID, "code", code, "error", err)
		m.setStatusLocked(StateDisconnected, errConnectivity)
		m.scheduleReconnectLocked(gen)
	}
}

// sendTyping is the typing coordinator's outbound path. Dropped silently
// when not connected; typing state is best-effort.
func (m *Manager) sendTyping(isTyping bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateConnected {
		return
	}
	v := isTyping
	if err := m.writeLocked(outboundFrame{Type: "typing", IsTyping: &v, CSRF: m.sess.CSRF()}); err != nil {
		m.logger.Warn("typing frame failed", "error", err)
	}
}

func (m *Manager) writeLocked(frame outboundFrame) error {
	if m.conn == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return m.conn.WriteMessage(websocket.TextMessage, data)
}

func (m *Manager) setStatusLocked(state State, errText string) {
	m.state = state
	m.errText = errText
	m.emit(StatusEvent{Status: Status{State: state, Err: errText}})
}

func (m *Manager) closeConnLocked() {
	if m.conn == nil {
		return
	}
	_ = m.conn.WriteMessage(websocket.CloseMessage, closeFrame())
	_ = m.conn.Close()
	m.conn = nil
}

// scheduleReconnectLocked arms the single-flight reconnect timer. The fixed
// delay is deliberate; the server already rate-limits abusive reconnects
// with its own close code.
func (m *Manager) scheduleReconnectLocked(gen int) {
	m.stopReconnectLocked()
	sid := m.sessionID
	m.reconnect = time.AfterFunc(m.opts.ReconnectDelay, func() {
		m.mu.Lock()
		stale := gen != m.gen
		m.mu.Unlock()
		if !stale {
			m.Connect(sid)
		}
	})
}

func (m *Manager) stopReconnectLocked() {
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
}

func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
	}
}
