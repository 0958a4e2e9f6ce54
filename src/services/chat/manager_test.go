package chat

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"teledesk/src/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

type write struct {
	messageType int
	data        []byte
}

// fakeTransport is a scripted Transport. Tests push frames or errors; the
// manager's read loop consumes them.
type fakeTransport struct {
	mu        sync.Mutex
	incoming  chan any // []byte frame or error
	writes    []write
	closed    bool
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{incoming: make(chan any, 32)}
}

func (t *fakeTransport) push(frame string) { t.incoming <- []byte(frame) }
func (t *fakeTransport) fail(err error)    { t.incoming <- err }

func (t *fakeTransport) ReadMessage() (int, []byte, error) {
	v, ok := <-t.incoming
	if !ok {
		return 0, nil, &websocket.CloseError{Code: websocket.CloseAbnormalClosure}
	}
	switch x := v.(type) {
	case []byte:
		return websocket.TextMessage, x, nil
	case error:
		return 0, nil, x
	}
	return 0, nil, fmt.Errorf("unexpected scripted value %T", v)
}

func (t *fakeTransport) WriteMessage(messageType int, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = append(t.writes, write{messageType: messageType, data: data})
	return nil
}

func (t *fakeTransport) Close() error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()
		close(t.incoming)
	})
	return nil
}

func (t *fakeTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// textFrames decodes every TextMessage write as an outboundFrame.
func (t *fakeTransport) textFrames(tb testing.TB) []outboundFrame {
	tb.Helper()
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []outboundFrame
	for _, w := range t.writes {
		if w.messageType != websocket.TextMessage {
			continue
		}
		var f outboundFrame
		if err := json.Unmarshal(w.data, &f); err != nil {
			tb.Fatalf("unparseable outbound frame %q: %v", w.data, err)
		}
		out = append(out, f)
	}
	return out
}

// fakeDialer hands out scripted transports in order, repeating the last one
// if the manager dials more often than scripted.
type fakeDialer struct {
	mu         sync.Mutex
	transports []*fakeTransport
	urls       []string
}

func newFakeDialer(transports ...*fakeTransport) *fakeDialer {
	return &fakeDialer{transports: transports}
}

func (d *fakeDialer) Dial(url string) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	idx := len(d.urls) - 1
	if idx >= len(d.transports) {
		idx = len(d.transports) - 1
	}
	return d.transports[idx], nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testSession(t *testing.T) *session.Context {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": "42",
		"name":    "Dr. X",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	sess, err := session.New(access, "refresh", "csrf-token")
	if err != nil {
		t.Fatalf("building session: %v", err)
	}
	return sess
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastOpts keeps every timer short so tests observe full cycles quickly.
func fastOpts() Options {
	return Options{
		ReconnectDelay:  20 * time.Millisecond,
		MinSendInterval: 30 * time.Millisecond,
		TypingIdle:      25 * time.Millisecond,
		TypingExpiry:    40 * time.Millisecond,
	}
}

func newTestManager(t *testing.T, dialer Dialer) *Manager {
	t.Helper()
	m := NewManager("wss://api.example.com", testSession(t), dialer, quietLogger(), fastOpts())
	t.Cleanup(m.Teardown)
	return m
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func connect(t *testing.T, m *Manager) {
	t.Helper()
	m.Connect("session-1")
	waitFor(t, "connected state", func() bool { return m.Status().State == StateConnected })
}

func messageFrame(content, senderID, senderName, timestamp string, isCurrentUser bool) string {
	return fmt.Sprintf(
		`{"type":"message","content":%q,"sender_id":%q,"sender_name":%q,"timestamp":%q,"isCurrentUser":%v}`,
		content, senderID, senderName, timestamp, isCurrentUser)
}

// ---------------------------------------------------------------------------
// Connection lifecycle
// ---------------------------------------------------------------------------

func TestConnectRequestsHistoryOnOpen(t *testing.T) {
	tr := newFakeTransport()
	m := newTestManager(t, newFakeDialer(tr))

	connect(t, m)

	frames := tr.textFrames(t)
	if len(frames) == 0 {
		t.Fatal("expected a frame after connect")
	}
	if frames[0].Type != "load_history" {
		t.Fatalf("expected first frame load_history, got %q", frames[0].Type)
	}
}

func TestConnectEmbedsSessionAndToken(t *testing.T) {
	tr := newFakeTransport()
	d := newFakeDialer(tr)
	m := newTestManager(t, d)

	connect(t, m)

	d.mu.Lock()
	url := d.urls[0]
	d.mu.Unlock()
	want := "wss://api.example.com/ws/support/session-1/?token="
	if len(url) <= len(want) || url[:len(want)] != want {
		t.Fatalf("unexpected dial URL %q", url)
	}
}

func TestReconnectAfterAbnormalClose(t *testing.T) {
	tr1 := newFakeTransport()
	tr2 := newFakeTransport()
	d := newFakeDialer(tr1, tr2)
	m := newTestManager(t, d)

	connect(t, m)

	tr1.fail(&websocket.CloseError{Code: websocket.CloseAbnormalClosure})

	waitFor(t, "disconnected state", func() bool { return m.Status().State != StateConnected })
	waitFor(t, "second dial", func() bool { return d.dials() == 2 })
	waitFor(t, "reconnected", func() bool { return m.Status().State == StateConnected })

	if got := m.Status().Err; got != "" {
		t.Fatalf("expected error cleared after reconnect, got %q", got)
	}
}

func TestSessionExpiredCloseIsFatal(t *testing.T) {
	tr := newFakeTransport()
	d := newFakeDialer(tr)
	m := newTestManager(t, d)

	connect(t, m)
	tr.fail(&websocket.CloseError{Code: CloseSessionExpired})

	waitFor(t, "errored state", func() bool { return m.Status().State == StateErrored })
	if got := m.Status().Err; got != "Session expired or invalid. Please refresh the page." {
		t.Fatalf("unexpected error text %q", got)
	}

	// Well beyond the reconnect delay: no further dial, no connecting state.
	time.Sleep(5 * fastOpts().ReconnectDelay)
	if d.dials() != 1 {
		t.Fatalf("expected no reconnect after fatal close, got %d dials", d.dials())
	}
	if m.Status().State != StateErrored {
		t.Fatalf("expected state to stay errored, got %v", m.Status().State)
	}
}

func TestRateLimitCloseIsFatal(t *testing.T) {
	tr := newFakeTransport()
	d := newFakeDialer(tr)
	m := newTestManager(t, d)

	connect(t, m)
	tr.fail(&websocket.CloseError{Code: CloseRateLimited})

	waitFor(t, "errored state", func() bool { return m.Status().State == StateErrored })
	time.Sleep(5 * fastOpts().ReconnectDelay)
	if d.dials() != 1 {
		t.Fatalf("expected no reconnect after rate-limit close, got %d dials", d.dials())
	}
}

func TestCleanCloseDoesNotReconnect(t *testing.T) {
	tr := newFakeTransport()
	d := newFakeDialer(tr)
	m := newTestManager(t, d)

	connect(t, m)
	tr.fail(&websocket.CloseError{Code: websocket.CloseNormalClosure})

	waitFor(t, "disconnected state", func() bool { return m.Status().State == StateDisconnected })
	time.Sleep(5 * fastOpts().ReconnectDelay)
	if d.dials() != 1 {
		t.Fatalf("expected no reconnect after clean close, got %d dials", d.dials())
	}
}

func TestTeardownSendsCloseFrame(t *testing.T) {
	tr := newFakeTransport()
	m := newTestManager(t, newFakeDialer(tr))

	connect(t, m)
	m.Teardown()

	waitFor(t, "transport closed", tr.isClosed)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	found := false
	for _, w := range tr.writes {
		if w.messageType == websocket.CloseMessage {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a close frame on teardown")
	}
	if m.Status().State != StateDisconnected {
		t.Fatalf("expected disconnected after teardown, got %v", m.Status().State)
	}
}

func TestSwitchingSessionsClosesPreviousHandle(t *testing.T) {
	tr1 := newFakeTransport()
	tr2 := newFakeTransport()
	d := newFakeDialer(tr1, tr2)
	m := newTestManager(t, d)

	connect(t, m)

	m.Connect("session-2")
	waitFor(t, "previous transport closed", tr1.isClosed)
	waitFor(t, "second dial", func() bool { return d.dials() == 2 })
	waitFor(t, "reconnected", func() bool { return m.Status().State == StateConnected })
}

func TestSwitchingSessionsStartsClean(t *testing.T) {
	tr1 := newFakeTransport()
	tr2 := newFakeTransport()
	d := newFakeDialer(tr1, tr2)
	opts := fastOpts()
	opts.TypingExpiry = time.Hour
	m := NewManager("wss://api.example.com", testSession(t), d, quietLogger(), opts)
	t.Cleanup(m.Teardown)

	connect(t, m)
	tr1.push(messageFrame("results are in", "7", "Pat", "2024-01-01T10:00:00Z", false))
	tr1.push(`{"type":"typing","user_id":"7","is_typing":true,"sender_name":"Pat"}`)
	waitFor(t, "first session populated", func() bool {
		return len(m.Messages()) == 1 && m.RemoteTyping().Active
	})

	m.Connect("session-2")
	waitFor(t, "connected to second session", func() bool { return m.Status().State == StateConnected })

	if got := len(m.Messages()); got != 0 {
		t.Fatalf("expected an empty log after switching sessions, got %d messages", got)
	}
	if m.RemoteTyping().Active {
		t.Fatal("expected the remote typing indicator cleared after switching sessions")
	}
}

func TestReconnectKeepsLog(t *testing.T) {
	tr1 := newFakeTransport()
	tr2 := newFakeTransport()
	d := newFakeDialer(tr1, tr2)
	m := newTestManager(t, d)

	connect(t, m)
	tr1.push(messageFrame("still here", "7", "Pat", "2024-01-01T10:00:00Z", false))
	waitFor(t, "message appended", func() bool { return len(m.Messages()) == 1 })

	tr1.fail(&websocket.CloseError{Code: websocket.CloseAbnormalClosure})
	waitFor(t, "reconnected", func() bool { return d.dials() == 2 && m.Status().State == StateConnected })

	if got := len(m.Messages()); got != 1 {
		t.Fatalf("expected the log kept across a same-session reconnect, got %d messages", got)
	}
}

// ---------------------------------------------------------------------------
// Message log behavior through the manager
// ---------------------------------------------------------------------------

func TestDistinctMessagesAllAppend(t *testing.T) {
	tr := newFakeTransport()
	m := newTestManager(t, newFakeDialer(tr))
	connect(t, m)

	for i := 0; i < 5; i++ {
		tr.push(messageFrame(fmt.Sprintf("msg %d", i), "7", "Pat", fmt.Sprintf("2024-01-01T10:00:0%dZ", i), false))
	}

	waitFor(t, "5 messages", func() bool { return len(m.Messages()) == 5 })
	msgs := m.Messages()
	for i, msg := range msgs {
		if msg.Content != fmt.Sprintf("msg %d", i) {
			t.Fatalf("messages out of delivery order at %d: %q", i, msg.Content)
		}
	}
}

func TestDuplicateTripleAppendsOnce(t *testing.T) {
	tr := newFakeTransport()
	m := newTestManager(t, newFakeDialer(tr))
	connect(t, m)

	frame := messageFrame("hello", "7", "Pat", "2024-01-01T10:00:00Z", false)
	tr.push(frame)
	tr.push(frame)
	tr.push(messageFrame("goodbye", "7", "Pat", "2024-01-01T10:00:01Z", false))

	waitFor(t, "2 messages", func() bool { return len(m.Messages()) == 2 })
	time.Sleep(10 * time.Millisecond)
	if got := len(m.Messages()); got != 2 {
		t.Fatalf("expected duplicate suppressed, got %d messages", got)
	}
}

func TestHistoryReplacesLog(t *testing.T) {
	tr := newFakeTransport()
	m := newTestManager(t, newFakeDialer(tr))
	connect(t, m)

	tr.push(messageFrame("live one", "7", "Pat", "2024-01-01T09:59:00Z", false))
	waitFor(t, "live message", func() bool { return len(m.Messages()) == 1 })

	history := `{"type":"chat_history","messages":[` +
		`{"content":"a","sender_id":"7","sender_name":"Pat","timestamp":"2024-01-01T10:00:00Z"},` +
		`{"content":"b","sender_id":"42","sender_name":"Dr. X","timestamp":"2024-01-01T10:00:05Z","isCurrentUser":true}]}`
	tr.push(history)
	waitFor(t, "history applied", func() bool {
		msgs := m.Messages()
		return len(msgs) == 2 && msgs[0].Content == "a"
	})

	// Idempotent: the same history again yields the same final log.
	tr.push(history)
	time.Sleep(10 * time.Millisecond)
	if got := len(m.Messages()); got != 2 {
		t.Fatalf("expected history replace to be idempotent, got %d messages", got)
	}
}

func TestLiveDuplicateAfterHistoryIsSuppressed(t *testing.T) {
	tr := newFakeTransport()
	m := newTestManager(t, newFakeDialer(tr))
	connect(t, m)

	tr.push(`{"type":"chat_history","messages":[` +
		`{"content":"overlap","sender_id":"7","sender_name":"Pat","timestamp":"2024-01-01T10:00:00Z"}]}`)
	waitFor(t, "history applied", func() bool { return len(m.Messages()) == 1 })

	tr.push(messageFrame("overlap", "7", "Pat", "2024-01-01T10:00:00Z", false))
	time.Sleep(10 * time.Millisecond)
	if got := len(m.Messages()); got != 1 {
		t.Fatalf("expected overlap suppressed, got %d messages", got)
	}
}

func TestEchoScenario(t *testing.T) {
	tr := newFakeTransport()
	m := newTestManager(t, newFakeDialer(tr))
	connect(t, m)

	if err := m.Send("Hello Doctor"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	frames := tr.textFrames(t)
	last := frames[len(frames)-1]
	if last.Type != "message" || last.Message != "Hello Doctor" {
		t.Fatalf("unexpected outbound frame %+v", last)
	}
	if last.CSRF != "csrf-token" {
		t.Fatalf("expected csrfmiddlewaretoken on message frame, got %q", last.CSRF)
	}

	// Server echo appends exactly one entry flagged as the current user.
	tr.push(messageFrame("Hello Doctor", "42", "Dr. X", "2024-01-01T10:00:00Z", true))
	waitFor(t, "echoed message", func() bool { return len(m.Messages()) == 1 })
	msg := m.Messages()[0]
	if msg.Content != "Hello Doctor" || !msg.IsCurrentUser {
		t.Fatalf("unexpected echoed message %+v", msg)
	}
}

func TestMalformedFrameIsDropped(t *testing.T) {
	tr := newFakeTransport()
	m := newTestManager(t, newFakeDialer(tr))
	connect(t, m)

	tr.push(`{not json at all`)
	tr.push(`{"type":"no_such_type","content":"x"}`)
	tr.push(messageFrame("still fine", "7", "Pat", "2024-01-01T10:00:00Z", false))

	waitFor(t, "valid message after garbage", func() bool { return len(m.Messages()) == 1 })
	if m.Status().State != StateConnected {
		t.Fatalf("malformed frame must not affect connection state, got %v", m.Status().State)
	}
}

func TestServerErrorFrameSurfacesText(t *testing.T) {
	tr := newFakeTransport()
	m := newTestManager(t, newFakeDialer(tr))
	connect(t, m)

	tr.push(`{"type":"error","message":"Something went wrong"}`)
	waitFor(t, "error text", func() bool { return m.Status().Err == "Something went wrong" })
	if m.Status().State != StateConnected {
		t.Fatalf("error frame must not change state, got %v", m.Status().State)
	}
}

// ---------------------------------------------------------------------------
// Sending
// ---------------------------------------------------------------------------

func TestSendRejectedWhenDisconnected(t *testing.T) {
	tr := newFakeTransport()
	m := newTestManager(t, newFakeDialer(tr))

	if err := m.Send("hello"); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestSendRateLimitedThenAccepted(t *testing.T) {
	tr := newFakeTransport()
	m := newTestManager(t, newFakeDialer(tr))
	connect(t, m)

	if err := m.Send("first"); err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	if err := m.Send("second"); err != ErrTooSoon {
		t.Fatalf("expected ErrTooSoon, got %v", err)
	}

	time.Sleep(fastOpts().MinSendInterval + 10*time.Millisecond)
	if err := m.Send("third"); err != nil {
		t.Fatalf("send after interval failed: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Typing through the manager
// ---------------------------------------------------------------------------

func TestSelfTypingIsIgnored(t *testing.T) {
	tr := newFakeTransport()
	m := newTestManager(t, newFakeDialer(tr))
	connect(t, m)

	tr.push(`{"type":"typing","user_id":"42","is_typing":true,"sender_name":"Dr. X"}`)
	time.Sleep(10 * time.Millisecond)
	if m.RemoteTyping().Active {
		t.Fatal("self-typing must never update the remote indicator")
	}
}

func TestRemoteTypingSetAndCleared(t *testing.T) {
	tr := newFakeTransport()
	m := newTestManager(t, newFakeDialer(tr))
	connect(t, m)

	tr.push(`{"type":"typing","user_id":"7","is_typing":true,"sender_name":"Pat"}`)
	waitFor(t, "typing set", func() bool { return m.RemoteTyping().Active })
	if got := m.RemoteTyping().Name; got != "Pat" {
		t.Fatalf("expected typing name Pat, got %q", got)
	}

	tr.push(`{"type":"typing","user_id":"7","is_typing":false,"sender_name":"Pat"}`)
	waitFor(t, "typing cleared", func() bool { return !m.RemoteTyping().Active })
}

func TestRemoteTypingExpiresWithoutFalse(t *testing.T) {
	tr := newFakeTransport()
	m := newTestManager(t, newFakeDialer(tr))
	connect(t, m)

	tr.push(`{"type":"typing","user_id":"7","is_typing":true,"sender_name":"Pat"}`)
	waitFor(t, "typing set", func() bool { return m.RemoteTyping().Active })
	waitFor(t, "typing expired", func() bool { return !m.RemoteTyping().Active })
}

func TestLocalTypingDebouncesToIdle(t *testing.T) {
	tr := newFakeTransport()
	m := newTestManager(t, newFakeDialer(tr))
	connect(t, m)

	m.LocalInputChanged(true)
	m.LocalInputChanged(true) // further keystrokes re-arm, no extra frame

	typingFrames := func() []outboundFrame {
		var out []outboundFrame
		for _, f := range tr.textFrames(t) {
			if f.Type == "typing" {
				out = append(out, f)
			}
		}
		return out
	}

	waitFor(t, "typing:true frame", func() bool { return len(typingFrames()) == 1 })
	if f := typingFrames()[0]; f.IsTyping == nil || !*f.IsTyping {
		t.Fatalf("expected is_typing true, got %+v", f)
	}

	// Idle timer fires typing:false on its own.
	waitFor(t, "typing:false frame", func() bool { return len(typingFrames()) == 2 })
	if f := typingFrames()[1]; f.IsTyping == nil || *f.IsTyping {
		t.Fatalf("expected is_typing false, got %+v", f)
	}
}
