// transport.go - WebSocket transport abstraction for the chat connection
// manager. The Transport/Dialer interfaces keep the state machine testable
// without a network; the gorilla/websocket implementation is the only real
// one.

package chat

import (
	"time"

	"github.com/gorilla/websocket"
)

// Close codes the support channel uses beyond the RFC 6455 set. Both are
// fatal for the current session: the manager surfaces an error and never
// reconnects on its own.
const (
	CloseSessionExpired = 4003
	CloseRateLimited    = 4008
)

// Transport is one live socket. The connection manager holds at most one at
// a time and is its exclusive owner.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a Transport for a chat session URL.
type Dialer interface {
	Dial(url string) (Transport, error)
}

type wsDialer struct {
	handshakeTimeout time.Duration
}

// NewDialer returns the gorilla/websocket backed Dialer used in production.
func NewDialer() Dialer {
	return &wsDialer{handshakeTimeout: 10 * time.Second}
}

func (d *wsDialer) Dial(url string) (Transport, error) {
	dialer := websocket.Dialer{HandshakeTimeout: d.handshakeTimeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// closeFrame builds the clean-closure frame sent on user-initiated teardown.
func closeFrame() []byte {
	return websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
}
