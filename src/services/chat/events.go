// events.go - Wire frames for the support WebSocket and the event types the
// connection manager publishes to the UI layer.

package chat

import (
	"teledesk/src/models"
)

// outboundFrame is every client→server frame. The server multiplexes on
// Type; unused fields are omitted from the JSON.
type outboundFrame struct {
	Type     string `json:"type"`
	Message  string `json:"message,omitempty"`
	IsTyping *bool  `json:"is_typing,omitempty"`
	CSRF     string `json:"csrfmiddlewaretoken,omitempty"`
}

// inboundFrame is every server→client frame, again discriminated by Type.
// Field sets overlap across types; only the ones matching Type are read.
type inboundFrame struct {
	Type string `json:"type"`

	// type == "message"
	Content       string `json:"content"`
	SenderID      string `json:"sender_id"`
	SenderName    string `json:"sender_name"`
	Timestamp     string `json:"timestamp"`
	IsCurrentUser bool   `json:"isCurrentUser"`

	// type == "chat_history"
	Messages []models.Message `json:"messages"`

	// type == "typing"
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`

	// type == "error"
	Message string `json:"message"`
}

// Event is a notification from the connection manager. The UI re-renders
// from manager snapshots; events only say that something changed.
type Event interface{ isEvent() }

// StatusEvent reports a connection state transition.
type StatusEvent struct{ Status Status }

// HistoryEvent reports that the whole log was replaced by a chat_history
// frame.
type HistoryEvent struct{ Count int }

// MessageEvent reports one appended (non-duplicate) message.
type MessageEvent struct{ Message models.Message }

// TypingEvent reports a remote typing change.
type TypingEvent struct{ State models.TypingState }

// ErrorEvent carries a user-visible error string from the server.
type ErrorEvent struct{ Text string }

func (StatusEvent) isEvent()  {}
func (HistoryEvent) isEvent() {}
func (MessageEvent) isEvent() {}
func (TypingEvent) isEvent()  {}
func (ErrorEvent) isEvent()   {}
