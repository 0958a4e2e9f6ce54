// chat.go - Chat session records for the sidebar and connection manager.

package models

// ChatSession represents one logical conversation thread between the doctor
// and a patient or admin, addressed by its session identifier.
type ChatSession struct {
	ID          string `json:"id"`
	PeerName    string `json:"peer_name"`
	PeerRole    string `json:"peer_role"` // "patient" or "admin"
	LastMessage string `json:"last_message,omitempty"`
	UnreadCount int    `json:"unread_count"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// TypingState tracks whether the remote participant is typing.
// The zero value means nobody is typing.
type TypingState struct {
	Name   string
	Active bool
}
