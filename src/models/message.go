// message.go - Defines the Message struct for chat messages across the application.
// Messages are created from server events and are never mutated after creation.

package models

import "fmt"

// Message represents one chat message as delivered by the support channel.
type Message struct {
	ID            string `json:"id"`
	Content       string `json:"content"`
	SenderID      string `json:"sender_id"`
	SenderName    string `json:"sender_name"`
	Timestamp     string `json:"timestamp"` // ISO-8601, kept verbatim from the wire
	IsCurrentUser bool   `json:"isCurrentUser"`
}

// DedupKey returns the (sender, content, timestamp) triple used to decide
// whether an incoming message is already present in the log.
func (m Message) DedupKey() string {
	return m.SenderID + "\x00" + m.Content + "\x00" + m.Timestamp
}

// SynthesizeID fills in a local identifier when the server omits one.
// The arrival counter keeps two otherwise-identical messages distinct.
func (m *Message) SynthesizeID(arrival int) {
	if m.ID == "" {
		m.ID = fmt.Sprintf("%s-%s-%d", m.SenderID, m.Timestamp, arrival)
	}
}
