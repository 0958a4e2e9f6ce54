// log.go - In-memory message log with de-duplication. A chat_history frame
// replaces the whole log; live message frames append unless their
// (sender, content, timestamp) triple is already present.

package chat

import (
	"sync"

	"teledesk/src/models"
)

// MessageLog holds the visible messages for one connection session. Not
// persisted; torn down with the session view.
type MessageLog struct {
	mu       sync.Mutex
	entries  []models.Message
	seen     map[string]struct{}
	arrivals int
}

// NewMessageLog returns an empty log.
func NewMessageLog() *MessageLog {
	return &MessageLog{seen: make(map[string]struct{})}
}

// Append adds msg unless its dedup triple is already present. Returns true
// if the message was added. Covers the reconnect case where a fresh history
// load overlaps messages already appended live.
func (l *MessageLog) Append(msg models.Message) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(msg)
}

// Replace makes msgs the authoritative log, discarding prior state. The
// incoming history is itself de-duplicated, so applying the same history
// twice yields the same final log.
func (l *MessageLog) Replace(msgs []models.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
	l.seen = make(map[string]struct{}, len(msgs))
	l.arrivals = 0
	for _, msg := range msgs {
		l.appendLocked(msg)
	}
}

func (l *MessageLog) appendLocked(msg models.Message) bool {
	key := msg.DedupKey()
	if _, dup := l.seen[key]; dup {
		return false
	}
	l.arrivals++
	msg.SynthesizeID(l.arrivals)
	l.seen[key] = struct{}{}
	l.entries = append(l.entries, msg)
	return true
}

// Snapshot returns a copy of the log in delivery order. No client-side
// reordering by timestamp is performed.
func (l *MessageLog) Snapshot() []models.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Message, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of stored messages.
func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
