// typing.go - Typing indicator coordination: debounce the local doctor's
// typing broadcast to idle, and track the remote participant's indicator
// with a defensive expiry in case their typing:false frame is lost.

package chat

import (
	"sync"
	"time"

	"teledesk/src/models"
)

// TypingCoordinator owns the two single-flight timers of the typing
// protocol. Arming a timer always cancels the previous one; both are
// cancelled by Stop.
//
// The send and onRemote callbacks are invoked without the coordinator's
// lock held, so they may safely call back into the connection manager.
type TypingCoordinator struct {
	mu sync.Mutex

	localUserID string
	send        func(isTyping bool)
	onRemote    func(models.TypingState)

	idleAfter   time.Duration
	expireAfter time.Duration

	active      bool // local user currently broadcast as typing
	idleTimer   *time.Timer
	remote      models.TypingState
	expireTimer *time.Timer
}

// NewTypingCoordinator wires the coordinator to its outbound send function
// and remote-change callback. localUserID filters out the echo of the
// doctor's own typing frames.
func NewTypingCoordinator(localUserID string, idleAfter, expireAfter time.Duration, send func(bool), onRemote func(models.TypingState)) *TypingCoordinator {
	return &TypingCoordinator{
		localUserID: localUserID,
		send:        send,
		onRemote:    onRemote,
		idleAfter:   idleAfter,
		expireAfter: expireAfter,
	}
}

// LocalInputChanged is called on every input change. A transition to
// non-empty input broadcasts typing:true and arms the idle timer; every
// further keystroke re-arms it. Clearing the input broadcasts typing:false
// immediately.
func (t *TypingCoordinator) LocalInputChanged(hasText bool) {
	t.mu.Lock()
	var emit *bool
	if hasText {
		if !t.active {
			t.active = true
			v := true
			emit = &v
		}
		t.armIdleLocked()
	} else if t.active {
		t.active = false
		t.stopIdleLocked()
		v := false
		emit = &v
	}
	t.mu.Unlock()

	if emit != nil {
		t.send(*emit)
	}
}

// RemoteTyping applies a typing frame from the server. Frames about the
// local user are ignored; self-typing never updates the indicator.
func (t *TypingCoordinator) RemoteTyping(userID string, isTyping bool, name string) {
	if userID == t.localUserID {
		return
	}
	t.mu.Lock()
	t.remote = models.TypingState{Name: name, Active: isTyping}
	if isTyping {
		t.armExpireLocked()
	} else {
		t.stopExpireLocked()
	}
	state := t.remote
	t.mu.Unlock()

	t.onRemote(state)
}

// Remote returns the current remote typing state.
func (t *TypingCoordinator) Remote() models.TypingState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remote
}

// ResetRemote clears the remote indicator and its expiry timer. Called when
// the manager switches sessions so one conversation's indicator never leaks
// into the next.
func (t *TypingCoordinator) ResetRemote() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remote = models.TypingState{}
	t.stopExpireLocked()
}

// Stop cancels both timers. Called on session teardown.
func (t *TypingCoordinator) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	t.stopIdleLocked()
	t.stopExpireLocked()
}

func (t *TypingCoordinator) armIdleLocked() {
	t.stopIdleLocked()
	t.idleTimer = time.AfterFunc(t.idleAfter, t.idleFired)
}

// idleFired broadcasts typing:false after the idle window passes with no
// further input.
func (t *TypingCoordinator) idleFired() {
	t.mu.Lock()
	fire := t.active
	t.active = false
	t.mu.Unlock()

	if fire {
		t.send(false)
	}
}

func (t *TypingCoordinator) stopIdleLocked() {
	if t.idleTimer != nil {
		t.idleTimer.Stop()
		t.idleTimer = nil
	}
}

func (t *TypingCoordinator) armExpireLocked() {
	t.stopExpireLocked()
	t.expireTimer = time.AfterFunc(t.expireAfter, t.expireFired)
}

// expireFired clears a stale remote indicator whose typing:false was never
// delivered.
func (t *TypingCoordinator) expireFired() {
	t.mu.Lock()
	if !t.remote.Active {
		t.mu.Unlock()
		return
	}
	t.remote.Active = false
	state := t.remote
	t.mu.Unlock()

	t.onRemote(state)
}

func (t *TypingCoordinator) stopExpireLocked() {
	if t.expireTimer != nil {
		t.expireTimer.Stop()
		t.expireTimer = nil
	}
}
