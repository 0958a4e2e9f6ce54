package chat

import (
	"testing"
	"time"
)

func TestSendLimiterMinimumInterval(t *testing.T) {
	l := NewSendLimiter(time.Second)
	t0 := time.Now()

	if err := l.allowAt(t0); err != nil {
		t.Fatalf("first send should be allowed: %v", err)
	}
	if err := l.allowAt(t0.Add(500 * time.Millisecond)); err != ErrTooSoon {
		t.Fatalf("send within 1000ms should be rejected, got %v", err)
	}
	if err := l.allowAt(t0.Add(time.Second)); err != nil {
		t.Fatalf("send after >=1000ms should be allowed: %v", err)
	}
}

func TestSendLimiterRejectionDoesNotConsume(t *testing.T) {
	l := NewSendLimiter(time.Second)
	t0 := time.Now()

	if err := l.allowAt(t0); err != nil {
		t.Fatalf("first send should be allowed: %v", err)
	}
	// A burst of rejected attempts must not push the window further out.
	for i := 1; i <= 5; i++ {
		if err := l.allowAt(t0.Add(time.Duration(i) * 100 * time.Millisecond)); err != ErrTooSoon {
			t.Fatalf("attempt %d should be rejected, got %v", i, err)
		}
	}
	if err := l.allowAt(t0.Add(time.Second)); err != nil {
		t.Fatalf("send at 1000ms should still be allowed: %v", err)
	}
}
