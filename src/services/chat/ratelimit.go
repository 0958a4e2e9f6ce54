// ratelimit.go - Client-side guard against flooding the support channel.

package chat

import (
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// ErrTooSoon is returned when a send is attempted within the minimum
// interval of the previous accepted send. The caller surfaces a transient
// warning; the send is never attempted.
var ErrTooSoon = errors.New("chat: sending messages too quickly")

// SendLimiter enforces the minimum interval between outbound messages.
// A token is only consumed on an accepted send, so a rejected attempt does
// not push the window further out.
type SendLimiter struct {
	lim *rate.Limiter
}

// NewSendLimiter allows one send per minInterval with no burst allowance.
func NewSendLimiter(minInterval time.Duration) *SendLimiter {
	return &SendLimiter{lim: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Allow reports whether a send may proceed now.
func (s *SendLimiter) Allow() error {
	return s.allowAt(time.Now())
}

func (s *SendLimiter) allowAt(t time.Time) error {
	if !s.lim.AllowN(t, 1) {
		return ErrTooSoon
	}
	return nil
}
