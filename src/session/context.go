// context.go - Explicit session context holding the doctor's credentials.
// Both the REST client and the chat connection manager receive this by
// constructor injection; nothing reads tokens from package-level state.

package session

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned when an operation needs credentials and the
// context holds none (not logged in, or logged out).
var ErrNoSession = errors.New("session: no credentials")

// Identity is the subject baked into the access token.
type Identity struct {
	UserID string
	Name   string
}

// Context owns the access/refresh token pair and the CSRF token the chat
// server expects on outbound frames. Safe for concurrent use: the REST
// client refreshes tokens while the chat manager reads them.
type Context struct {
	mu      sync.RWMutex
	access  string
	refresh string
	csrf    string
	ident   Identity
	expiry  time.Time
}

// New builds a session context from a token pair. Identity and expiry are
// read from the access token's claims; the signature is not verified here,
// the server is the authority.
func New(access, refresh, csrf string) (*Context, error) {
	c := &Context{refresh: refresh, csrf: csrf}
	if err := c.SetAccess(access); err != nil {
		return nil, err
	}
	return c, nil
}

// SetAccess replaces the access token and re-reads its claims.
func (c *Context) SetAccess(access string) error {
	if access == "" {
		return ErrNoSession
	}
	ident, expiry, err := parseClaims(access)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access = access
	c.ident = ident
	c.expiry = expiry
	return nil
}

// Access returns the current access token.
func (c *Context) Access() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access
}

// Refresh returns the refresh token.
func (c *Context) Refresh() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresh
}

// CSRF returns the csrfmiddlewaretoken value for chat frames.
func (c *Context) CSRF() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrf
}

// Identity returns the signed-in doctor's identity.
func (c *Context) Identity() Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ident
}

// ExpiresWithin reports whether the access token expires inside d. Used to
// refresh proactively before opening a chat connection.
func (c *Context) ExpiresWithin(d time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.expiry.IsZero() {
		return false
	}
	return time.Until(c.expiry) < d
}

// parseClaims extracts user_id, name and exp without verifying the
// signature (the client has no signing key; the API rejects bad tokens).
func parseClaims(access string) (Identity, time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return Identity{}, time.Time{}, err
	}
	var ident Identity
	if v, ok := claims["user_id"].(string); ok {
		ident.UserID = v
	}
	if v, ok := claims["name"].(string); ok {
		ident.Name = v
	}
	var expiry time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiry = exp.Time
	}
	return ident, expiry, nil
}
