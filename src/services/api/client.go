// client.go - REST client for the telehealth backend. Owns the shared
// bearer-auth + 401→refresh→retry interceptor; endpoint methods live in
// endpoints.go.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"teledesk/src/session"

	"github.com/google/uuid"
)

// Error is a non-2xx API response decoded into a usable shape.
type Error struct {
	Status int    `json:"-"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api: unexpected status %d", e.Status)
}

// Client talks to the backend REST API on behalf of one signed-in doctor.
// Credentials come from the injected session context, never from package
// state.
type Client struct {
	base   string
	http   *http.Client
	sess   *session.Context
	logger *slog.Logger

	refreshMu sync.Mutex // one refresh at a time; late callers reuse the result
}

// NewClient builds a client for the given API base URL, e.g.
// "https://api.example.com".
func NewClient(base string, sess *session.Context, logger *slog.Logger) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: 15 * time.Second},
		sess:   sess,
		logger: logger.With("component", "api"),
	}
}

// do performs an authenticated JSON request. A 401 triggers one token
// refresh followed by one retry; a second 401 is returned to the caller.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body, true)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if err := c.refreshToken(ctx); err != nil {
			return fmt.Errorf("refreshing session: %w", err)
		}
		resp, err = c.send(ctx, method, path, body, true)
		if err != nil {
			return err
		}
	}

	return decode(resp, out)
}

// doUnauthenticated is the path for login/refresh endpoints where no bearer
// token applies.
func (c *Client) doUnauthenticated(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body, false)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, body any, auth bool) (*http.Response, error) {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		buf = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.sess.Access())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// refreshToken trades the refresh token for a new access token and stores
// it on the session context.
func (c *Client) refreshToken(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.logger.Info("access token rejected, refreshing")
	var out struct {
		Access string `json:"access"`
	}
	in := map[string]string{"refresh": c.sess.Refresh()}
	if err := c.doUnauthenticated(ctx, http.MethodPost, "/api/auth/token/refresh/", in, &out); err != nil {
		return err
	}
	return c.sess.SetAccess(out.Access)
}

// Upload sends one file as multipart form data and returns its CDN URL.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/uploads/", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.sess.Access())
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := decode(resp, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
