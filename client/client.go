// Package client talks to the kanban REST backend. It also serves as the
// persistence collaborator of boardsync: FetchBoard loads the authoritative
// tree and UpdatePosition persists a single reorder instruction.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"kanban-board/session"
)

const maxErrorBody = 4 << 10

// APIError is a non-2xx response. Message is the response body as sent by
// the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// Retryable reports whether repeating the request may succeed.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	sess    *session.Session
}

// New returns a client for baseURL. The token is taken from sess on every
// request and a 401 clears it. hc may be nil.
func New(baseURL string, sess *session.Session, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if sess == nil {
		sess = session.New(nil)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc, sess: sess}
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *session.Session { return c.sess }

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.sess.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

// do sends a JSON request and decodes a JSON response into out when out is
// not nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any, headers ...string) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := c.check(resp); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) check(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode == http.StatusUnauthorized && c.sess.Token() != "" {
		_ = c.sess.Clear()
	}
	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
}
