// Package client is a Go SDK for the admin console HTTP API.
//
// A Client carries at most one bearer token.  It satisfies
// session.Credentials, so a console session can be driven against a remote
// server exactly as the server drives one against its own store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// TransportError reports a request that failed on the wire or was answered
// with a non-2xx status.
type TransportError struct {
	Method  string
	Path    string
	Status  int    // 0 when no response arrived
	Message string // the server's {"error"} text, or the status text
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("client: %s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("client: %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Status
	}
	return 0
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithToken starts the client with a bearer and refresh token, typically
// ones saved by an earlier login.
func WithToken(token, refresh string) Option {
	return func(c *Client) { c.token, c.refresh = token, refresh }
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.Mutex
	token   string
	refresh string
}

// New returns a client for the server at baseURL with a 30 second request
// timeout.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// RefreshToken returns the current refresh token.
func (c *Client) RefreshToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh
}

// SetToken replaces both tokens.  An empty refresh keeps the current one.
func (c *Client) SetToken(token, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	if refresh != "" {
		c.refresh = refresh
	}
}

func (c *Client) clearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token, c.refresh = "", ""
}

// do sends body as JSON and decodes a 2xx answer into target when target is
// non-nil.  Anything else comes back as *TransportError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, target any) error {
	var r io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		r = bytes.NewReader(bs)
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return &TransportError{Method: method, Path: path, Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bs, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := http.StatusText(resp.StatusCode)
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(bs, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &TransportError{Method: method, Path: path, Status: resp.StatusCode, Message: msg}
	}
	if target == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &TransportError{Method: method, Path: path, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, target any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, target)
}

func (c *Client) post(ctx context.Context, path string, body, target any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, target)
}

func (c *Client) put(ctx context.Context, path string, body, target any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, target)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Health reports whether the server answers /readyz.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/readyz", nil, nil)
}
