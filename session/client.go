// Package session is a REST client for the agent server's session and
// run lifecycle. It is plain request/response; the event stream for a
// run comes from the transport package, not from here.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spetersoncode/fresco"
)

// Client calls the session API under a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// NewClient creates a session client for the given base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSession creates a session. Name is optional.
func (c *Client) CreateSession(ctx context.Context, name string) (*Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/api/sessions", createSessionRequest{Name: name}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessions returns every session on the server.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var out listSessionsResponse
	if err := c.do(ctx, http.MethodGet, "/api/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// DeleteSession removes a session and everything in it.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return fresco.NewContractError("session id is required")
	}
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(id), nil, nil)
}

// StartRun starts an agent run in a session with the given user input.
func (c *Client) StartRun(ctx context.Context, sessionID, input string) (*Run, error) {
	if sessionID == "" {
		return nil, fresco.NewContractError("session id is required")
	}
	var out Run
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/runs"
	if err := c.do(ctx, http.MethodPost, path, startRunRequest{Input: input}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StopRun cancels a running agent run.
func (c *Client) StopRun(ctx context.Context, sessionID, runID string) error {
	if sessionID == "" {
		return fresco.NewContractError("session id is required")
	}
	if runID == "" {
		return fresco.NewContractError("run id is required")
	}
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/runs/" + url.PathEscape(runID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do performs one JSON request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
