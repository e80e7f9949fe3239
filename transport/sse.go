// Package transport connects to an agent endpoint and turns its
// Server-Sent-Events response into a stream of raw frames.
//
// The transport stays below the protocol: it performs SSE framing only
// (event/data/id fields, comment lines, blank-line dispatch) and never
// inspects payloads. A dropped connection is redialed under the retry
// policy, sending Last-Event-ID when the server has supplied event ids;
// a stream the server ends cleanly closes the frame channel instead.
package transport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/spetersoncode/fresco"
	"github.com/spetersoncode/fresco/internal/backoff"
	"github.com/spetersoncode/fresco/retry"
)

// Frame is one Server-Sent Event. Event is empty when the server sent no
// event field; Data joins multi-line data fields with newlines.
type Frame struct {
	Event string
	Data  string
	ID    string
}

// StatusError is a connect attempt rejected with a non-200 response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("server returned %d", e.Code)
}

// StatusCode returns the HTTP status, which the retry policy uses to
// tell rate limits and server errors from permanent rejections.
func (e *StatusError) StatusCode() int { return e.Code }

// SSE streams frames from one endpoint. Create with New, start with
// Connect, consume Frames until the channel closes.
type SSE struct {
	endpoint   string
	httpClient *http.Client
	policy     retry.Config
	method     string
	payload    []byte
	header     http.Header
	onError    fresco.ErrorHandler

	mu        sync.Mutex
	lastID    string
	connected bool
	closed    bool
	cancel    context.CancelFunc

	frames chan Frame
}

// Option configures an SSE transport.
type Option func(*SSE)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *SSE) {
		s.httpClient = c
	}
}

// WithRetry sets the reconnect policy.
func WithRetry(cfg retry.Config) Option {
	return func(s *SSE) {
		s.policy = cfg
	}
}

// WithHeader adds a header to every request, such as an authorization
// token.
func WithHeader(key, value string) Option {
	return func(s *SSE) {
		s.header.Set(key, value)
	}
}

// WithBody switches the transport to POST and sends body as the JSON
// request payload on every connect, including reconnects.
func WithBody(body []byte) Option {
	return func(s *SSE) {
		s.method = http.MethodPost
		s.payload = body
	}
}

// WithErrorHandler sets the handler for reconnect and stream failures.
func WithErrorHandler(h fresco.ErrorHandler) Option {
	return func(s *SSE) {
		s.onError = h
	}
}

// New creates a transport for the given endpoint. The default request is
// a GET with the default retry policy.
func New(endpoint string, opts ...Option) *SSE {
	s := &SSE{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
		policy:     retry.DefaultConfig(),
		method:     http.MethodGet,
		header:     http.Header{},
		frames:     make(chan Frame),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect establishes the stream. The first connection is made before
// Connect returns, so endpoint problems surface immediately; afterwards
// a background reader feeds Frames and redials dropped connections.
// Connect may be called once per transport.
func (s *SSE) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fresco.NewContractError("transport is closed")
	}
	if s.connected {
		s.mu.Unlock()
		return fresco.NewContractError("transport already connected")
	}
	s.connected = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	resp, err := backoff.Do(ctx, s.policy, func() (*http.Response, error) {
		return s.dial(ctx)
	})
	if err != nil {
		s.mu.Lock()
		if !s.closed {
			s.closed = true
			s.cancel()
		}
		close(s.frames)
		s.mu.Unlock()
		return fmt.Errorf("connect %s: %w", s.endpoint, err)
	}

	go s.run(ctx, resp)
	return nil
}

// Frames returns the channel of received frames. It closes when the
// server ends the stream, reconnection gives up, or Close is called.
func (s *SSE) Frames() <-chan Frame {
	return s.frames
}

// Close stops the stream. Safe to call more than once.
func (s *SSE) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	if !s.connected {
		// No reader goroutine owns the channel, close it here.
		close(s.frames)
	}
}

// run consumes the current response and redials when the stream drops.
func (s *SSE) run(ctx context.Context, resp *http.Response) {
	defer close(s.frames)

	for {
		err := s.consume(ctx, resp)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			// Server finished the stream.
			return
		}
		if !retry.IsTransient(err) {
			s.report(err)
			return
		}
		s.report(fmt.Errorf("stream dropped, reconnecting: %w", err))

		next, err := backoff.Do(ctx, s.policy, func() (*http.Response, error) {
			return s.dial(ctx)
		})
		if err != nil {
			if ctx.Err() == nil {
				s.report(fmt.Errorf("reconnect %s: %w", s.endpoint, err))
			}
			return
		}
		resp = next
	}
}

// dial performs one HTTP request and checks the streaming response.
func (s *SSE) dial(ctx context.Context) (*http.Response, error) {
	var body io.Reader
	if s.payload != nil {
		body = bytes.NewReader(s.payload)
	}
	req, err := http.NewRequestWithContext(ctx, s.method, s.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if s.payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range s.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if last := s.lastEventID(); last != "" {
		req.Header.Set("Last-Event-ID", last)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(strings.ToLower(ct), "text/event-stream") {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected content type %q", ct)
	}
	return resp, nil
}

// consume reads frames from one response body until the stream ends.
// A clean end returns nil; an abrupt cut returns the read error.
func (s *SSE) consume(ctx context.Context, resp *http.Response) error {
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	var frame Frame
	var data []byte
	pending := false

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if !pending {
				continue
			}
			frame.Data = string(data)
			if frame.ID != "" {
				s.setLastEventID(frame.ID)
			}
			select {
			case s.frames <- frame:
			case <-ctx.Done():
				return ctx.Err()
			}
			frame = Frame{}
			data = nil
			pending = false
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := cutField(line)
		switch field {
		case "event":
			frame.Event = value
			pending = true
		case "data":
			if len(data) > 0 {
				data = append(data, '\n')
			}
			data = append(data, value...)
			pending = true
		case "id":
			frame.ID = value
			pending = true
		}
	}
}

// cutField splits an SSE line into field name and value, stripping the
// single optional space after the colon.
func cutField(line string) (string, string) {
	field, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	value = strings.TrimPrefix(value, " ")
	return field, value
}

func (s *SSE) lastEventID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastID
}

func (s *SSE) setLastEventID(id string) {
	s.mu.Lock()
	s.lastID = id
	s.mu.Unlock()
}

func (s *SSE) report(err error) {
	if s.onError != nil {
		s.onError(err, "transport")
	}
}
