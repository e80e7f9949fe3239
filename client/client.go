// Package client assembles the receiving side of an agent interface:
// transport frames are parsed into events and dispatched through a
// router that feeds streaming buffers, the shared state document, and
// the surface engine.
//
// One goroutine owns the feed. Frames arrive in order, each event's
// dispatch completes before the next begins, and every callback fires
// on that goroutine, which preserves the engine's single-threaded
// processing model without asking hosts to lock anything.
package client

import (
	"context"
	"sync"

	"github.com/spetersoncode/fresco"
	"github.com/spetersoncode/fresco/buffer"
	"github.com/spetersoncode/fresco/engine"
	"github.com/spetersoncode/fresco/patch"
	"github.com/spetersoncode/fresco/router"
	"github.com/spetersoncode/fresco/store"
	"github.com/spetersoncode/fresco/transport"
)

// Client owns the router, buffers, state document, and engine for one
// agent connection.
type Client struct {
	cfg Config

	router   *router.Router
	store    *store.Store
	engine   *engine.Engine
	messages *buffer.MessageBinding
	tools    *buffer.ToolBinding

	mu        sync.Mutex
	state     map[string]any
	log       []fresco.Message
	stream    *transport.SSE
	connected bool
	closed    bool

	done chan struct{}
}

// New assembles a client. The returned client can Feed events
// immediately; Connect is only needed when the built-in transport
// should supply them.
func New(cfg Config) *Client {
	c := &Client{
		cfg:   cfg,
		state: map[string]any{},
		done:  make(chan struct{}),
	}

	c.router = router.New(router.WithErrorHandler(c.report))
	c.store = store.New()

	engOpts := []engine.Option{engine.WithErrorHandler(c.report)}
	if cfg.DefaultSurface != "" {
		engOpts = append(engOpts, engine.WithDefaultSurface(cfg.DefaultSurface))
	}
	if cfg.OnRenderTree != nil {
		engOpts = append(engOpts, engine.WithOnRender(cfg.OnRenderTree))
	}
	if cfg.OnSurfaceDeleted != nil {
		engOpts = append(engOpts, engine.WithOnSurfaceDeleted(cfg.OnSurfaceDeleted))
	}
	c.engine = engine.New(c.store, cfg.Registry, engOpts...)
	c.engine.Attach(c.router)

	c.messages = buffer.BindMessages(c.router, buffer.MessageCallbacks{
		OnStart:    cfg.OnTextStart,
		OnChunk:    cfg.OnTextChunk,
		OnComplete: cfg.OnTextComplete,
	})
	c.tools = buffer.BindToolCalls(c.router, buffer.ToolCallbacks{
		OnStart:  cfg.OnToolStart,
		OnArgs:   cfg.OnToolArgs,
		OnResult: cfg.OnToolResult,
		OnEnd:    cfg.OnToolEnd,
	})

	c.router.On(fresco.EventTypeRunStarted, c.handleRunStarted)
	c.router.On(fresco.EventTypeRunFinished, c.handleRunFinished)
	c.router.On(fresco.EventTypeRunError, c.handleRunError)
	c.router.On(fresco.EventTypeStateSnapshot, c.handleStateSnapshot)
	c.router.On(fresco.EventTypeStateDelta, c.handleStateDelta)
	c.router.On(fresco.EventTypeMessagesSnapshot, c.handleMessagesSnapshot)

	return c
}

// Connect starts the built-in transport against the configured endpoint
// and feeds its frames until the stream ends. Connect may be called
// once per client.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fresco.NewContractError("client is closed")
	}
	if c.connected {
		c.mu.Unlock()
		return fresco.NewContractError("client already connected")
	}
	if c.cfg.Endpoint == "" {
		c.mu.Unlock()
		return fresco.NewContractError("no endpoint configured")
	}

	opts := []transport.Option{transport.WithErrorHandler(c.report)}
	if c.cfg.HTTPClient != nil {
		opts = append(opts, transport.WithHTTPClient(c.cfg.HTTPClient))
	}
	if c.cfg.Retry != nil {
		opts = append(opts, transport.WithRetry(*c.cfg.Retry))
	}
	if c.cfg.Body != nil {
		opts = append(opts, transport.WithBody(c.cfg.Body))
	}
	for key, value := range c.cfg.Header {
		opts = append(opts, transport.WithHeader(key, value))
	}
	stream := transport.New(c.cfg.Endpoint, opts...)
	c.stream = stream
	c.connected = true
	c.mu.Unlock()

	if err := stream.Connect(ctx); err != nil {
		c.mu.Lock()
		c.connected = false
		c.stream = nil
		c.mu.Unlock()
		return err
	}

	go c.consume(stream)
	return nil
}

// consume is the feed goroutine: every frame is parsed and dispatched
// before the next is read.
func (c *Client) consume(stream *transport.SSE) {
	defer close(c.done)
	for frame := range stream.Frames() {
		if frame.Data == "" {
			continue
		}
		ev, err := fresco.ParseEvent([]byte(frame.Data))
		if err != nil {
			c.report(err, "parse")
			continue
		}
		c.router.Dispatch(ev)
	}
}

// Feed dispatches one event synchronously. Hosts with their own
// transport call this instead of Connect; it must not be called
// concurrently with an active Connect stream.
func (c *Client) Feed(ev fresco.Event) {
	if ev == nil {
		return
	}
	c.router.Dispatch(ev)
}

// FeedRaw parses one wire payload and feeds it. The parse error is
// returned rather than reported, since the caller owns the payload.
func (c *Client) FeedRaw(data []byte) error {
	ev, err := fresco.ParseEvent(data)
	if err != nil {
		return err
	}
	c.Feed(ev)
	return nil
}

// Done closes when the stream has ended and every event from it has
// been dispatched.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// State returns a deep copy of the shared state document.
func (c *Client) State() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return patch.Clone(c.state)
}

// Messages returns a copy of the conversation log from the last
// MESSAGES_SNAPSHOT.
func (c *Client) Messages() []fresco.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]fresco.Message(nil), c.log...)
}

// RenderTree builds the current tree for a surface; empty surfaceID
// means the default surface.
func (c *Client) RenderTree(surfaceID string) *engine.RenderNode {
	return c.engine.RenderTree(surfaceID)
}

// Router exposes the dispatch router so hosts can register additional
// handlers, such as step progress or custom extensions.
func (c *Client) Router() *router.Router {
	return c.router
}

// Engine exposes the surface engine.
func (c *Client) Engine() *engine.Engine {
	return c.engine
}

// Store exposes the surface data model.
func (c *Client) Store() *store.Store {
	return c.store
}

// Reset drops all surfaces, the data model, buffered streams, the state
// document, and the message log. Registrations stay.
func (c *Client) Reset() {
	c.engine.Reset()
	c.messages.Buffer().Clear()
	c.tools.Buffer().Clear()

	c.mu.Lock()
	c.state = map[string]any{}
	c.log = nil
	c.mu.Unlock()
}

// Close stops the transport stream, if any. The client cannot be
// reconnected afterwards; Feed keeps working.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	stream := c.stream
	c.mu.Unlock()

	if stream != nil {
		stream.Close()
	}
}

func (c *Client) handleRunStarted(ev fresco.Event) error {
	e, ok := ev.(*fresco.RunStartedEvent)
	if !ok {
		return nil
	}
	if c.cfg.OnRunStarted != nil {
		c.cfg.OnRunStarted(e.ThreadID, e.RunID)
	}
	return nil
}

func (c *Client) handleRunFinished(ev fresco.Event) error {
	e, ok := ev.(*fresco.RunFinishedEvent)
	if !ok {
		return nil
	}
	if c.cfg.OnRunFinished != nil {
		c.cfg.OnRunFinished(e.ThreadID, e.RunID)
	}
	return nil
}

func (c *Client) handleRunError(ev fresco.Event) error {
	e, ok := ev.(*fresco.RunErrorEvent)
	if !ok {
		return nil
	}
	if c.cfg.OnRunError != nil {
		c.cfg.OnRunError(e.Message, e.Code)
	}
	return nil
}

func (c *Client) handleStateSnapshot(ev fresco.Event) error {
	e, ok := ev.(*fresco.StateSnapshotEvent)
	if !ok {
		return nil
	}

	c.mu.Lock()
	c.state = patch.Clone(e.Snapshot)
	snapshot := patch.Clone(c.state)
	c.mu.Unlock()

	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(snapshot)
	}
	return nil
}

func (c *Client) handleStateDelta(ev fresco.Event) error {
	e, ok := ev.(*fresco.StateDeltaEvent)
	if !ok {
		return nil
	}

	c.mu.Lock()
	next, results := patch.Apply(c.state, e.Delta)
	c.state = next
	snapshot := patch.Clone(next)
	c.mu.Unlock()

	// Failed operations are reported individually; the rest of the
	// delta has already been applied.
	for _, res := range results {
		if res.Err != nil {
			c.report(fresco.NewPatchError("apply state delta", res.Op.Path, res.Err), "state")
		}
	}

	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(snapshot)
	}
	return nil
}

func (c *Client) handleMessagesSnapshot(ev fresco.Event) error {
	e, ok := ev.(*fresco.MessagesSnapshotEvent)
	if !ok {
		return nil
	}

	c.mu.Lock()
	c.log = append([]fresco.Message(nil), e.Messages...)
	c.mu.Unlock()
	return nil
}

func (c *Client) report(err error, context string) {
	if c.cfg.OnError != nil {
		c.cfg.OnError(err, context)
	}
}
