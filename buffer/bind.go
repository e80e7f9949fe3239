package buffer

import (
	"sync"

	"github.com/spetersoncode/fresco"
	"github.com/spetersoncode/fresco/router"
)

// MessageCallbacks receives aggregation milestones as message events
// stream in. Any field may be nil.
type MessageCallbacks struct {
	OnStart    func(messageID, role string)
	OnChunk    func(messageID, accumulated, delta string)
	OnComplete func(messageID, content string)
}

// MessageBinding couples a MessageBuffer to a router's text message
// events. Unsubscribe detaches the registrations and clears the buffer
// so partially streamed messages never leak across reconnects.
type MessageBinding struct {
	buf  *MessageBuffer
	offs []func()
}

// BindMessages registers text message handlers on the router and
// returns the binding that owns the backing buffer.
func BindMessages(r *router.Router, cb MessageCallbacks) *MessageBinding {
	b := &MessageBinding{buf: NewMessageBuffer()}
	b.offs = append(b.offs,
		r.On(fresco.EventTypeTextMessageStart, func(ev fresco.Event) error {
			e, ok := ev.(*fresco.TextMessageStartEvent)
			if !ok {
				return nil
			}
			b.buf.Start(e.MessageID)
			if cb.OnStart != nil {
				cb.OnStart(e.MessageID, string(e.Role))
			}
			return nil
		}),
		r.On(fresco.EventTypeTextMessageContent, func(ev fresco.Event) error {
			e, ok := ev.(*fresco.TextMessageContentEvent)
			if !ok {
				return nil
			}
			accumulated := b.buf.Append(e.MessageID, e.Delta)
			if cb.OnChunk != nil {
				cb.OnChunk(e.MessageID, accumulated, e.Delta)
			}
			return nil
		}),
		r.On(fresco.EventTypeTextMessageEnd, func(ev fresco.Event) error {
			e, ok := ev.(*fresco.TextMessageEndEvent)
			if !ok {
				return nil
			}
			content, _ := b.buf.End(e.MessageID)
			if cb.OnComplete != nil {
				cb.OnComplete(e.MessageID, content)
			}
			return nil
		}),
	)
	return b
}

// Buffer returns the buffer the binding accumulates into.
func (b *MessageBinding) Buffer() *MessageBuffer { return b.buf }

// Unsubscribe detaches all router registrations and clears the buffer.
func (b *MessageBinding) Unsubscribe() {
	for _, off := range b.offs {
		off()
	}
	b.offs = nil
	b.buf.Clear()
}

// ToolCallbacks receives aggregation milestones as tool call events
// stream in. Any field may be nil.
type ToolCallbacks struct {
	OnStart  func(messageID, toolCallID, name string)
	OnArgs   func(messageID, toolCallID, accumulated, delta string)
	OnResult func(messageID, toolCallID, result string)
	OnEnd    func(messageID, toolCallID string, call ToolCall)
}

// ToolBinding couples a ToolCallBuffer to a router's tool call events.
// Argument and end events carry only the tool call id, so the binding
// remembers which message each call belongs to from its start event.
type ToolBinding struct {
	mu      sync.Mutex
	buf     *ToolCallBuffer
	parents map[string]string
	offs    []func()
}

// BindToolCalls registers tool call handlers on the router and returns
// the binding that owns the backing buffer.
func BindToolCalls(r *router.Router, cb ToolCallbacks) *ToolBinding {
	b := &ToolBinding{
		buf:     NewToolCallBuffer(),
		parents: make(map[string]string),
	}
	b.offs = append(b.offs,
		r.On(fresco.EventTypeToolCallStart, func(ev fresco.Event) error {
			e, ok := ev.(*fresco.ToolCallStartEvent)
			if !ok {
				return nil
			}
			b.setParent(e.ToolCallID, e.ParentMessageID)
			b.buf.Start(e.ParentMessageID, e.ToolCallID, e.ToolCallName)
			if cb.OnStart != nil {
				cb.OnStart(e.ParentMessageID, e.ToolCallID, e.ToolCallName)
			}
			return nil
		}),
		r.On(fresco.EventTypeToolCallArgs, func(ev fresco.Event) error {
			e, ok := ev.(*fresco.ToolCallArgsEvent)
			if !ok {
				return nil
			}
			messageID := b.parent(e.ToolCallID)
			accumulated := b.buf.AppendArgs(messageID, e.ToolCallID, e.Delta)
			if cb.OnArgs != nil {
				cb.OnArgs(messageID, e.ToolCallID, accumulated, e.Delta)
			}
			return nil
		}),
		r.On(fresco.EventTypeToolCallResult, func(ev fresco.Event) error {
			e, ok := ev.(*fresco.ToolCallResultEvent)
			if !ok {
				return nil
			}
			b.setParent(e.ToolCallID, e.MessageID)
			b.buf.SetResult(e.MessageID, e.ToolCallID, e.Content)
			if cb.OnResult != nil {
				cb.OnResult(e.MessageID, e.ToolCallID, e.Content)
			}
			return nil
		}),
		r.On(fresco.EventTypeToolCallEnd, func(ev fresco.Event) error {
			e, ok := ev.(*fresco.ToolCallEndEvent)
			if !ok {
				return nil
			}
			messageID := b.parent(e.ToolCallID)
			call, ok := b.buf.End(messageID, e.ToolCallID)
			if ok && cb.OnEnd != nil {
				cb.OnEnd(messageID, e.ToolCallID, call)
			}
			return nil
		}),
	)
	return b
}

// Buffer returns the buffer the binding accumulates into.
func (b *ToolBinding) Buffer() *ToolCallBuffer { return b.buf }

// Unsubscribe detaches all router registrations and clears the buffer.
func (b *ToolBinding) Unsubscribe() {
	for _, off := range b.offs {
		off()
	}
	b.offs = nil
	b.buf.Clear()
	b.mu.Lock()
	b.parents = make(map[string]string)
	b.mu.Unlock()
}

func (b *ToolBinding) setParent(toolCallID, messageID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parents[toolCallID] = messageID
}

func (b *ToolBinding) parent(toolCallID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.parents[toolCallID]
}
