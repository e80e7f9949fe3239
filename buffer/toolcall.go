package buffer

import (
	"sync"
	"time"
)

// Status describes where a tool call is in its lifecycle.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
)

// ToolCall is the accumulated state of one streamed tool invocation.
// Unlike messages, completed calls stay in the buffer until Clear so
// renderers can show finished work alongside running work.
type ToolCall struct {
	MessageID  string
	ToolCallID string
	Name       string
	Args       string
	Result     string
	// HasResult distinguishes an empty result payload from a call whose
	// result never arrived.
	HasResult bool
	Status    Status
	StartTime time.Time
	EndTime   time.Time
}

type callKey struct {
	messageID  string
	toolCallID string
}

// ToolCallBuffer collects argument deltas and results per
// (messageID, toolCallID) pair. Safe for concurrent use.
type ToolCallBuffer struct {
	mu    sync.Mutex
	calls map[callKey]*ToolCall
}

// NewToolCallBuffer creates an empty buffer.
func NewToolCallBuffer() *ToolCallBuffer {
	return &ToolCallBuffer{calls: make(map[callKey]*ToolCall)}
}

// Start begins tracking a tool call with status running. Restarting an
// existing pair resets its accumulation.
func (b *ToolCallBuffer) Start(messageID, toolCallID, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[callKey{messageID, toolCallID}] = &ToolCall{
		MessageID:  messageID,
		ToolCallID: toolCallID,
		Name:       name,
		Status:     StatusRunning,
		StartTime:  time.Now(),
	}
}

// AppendArgs adds a delta to the call's argument accumulation and
// returns the arguments so far. Appending to an untracked pair starts
// it implicitly with an empty name.
func (b *ToolCallBuffer) AppendArgs(messageID, toolCallID, delta string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	call := b.getOrCreate(callKey{messageID, toolCallID})
	call.Args += delta
	return call.Args
}

// SetResult stores the raw result payload. The call's status is left
// unchanged; results routinely arrive after the call has ended.
func (b *ToolCallBuffer) SetResult(messageID, toolCallID, result string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	call := b.getOrCreate(callKey{messageID, toolCallID})
	call.Result = result
	call.HasResult = true
}

// End marks the call done and stamps its end time, returning the final
// record. It reports false when the pair was never tracked.
func (b *ToolCallBuffer) End(messageID, toolCallID string) (ToolCall, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	call, ok := b.calls[callKey{messageID, toolCallID}]
	if !ok {
		return ToolCall{}, false
	}
	call.Status = StatusDone
	call.EndTime = time.Now()
	return *call, true
}

// Get returns a copy of the call's current state.
func (b *ToolCallBuffer) Get(messageID, toolCallID string) (ToolCall, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	call, ok := b.calls[callKey{messageID, toolCallID}]
	if !ok {
		return ToolCall{}, false
	}
	return *call, true
}

// GetByMessage returns copies of every call attached to the message,
// keyed by tool call id.
func (b *ToolCallBuffer) GetByMessage(messageID string) map[string]ToolCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]ToolCall)
	for key, call := range b.calls {
		if key.messageID == messageID {
			out[key.toolCallID] = *call
		}
	}
	return out
}

// Clear drops all tracked calls.
func (b *ToolCallBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = make(map[callKey]*ToolCall)
}

func (b *ToolCallBuffer) getOrCreate(key callKey) *ToolCall {
	call, ok := b.calls[key]
	if !ok {
		call = &ToolCall{
			MessageID:  key.messageID,
			ToolCallID: key.toolCallID,
			Status:     StatusRunning,
			StartTime:  time.Now(),
		}
		b.calls[key] = call
	}
	return call
}
