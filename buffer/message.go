// Package buffer accumulates streamed message and tool-call fragments
// into whole values, and binds that accumulation to a router so the
// relevant lifecycle events drive it automatically.
package buffer

import (
	"strings"
	"sync"
)

// MessageBuffer collects text deltas per message id until the message
// ends. Safe for concurrent use.
type MessageBuffer struct {
	mu    sync.Mutex
	order []string
	parts map[string]*strings.Builder
}

// NewMessageBuffer creates an empty buffer.
func NewMessageBuffer() *MessageBuffer {
	return &MessageBuffer{parts: make(map[string]*strings.Builder)}
}

// Start begins tracking a message with empty content. Starting an
// already-tracked id resets its accumulation.
func (b *MessageBuffer) Start(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.parts[id]; !ok {
		b.order = append(b.order, id)
	}
	b.parts[id] = &strings.Builder{}
}

// Append adds a delta to the message's accumulation and returns the
// content so far. Appending to an untracked id starts it implicitly.
func (b *MessageBuffer) Append(id, delta string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	sb, ok := b.parts[id]
	if !ok {
		sb = &strings.Builder{}
		b.parts[id] = sb
		b.order = append(b.order, id)
	}
	sb.WriteString(delta)
	return sb.String()
}

// End stops tracking the message and returns its final content. The
// second result reports whether the id was tracked.
func (b *MessageBuffer) End(id string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sb, ok := b.parts[id]
	if !ok {
		return "", false
	}
	delete(b.parts, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return sb.String(), true
}

// Get returns the accumulated content for a tracked message.
func (b *MessageBuffer) Get(id string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sb, ok := b.parts[id]
	if !ok {
		return "", false
	}
	return sb.String(), true
}

// Has reports whether the id is currently tracked.
func (b *MessageBuffer) Has(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.parts[id]
	return ok
}

// ActiveIDs returns the tracked message ids in the order tracking began.
func (b *MessageBuffer) ActiveIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, len(b.order))
	copy(ids, b.order)
	return ids
}

// Clear drops all tracked messages.
func (b *MessageBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.order = nil
	b.parts = make(map[string]*strings.Builder)
}
