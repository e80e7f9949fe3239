package fresco

import (
	"encoding/json"
	"time"

	"github.com/spetersoncode/fresco/patch"
)

// EventType identifies the kind of protocol event.
type EventType string

// Run lifecycle events
const (
	EventTypeRunStarted  EventType = "RUN_STARTED"
	EventTypeRunFinished EventType = "RUN_FINISHED"
	EventTypeRunError    EventType = "RUN_ERROR"
)

// Step lifecycle events
const (
	EventTypeStepStarted  EventType = "STEP_STARTED"
	EventTypeStepFinished EventType = "STEP_FINISHED"
)

// Text message events (streaming)
const (
	EventTypeTextMessageStart   EventType = "TEXT_MESSAGE_START"
	EventTypeTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"
	EventTypeTextMessageEnd     EventType = "TEXT_MESSAGE_END"
)

// Tool call events (streaming)
const (
	EventTypeToolCallStart  EventType = "TOOL_CALL_START"
	EventTypeToolCallArgs   EventType = "TOOL_CALL_ARGS"
	EventTypeToolCallEnd    EventType = "TOOL_CALL_END"
	EventTypeToolCallResult EventType = "TOOL_CALL_RESULT"
)

// State management events
const (
	EventTypeStateSnapshot    EventType = "STATE_SNAPSHOT"
	EventTypeStateDelta       EventType = "STATE_DELTA"
	EventTypeMessagesSnapshot EventType = "MESSAGES_SNAPSHOT"
)

// Pass-through events
const (
	EventTypeCustom EventType = "CUSTOM"
	EventTypeRaw    EventType = "RAW"
)

// Event is one parsed protocol event. Concrete types are pointers to the
// event structs in this package; the union is closed at parse time.
type Event interface {
	// Type returns the event's discriminator tag.
	Type() EventType
	// Timestamp returns when the event occurred. Parsing defaults it to
	// receipt time if the wire payload carried none.
	Timestamp() time.Time
}

// BaseEvent carries the fields common to every protocol event.
type BaseEvent struct {
	EventType EventType `json:"type"`
	// TimestampMS is milliseconds since the Unix epoch, 0 if unset.
	TimestampMS int64 `json:"timestamp,omitempty"`
}

// Type returns the event's discriminator tag.
func (e BaseEvent) Type() EventType { return e.EventType }

// Timestamp converts the wire timestamp to a time.Time. Zero if unset.
func (e BaseEvent) Timestamp() time.Time {
	if e.TimestampMS == 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.TimestampMS)
}

// RunStartedEvent signals the beginning of an agent run.
type RunStartedEvent struct {
	BaseEvent
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
}

// RunFinishedEvent signals successful completion of a run.
type RunFinishedEvent struct {
	BaseEvent
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
	Result   any    `json:"result,omitempty"`
}

// RunErrorEvent signals that a run failed.
type RunErrorEvent struct {
	BaseEvent
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// StepStartedEvent marks the beginning of a named processing step.
type StepStartedEvent struct {
	BaseEvent
	StepName string `json:"stepName"`
}

// StepFinishedEvent marks the completion of a named processing step.
type StepFinishedEvent struct {
	BaseEvent
	StepName string `json:"stepName"`
}

// TextMessageStartEvent begins a streamed assistant message.
type TextMessageStartEvent struct {
	BaseEvent
	MessageID string `json:"messageId"`
	Role      Role   `json:"role,omitempty"`
}

// TextMessageContentEvent carries one chunk of streamed message text.
type TextMessageContentEvent struct {
	BaseEvent
	MessageID string `json:"messageId"`
	Delta     string `json:"delta"`
}

// TextMessageEndEvent completes a streamed assistant message.
type TextMessageEndEvent struct {
	BaseEvent
	MessageID string `json:"messageId"`
}

// ToolCallStartEvent begins a streamed tool call. ParentMessageID ties the
// call to the assistant message that issued it.
type ToolCallStartEvent struct {
	BaseEvent
	ToolCallID      string `json:"toolCallId"`
	ToolCallName    string `json:"toolCallName"`
	ParentMessageID string `json:"parentMessageId,omitempty"`
}

// ToolCallArgsEvent carries one chunk of streamed tool-call arguments.
type ToolCallArgsEvent struct {
	BaseEvent
	ToolCallID string `json:"toolCallId"`
	Delta      string `json:"delta"`
}

// ToolCallEndEvent completes tool-call argument transmission.
type ToolCallEndEvent struct {
	BaseEvent
	ToolCallID string `json:"toolCallId"`
}

// ToolCallResultEvent carries the result of an executed tool call.
type ToolCallResultEvent struct {
	BaseEvent
	MessageID  string `json:"messageId"`
	ToolCallID string `json:"toolCallId"`
	Content    string `json:"content"`
}

// StateSnapshotEvent replaces the whole shared state document.
type StateSnapshotEvent struct {
	BaseEvent
	Snapshot map[string]any `json:"snapshot"`
}

// StateDeltaEvent carries an RFC 6902 patch against the prior snapshot.
type StateDeltaEvent struct {
	BaseEvent
	Delta []patch.Op `json:"delta"`
}

// MessagesSnapshotEvent replaces the whole conversation log.
type MessagesSnapshotEvent struct {
	BaseEvent
	Messages []Message `json:"messages"`
}

// CustomEvent is a named, otherwise opaque payload. Surface messages ride
// in custom events; see ParseSurfaceMessage.
type CustomEvent struct {
	BaseEvent
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
}

// RawEvent passes an uninterpreted payload through the stream.
type RawEvent struct {
	BaseEvent
	Event json.RawMessage `json:"event"`
}
