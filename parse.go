package fresco

import (
	"encoding/json"
	"fmt"
	"time"
)

// ParseEvent decodes one wire payload into a typed event.
//
// Non-object payloads, payloads without a type tag, and unknown tags are
// rejected with a parse-class error; callers drop the message. Malformed
// tag-specific fields are likewise parse errors. A payload without a
// timestamp gets one at receipt time.
func ParseEvent(data []byte) (Event, error) {
	var probe struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, NewParseError("event payload is not a JSON object", err)
	}
	if probe.Type == "" {
		return nil, NewParseError("event payload has no type tag", nil)
	}

	var ev Event
	switch probe.Type {
	case EventTypeRunStarted:
		ev = &RunStartedEvent{}
	case EventTypeRunFinished:
		ev = &RunFinishedEvent{}
	case EventTypeRunError:
		ev = &RunErrorEvent{}
	case EventTypeStepStarted:
		ev = &StepStartedEvent{}
	case EventTypeStepFinished:
		ev = &StepFinishedEvent{}
	case EventTypeTextMessageStart:
		ev = &TextMessageStartEvent{}
	case EventTypeTextMessageContent:
		ev = &TextMessageContentEvent{}
	case EventTypeTextMessageEnd:
		ev = &TextMessageEndEvent{}
	case EventTypeToolCallStart:
		ev = &ToolCallStartEvent{}
	case EventTypeToolCallArgs:
		ev = &ToolCallArgsEvent{}
	case EventTypeToolCallEnd:
		ev = &ToolCallEndEvent{}
	case EventTypeToolCallResult:
		ev = &ToolCallResultEvent{}
	case EventTypeStateSnapshot:
		ev = &StateSnapshotEvent{}
	case EventTypeStateDelta:
		ev = &StateDeltaEvent{}
	case EventTypeMessagesSnapshot:
		ev = &MessagesSnapshotEvent{}
	case EventTypeCustom:
		ev = &CustomEvent{}
	case EventTypeRaw:
		ev = &RawEvent{}
	default:
		return nil, NewParseError(fmt.Sprintf("unknown event type %q", probe.Type), nil)
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, NewParseError(fmt.Sprintf("malformed %s event", probe.Type), err)
	}
	ev.(interface{ defaultTimestamp(time.Time) }).defaultTimestamp(time.Now())
	return ev, nil
}

// defaultTimestamp stamps the event with t when the wire carried no
// timestamp. Promoted to every concrete event through BaseEvent.
func (e *BaseEvent) defaultTimestamp(t time.Time) {
	if e.TimestampMS == 0 {
		e.TimestampMS = t.UnixMilli()
	}
}
