// Package agui bridges fresco's native event types to the AG-UI
// community Go SDK.
//
// The two sides share the AG-UI wire protocol, so the bridge is a 1:1
// mapping: ToSDK builds SDK events through their constructors for
// serving, FromSDK turns SDK events back into fresco events for
// feeding a client. Message conversion utilities translate between
// fresco's flat tool-call summaries and the SDK's function-call form.
//
// The package carries no state and all functions are safe for
// concurrent use.
package agui

import (
	"fmt"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/fresco"
	"github.com/spetersoncode/fresco/patch"
)

// ToSDK converts a fresco event to its AG-UI SDK equivalent.
func ToSDK(ev fresco.Event) (events.Event, error) {
	switch e := ev.(type) {
	case nil:
		return nil, fresco.NewContractError("cannot convert nil event")

	case *fresco.RunStartedEvent:
		return events.NewRunStartedEvent(e.ThreadID, e.RunID), nil
	case *fresco.RunFinishedEvent:
		return events.NewRunFinishedEvent(e.ThreadID, e.RunID), nil
	case *fresco.RunErrorEvent:
		if e.Code != "" {
			return events.NewRunErrorEvent(e.Message, events.WithErrorCode(e.Code)), nil
		}
		return events.NewRunErrorEvent(e.Message), nil

	case *fresco.StepStartedEvent:
		return events.NewStepStartedEvent(e.StepName), nil
	case *fresco.StepFinishedEvent:
		return events.NewStepFinishedEvent(e.StepName), nil

	case *fresco.TextMessageStartEvent:
		if e.Role != "" {
			return events.NewTextMessageStartEvent(e.MessageID, events.WithRole(string(e.Role))), nil
		}
		return events.NewTextMessageStartEvent(e.MessageID), nil
	case *fresco.TextMessageContentEvent:
		return events.NewTextMessageContentEvent(e.MessageID, e.Delta), nil
	case *fresco.TextMessageEndEvent:
		return events.NewTextMessageEndEvent(e.MessageID), nil

	case *fresco.ToolCallStartEvent:
		if e.ParentMessageID != "" {
			return events.NewToolCallStartEvent(e.ToolCallID, e.ToolCallName,
				events.WithParentMessageID(e.ParentMessageID)), nil
		}
		return events.NewToolCallStartEvent(e.ToolCallID, e.ToolCallName), nil
	case *fresco.ToolCallArgsEvent:
		return events.NewToolCallArgsEvent(e.ToolCallID, e.Delta), nil
	case *fresco.ToolCallEndEvent:
		return events.NewToolCallEndEvent(e.ToolCallID), nil
	case *fresco.ToolCallResultEvent:
		return events.NewToolCallResultEvent(e.MessageID, e.ToolCallID, e.Content), nil

	case *fresco.StateSnapshotEvent:
		return events.NewStateSnapshotEvent(e.Snapshot), nil
	case *fresco.StateDeltaEvent:
		return events.NewStateDeltaEvent(toSDKPatch(e.Delta)), nil
	case *fresco.MessagesSnapshotEvent:
		return events.NewMessagesSnapshotEvent(ToSDKMessages(e.Messages)), nil

	case *fresco.CustomEvent:
		if e.Value != nil {
			return events.NewCustomEvent(e.Name, events.WithValue(e.Value)), nil
		}
		return events.NewCustomEvent(e.Name), nil
	case *fresco.RawEvent:
		return events.NewRawEvent(e.Event), nil

	default:
		return nil, fresco.NewContractError(fmt.Sprintf("no AG-UI mapping for event type %s", ev.Type()))
	}
}

// FromSDK converts an AG-UI SDK event back to a fresco event. The two
// sides share the wire protocol, so conversion goes through the SDK's
// JSON form; message snapshots are handled separately because the SDK
// nests tool calls in function-call form.
func FromSDK(ev events.Event) (fresco.Event, error) {
	if ev == nil {
		return nil, fresco.NewContractError("cannot convert nil event")
	}
	if snap, ok := ev.(*events.MessagesSnapshotEvent); ok {
		out := &fresco.MessagesSnapshotEvent{Messages: FromSDKMessages(snap.Messages)}
		out.EventType = fresco.EventTypeMessagesSnapshot
		return out, nil
	}
	data, err := ev.ToJSON()
	if err != nil {
		return nil, fresco.NewParseError("event not serializable", err)
	}
	return fresco.ParseEvent(data)
}

// ToSDKMessages converts fresco messages to AG-UI messages.
func ToSDKMessages(msgs []fresco.Message) []events.Message {
	result := make([]events.Message, 0, len(msgs))
	for _, msg := range msgs {
		result = append(result, ToSDKMessage(msg))
	}
	return result
}

// ToSDKMessage converts a single fresco message. A message without an id
// gets a generated one, since the SDK requires ids.
func ToSDKMessage(msg fresco.Message) events.Message {
	m := events.Message{
		ID:   msg.ID,
		Role: string(msg.Role),
	}
	if m.ID == "" {
		m.ID = events.GenerateMessageID()
	}
	if msg.Content != "" {
		content := msg.Content
		m.Content = &content
	}
	if msg.ToolCallID != "" {
		id := msg.ToolCallID
		m.ToolCallID = &id
	}
	if len(msg.ToolCalls) > 0 {
		m.ToolCalls = make([]events.ToolCall, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			m.ToolCalls[i] = events.ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: events.Function{
					Name:      tc.Name,
					Arguments: tc.Args,
				},
			}
		}
	}
	return m
}

// FromSDKMessages converts AG-UI messages to fresco messages.
func FromSDKMessages(msgs []events.Message) []fresco.Message {
	result := make([]fresco.Message, 0, len(msgs))
	for _, msg := range msgs {
		result = append(result, FromSDKMessage(msg))
	}
	return result
}

// FromSDKMessage converts a single AG-UI message, flattening
// function-call entries into fresco's tool-call summaries.
func FromSDKMessage(msg events.Message) fresco.Message {
	m := fresco.Message{
		ID:   msg.ID,
		Role: fresco.Role(msg.Role),
	}
	if msg.Content != nil {
		m.Content = *msg.Content
	}
	if msg.ToolCallID != nil {
		m.ToolCallID = *msg.ToolCallID
	}
	for _, tc := range msg.ToolCalls {
		m.ToolCalls = append(m.ToolCalls, fresco.MessageToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: tc.Function.Arguments,
		})
	}
	return m
}

func toSDKPatch(ops []patch.Op) []events.JSONPatchOperation {
	result := make([]events.JSONPatchOperation, len(ops))
	for i, op := range ops {
		result[i] = events.JSONPatchOperation{
			Op:    op.Op,
			Path:  op.Path,
			Value: op.Value,
			From:  op.From,
		}
	}
	return result
}
