package fresco

// Role represents the role of a message author in the conversation log.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
	RoleDeveloper Role = "developer"
)

// Message is one entry in the conversation log carried by
// MESSAGES_SNAPSHOT events. Streamed messages are reassembled from
// TEXT_MESSAGE_* fragments by the buffer package; a snapshot replaces the
// whole log at once, which servers use for restore and reconnect.
type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	// Name carries the tool name on tool-result messages.
	Name string `json:"name,omitempty"`
	// ToolCallID ties a tool-result message to the call it answers.
	ToolCallID string `json:"toolCallId,omitempty"`
	// ToolCalls lists completed tool invocations issued by an assistant
	// message.
	ToolCalls []MessageToolCall `json:"toolCalls,omitempty"`
}

// MessageToolCall summarizes one tool invocation on an assistant message.
type MessageToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args,omitempty"`
}
