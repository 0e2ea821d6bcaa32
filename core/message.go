package core

// Function is the concrete call target of a tool call: the tool name plus
// its arguments as a JSON-encoded string, exactly as returned by the model.
type Function struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall represents a single tool invocation requested by the model.
// The ID is unique per assistant turn and correlates the eventual tool
// message back to this call.
type ToolCall struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"` // "function"
	Function Function `json:"function"`
}

// Message is one entry in a conversation. Messages are treated as immutable
// once created; construct them through the factory functions below.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message carrying only text.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolMessage creates a tool result message. Name is the tool's name and
// toolCallID correlates the result with the assistant's tool call.
func ToolMessage(content, name, toolCallID string) Message {
	return Message{Role: RoleTool, Content: content, Name: name, ToolCallID: toolCallID}
}

// FromToolCalls creates an assistant message that carries the model's tool
// calls alongside any textual content from the same turn.
func FromToolCalls(content string, toolCalls []ToolCall) Message {
	calls := make([]ToolCall, len(toolCalls))
	copy(calls, toolCalls)
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}
