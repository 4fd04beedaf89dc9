package model

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	// RoleTool marks a tool result appended by the agent loop. It never
	// appears in caller-supplied history.
	RoleTool Role = "tool"
)

// Message represents a chat message in the conversation
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolName is set on RoleTool messages.
	ToolName string `json:"tool_name,omitempty"`
}

// SystemMessage builds a system turn.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user turn.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant turn.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolMessage builds a tool-result turn.
func ToolMessage(toolName, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolName: toolName}
}
