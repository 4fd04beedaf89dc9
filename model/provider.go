package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Provider abstracts the chat model used by agent mode (OpenRouter, Anthropic, Ollama)
// using provider-agnostic types from this package.
//
// This interface is defined in the model package (not provider package) to avoid
// import cycles: provider implementations import model, and the agent loop can use
// the Provider interface without importing the provider package.
type Provider interface {
	// Chat sends messages and streams responses back via callback.
	Chat(ctx context.Context, messages []Message, callback StreamCallback) error

	// ChatWithTools sends messages with available tools and streams responses.
	// Tool calls requested by the model are delivered through the callback.
	ChatWithTools(ctx context.Context, messages []Message, tools []mcptypes.Tool, callback StreamCallback) error

	// GetModel returns the configured model name.
	GetModel() string

	// Name returns the provider id ("openrouter", "anthropic", "ollama").
	Name() string
}

// StreamCallback is called for each chunk of streamed response.
type StreamCallback func(chunk string, toolCalls []ToolInvocation) error

// ToolInvocation is a tool call requested by the model.
type ToolInvocation struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}
