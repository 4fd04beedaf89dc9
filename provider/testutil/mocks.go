package testutil

import (
	"context"
	"sync"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"searchpipe/model"
)

// MockProvider implements model.Provider for testing
type MockProvider struct {
	// Configurable responses
	ChatFunc          func(ctx context.Context, messages []model.Message, callback model.StreamCallback) error
	ChatWithToolsFunc func(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error

	currentModel string

	mu    sync.Mutex
	calls [][]model.Message
}

// NewMockProvider creates a mock provider with default implementations
func NewMockProvider(modelName string) *MockProvider {
	mock := &MockProvider{currentModel: modelName}
	mock.ChatFunc = mock.defaultChat
	mock.ChatWithToolsFunc = mock.defaultChatWithTools
	return mock
}

func (m *MockProvider) defaultChat(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
	if len(messages) > 0 {
		return callback("Mock response", nil)
	}
	return nil
}

func (m *MockProvider) defaultChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	return callback("Mock response with tools", nil)
}

func (m *MockProvider) record(messages []model.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]model.Message(nil), messages...))
}

// Calls returns the message lists of every call so far.
func (m *MockProvider) Calls() [][]model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]model.Message(nil), m.calls...)
}

func (m *MockProvider) Chat(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
	m.record(messages)
	return m.ChatFunc(ctx, messages, callback)
}

func (m *MockProvider) ChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	m.record(messages)
	return m.ChatWithToolsFunc(ctx, messages, tools, callback)
}

func (m *MockProvider) GetModel() string {
	return m.currentModel
}

func (m *MockProvider) Name() string {
	return "mock"
}

// Step is one scripted model turn.
type Step struct {
	Text      []string
	ToolCalls []model.ToolInvocation
	Err       error

	// Block waits for ctx to end before returning its error.
	Block bool
}

// NewScriptedProvider returns a mock that plays steps in order, one per call.
// Calls beyond the script answer with an empty turn.
func NewScriptedProvider(steps ...Step) *MockProvider {
	mock := NewMockProvider("scripted")
	var mu sync.Mutex
	next := 0

	play := func(ctx context.Context, callback model.StreamCallback) error {
		mu.Lock()
		if next >= len(steps) {
			mu.Unlock()
			return nil
		}
		step := steps[next]
		next++
		mu.Unlock()

		for _, text := range step.Text {
			if err := callback(text, nil); err != nil {
				return err
			}
		}
		if len(step.ToolCalls) > 0 {
			if err := callback("", step.ToolCalls); err != nil {
				return err
			}
		}
		if step.Block {
			<-ctx.Done()
			return ctx.Err()
		}
		return step.Err
	}

	mock.ChatFunc = func(ctx context.Context, _ []model.Message, callback model.StreamCallback) error {
		return play(ctx, callback)
	}
	mock.ChatWithToolsFunc = func(ctx context.Context, _ []model.Message, _ []mcptypes.Tool, callback model.StreamCallback) error {
		return play(ctx, callback)
	}
	return mock
}
