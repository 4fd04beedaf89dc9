package provider

import (
	"context"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"

	"searchpipe/config"
	"searchpipe/mcp"
	"searchpipe/model"
	"searchpipe/ollama"
)

const ollamaName = "Ollama"

// OllamaProvider wraps ollama.Client to implement model.Provider.
//
// It converts model.Message to api.Message, mcptypes.Tool to api.Tool and
// api.ToolCall to model.ToolInvocation.
type OllamaProvider struct {
	client *ollama.Client
}

// NewOllamaProvider creates a new Ollama provider instance.
//
// Returns an error if the base URL is invalid.
func NewOllamaProvider(cfg Config) (*OllamaProvider, error) {
	client, err := ollama.NewClient(ollama.Options{
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		HTTPClient:  cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	return &OllamaProvider{client: client}, nil
}

// Chat implements Provider.Chat by delegating to ChatWithTools with no tools.
func (p *OllamaProvider) Chat(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
	return p.ChatWithTools(ctx, messages, nil, callback)
}

// ChatWithTools implements Provider.ChatWithTools with type conversions.
//
// Models without native tool calling still receive the tool list, but only
// in the system prompt; they will answer directly.
func (p *OllamaProvider) ChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	var ollamaTools []api.Tool
	if len(tools) > 0 {
		if p.client.SupportsToolCalling() {
			ollamaTools = mcp.ToOllama(tools)
		} else if config.DebugLog != nil {
			config.DebugLog.Printf("[Ollama] model %s has no tool calling support, tools offered in prompt only", p.client.GetModel())
		}
		if !skipToolInstructions(p.client.GetModel()) {
			messages = append([]model.Message{model.SystemMessage(buildToolInstructions(tools))}, messages...)
		}
	}

	wrapped := func(chunk string, calls []api.ToolCall) error {
		if callback == nil {
			return nil
		}
		invocations := ConvertFromOllamaToolCalls(calls)
		if chunk == "" && len(invocations) == 0 {
			return nil
		}
		return callback(chunk, invocations)
	}

	err := p.client.ChatWithTools(ctx, ConvertToOllamaMessages(messages), ollamaTools, wrapped)
	return mapError(ctx, ollamaName, err)
}

// GetModel implements Provider.GetModel.
func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}

// Name implements Provider.Name.
func (p *OllamaProvider) Name() string {
	return string(ProviderTypeOllama)
}
