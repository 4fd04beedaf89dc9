package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"searchpipe/config"
	"searchpipe/mcp"
	"searchpipe/model"
)

const anthropicName = "Anthropic"

// AnthropicProvider implements model.Provider using Anthropic's official API.
type AnthropicProvider struct {
	client      *anthropic.Client
	model       anthropic.Model
	temperature float64
}

// NewAnthropicProvider creates a new Anthropic provider instance.
//
// Fields used from cfg:
//   - BaseURL: API base URL (default "https://api.anthropic.com")
//   - APIKey: Anthropic API key, required
//   - Model: model name (default Claude Sonnet 4.5)
//   - Temperature: clamped to 1, the API's upper bound
//   - HTTPClient: optional client for every request
//
// SDK retries are disabled, as for OpenRouter.
func NewAnthropicProvider(cfg Config) (*AnthropicProvider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	m := anthropic.ModelClaudeSonnet4_5_20250929
	if cfg.Model != "" {
		m = anthropic.Model(cfg.Model)
	}

	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	client := anthropic.NewClient(opts...)

	return &AnthropicProvider{
		client:      &client,
		model:       m,
		temperature: cfg.Temperature,
	}, nil
}

// Chat implements Provider.Chat by delegating to ChatWithTools with no tools.
func (p *AnthropicProvider) Chat(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
	return p.ChatWithTools(ctx, messages, nil, callback)
}

// ChatWithTools implements Provider.ChatWithTools with streaming support.
//
// Text deltas are forwarded as they arrive. The stream is accumulated into a
// full message and its tool_use blocks are reported in one callback after
// the stream completes. Tool instructions go first in the system prompt,
// caller prompts after.
func (p *AnthropicProvider) ChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	anthropicMessages, system := ConvertToAnthropicMessages(messages)

	if len(tools) > 0 {
		system = append([]anthropic.TextBlockParam{{Text: buildToolInstructions(tools)}}, system...)
	}

	params := anthropic.MessageNewParams{
		Model:       p.model,
		Messages:    anthropicMessages,
		MaxTokens:   4096,
		Temperature: anthropic.Float(min(p.temperature, 1)),
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(tools) > 0 {
		params.Tools = mcp.ToAnthropic(tools)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Anthropic] model=%s messages=%d tools=%d", p.model, len(anthropicMessages), len(tools))
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()
	msg := anthropic.Message{}

	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return fmt.Errorf("error accumulating message: %w", err)
		}

		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && callback != nil {
				if err := callback(text.Text, nil); err != nil {
					return err
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return mapError(ctx, anthropicName, err)
	}

	if callback != nil {
		if calls := extractAnthropicToolCalls(msg.Content); len(calls) > 0 {
			return callback("", calls)
		}
	}
	return nil
}

// GetModel implements Provider.GetModel.
func (p *AnthropicProvider) GetModel() string {
	return string(p.model)
}

// Name implements Provider.Name.
func (p *AnthropicProvider) Name() string {
	return string(ProviderTypeAnthropic)
}
