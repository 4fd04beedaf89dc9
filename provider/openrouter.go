package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"searchpipe/config"
	"searchpipe/mcp"
	"searchpipe/model"
)

const openRouterName = "OpenRouter"

// OpenRouterProvider implements model.Provider using OpenAI's official Go SDK.
// It works against OpenRouter or any other OpenAI-compatible endpoint.
type OpenRouterProvider struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewOpenRouterProvider creates a new OpenRouter provider instance.
//
// Fields used from cfg:
//   - BaseURL: API base URL (default "https://openrouter.ai/api/v1")
//   - APIKey: OpenRouter API key, required
//   - Model: model slug (default "moonshotai/kimi-k2-thinking")
//   - Referer, Title: sent as HTTP-Referer and X-Title attribution headers
//   - HTTPClient: optional client for every request
//
// SDK retries are disabled; a failed call surfaces immediately.
func NewOpenRouterProvider(cfg Config) (*OpenRouterProvider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = "moonshotai/kimi-k2-thinking"
	}

	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.Referer != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.Referer))
	}
	if cfg.Title != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.Title))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenRouterProvider{
		client:      openai.NewClient(opts...),
		model:       modelName,
		temperature: cfg.Temperature,
	}, nil
}

// Chat implements Provider.Chat by delegating to ChatWithTools with no tools.
func (p *OpenRouterProvider) Chat(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
	return p.ChatWithTools(ctx, messages, nil, callback)
}

// ChatWithTools implements Provider.ChatWithTools with streaming support.
//
// Text deltas are forwarded to callback as they arrive. Tool calls are
// accumulated across chunks and each one is reported once its arguments are
// complete. When tools are offered, a system turn describing them is
// prepended unless the model is known to handle tools natively.
//
// SDK errors are mapped to errs.Upstream or errs.Timeout.
func (p *OpenRouterProvider) ChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	if len(tools) > 0 && !skipToolInstructions(p.model) {
		messages = append([]model.Message{model.SystemMessage(buildToolInstructions(tools))}, messages...)
	}

	params := openai.ChatCompletionNewParams{
		Messages:    ConvertToOpenAIMessages(messages),
		Model:       openai.ChatModel(p.model),
		Temperature: openai.Float(p.temperature),
	}
	if len(tools) > 0 {
		params.Tools = mcp.ToOpenAI(tools)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[OpenRouter] model=%s messages=%d tools=%d", p.model, len(messages), len(tools))
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()
	acc := openai.ChatCompletionAccumulator{}

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if tool, ok := acc.JustFinishedToolCall(); ok && callback != nil {
			args, err := mcp.ParseArguments(tool.Arguments)
			if err != nil {
				// Surface as an argument-less call; the dispatcher rejects it.
				args = map[string]any{}
			}
			id := tool.ID
			if id == "" {
				id = uuid.NewString()
			}
			call := model.ToolInvocation{ID: id, Name: tool.Name, Arguments: args}
			if err := callback("", []model.ToolInvocation{call}); err != nil {
				return err
			}
		}

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" && callback != nil {
			if err := callback(chunk.Choices[0].Delta.Content, nil); err != nil {
				return err
			}
		}
	}

	if err := stream.Err(); err != nil {
		return mapError(ctx, openRouterName, err)
	}
	return nil
}

// GetModel implements Provider.GetModel.
func (p *OpenRouterProvider) GetModel() string {
	return p.model
}

// Name implements Provider.Name.
func (p *OpenRouterProvider) Name() string {
	return string(ProviderTypeOpenRouter)
}
