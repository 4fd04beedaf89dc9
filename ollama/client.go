// Package ollama is a thin streaming client over the Ollama API.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// Client streams chat completions from one Ollama model.
type Client struct {
	client      *api.Client
	model       string
	temperature float64
}

type StreamCallback func(chunk string, toolCalls []api.ToolCall) error

// Options configures a Client. Zero values fall back to the local defaults.
type Options struct {
	BaseURL     string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
}

// NewClient creates a client for opts.BaseURL (default
// "http://localhost:11434") and opts.Model (default "llama3.1:latest").
// Returns an error if the base URL has no scheme or host.
func NewClient(opts Options) (*Client, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := opts.Model
	if model == "" {
		model = "llama3.1:latest"
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid Ollama URL: %q", baseURL)
	}

	return &Client{
		client:      api.NewClient(parsedURL, hc),
		model:       model,
		temperature: opts.Temperature,
	}, nil
}

// ChatWithTools sends a streaming chat request with optional tool definitions.
// Every response frame is handed to callback; tool calls arrive whole in the
// frame that carries them.
func (c *Client) ChatWithTools(ctx context.Context, messages []api.Message, tools []api.Tool, callback StreamCallback) error {
	stream := true
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
		Stream:   &stream,
		Options:  map[string]any{"temperature": c.temperature},
	}

	return c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		if callback == nil {
			return nil
		}
		return callback(resp.Message.Content, resp.Message.ToolCalls)
	})
}

func (c *Client) GetModel() string {
	return c.model
}

// toolCallingModels tracks which model families support tool calling
var toolCallingModels = map[string]bool{
	"qwen":      true,
	"llama3.1":  true,
	"llama3.2":  true,
	"llama3.3":  true,
	"mistral":   true,
	"command-r": true,
	"nemotron":  true,
	"granite3":  true,
	"gpt-oss":   true,

	"llama3-gradient": false,
	"llama3":          false,
	"phi":             false,
	"gemma":           false,
	"codellama":       false,
	"deepseek":        false,
}

// orderedPrefixes is checked most specific first so llama3.2 never matches
// the generic llama3 entry.
var orderedPrefixes = []string{
	"llama3.3", "llama3.2", "llama3.1",
	"llama3-gradient",
	"command-r", "qwen", "mistral", "nemotron", "granite3", "gpt-oss",
	"codellama",
	"llama3",
	"deepseek", "phi", "gemma",
}

// SupportsToolCalling reports whether the configured model is known to
// support Ollama's tool calling API.
func (c *Client) SupportsToolCalling() bool {
	return ModelSupportsToolCalling(c.model)
}

// ModelSupportsToolCalling checks a model name against the known families.
// Unknown models are assumed not to support tools.
func ModelSupportsToolCalling(modelName string) bool {
	modelName = strings.ToLower(modelName)
	for _, prefix := range orderedPrefixes {
		if strings.HasPrefix(modelName, prefix) {
			return toolCallingModels[prefix]
		}
	}
	return false
}
