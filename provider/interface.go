// Package provider implements the chat backends the agent loop talks to.
//
// Every backend satisfies model.Provider: it streams text deltas and reports
// tool calls through a model.StreamCallback. Backend SDK types never leave
// this package.
//
// # Backends
//
//   - OpenRouterProvider: any OpenAI-compatible endpoint, via openai-go
//   - AnthropicProvider: Claude models, via anthropic-sdk-go
//   - OllamaProvider: a local Ollama server, via ollama/api
//
// # Errors
//
// SDK errors are mapped onto the errs taxonomy (see errors.go) so callers can
// tell a non-2xx answer from a deadline expiry without knowing the SDK.
//
// # Usage
//
//	p, err := provider.NewProvider(provider.FromValves(valves))
//	if err != nil {
//	    // handle error
//	}
//	err = p.ChatWithTools(ctx, messages, tools, callback)
package provider

import "net/http"

// Note: The Provider interface and StreamCallback are defined in the model package
// (model/provider.go) to avoid import cycles. This package implements model.Provider.

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // unused for Ollama

	Temperature float64

	// Referer and Title are sent as OpenRouter attribution headers.
	Referer string
	Title   string

	// HTTPClient overrides the transport. Tests point it at httptest servers.
	HTTPClient *http.Client
}
