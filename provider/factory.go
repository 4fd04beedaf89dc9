package provider

import (
	"fmt"

	"searchpipe/config"
	"searchpipe/model"
)

const (
	defaultReferer = "https://openwebui.com"
	defaultTitle   = "searchpipe"
)

// NewProvider creates a provider based on configuration.
//
// Returns an error if the provider type is unknown or the provider-specific
// constructor rejects the configuration (missing key, invalid URL).
func NewProvider(cfg Config) (model.Provider, error) {
	switch cfg.Type {
	case ProviderTypeOllama:
		return NewOllamaProvider(cfg)
	case ProviderTypeOpenRouter:
		return NewOpenRouterProvider(cfg)
	case ProviderTypeAnthropic:
		return NewAnthropicProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}

// FromValves derives the backend configuration selected by LLM_PROVIDER.
func FromValves(v config.Valves) Config {
	cfg := Config{
		Type:        MapProviderIDToType(v.LLMProvider),
		Temperature: v.Temperature,
		Referer:     defaultReferer,
		Title:       defaultTitle,
	}

	switch cfg.Type {
	case ProviderTypeOpenRouter:
		cfg.BaseURL, cfg.APIKey, cfg.Model = v.OpenRouterBaseURL, v.OpenRouterAPIKey, v.OpenRouterModel
	case ProviderTypeAnthropic:
		cfg.BaseURL, cfg.APIKey, cfg.Model = v.AnthropicBaseURL, v.AnthropicAPIKey, v.AnthropicModel
	case ProviderTypeOllama:
		cfg.BaseURL, cfg.Model = v.OllamaBaseURL, v.OllamaModel
	}

	return cfg
}

// MapProviderIDToType converts a valve provider ID to a ProviderType.
// Unknown IDs pass through unchanged and are rejected by NewProvider.
func MapProviderIDToType(id string) ProviderType {
	switch id {
	case config.ProviderOllama:
		return ProviderTypeOllama
	case config.ProviderOpenRouter:
		return ProviderTypeOpenRouter
	case config.ProviderAnthropic:
		return ProviderTypeAnthropic
	default:
		return ProviderType(id)
	}
}
