package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"searchpipe/errs"
)

// Provider identifiers accepted by LLM_PROVIDER.
const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderOllama     = "ollama"
)

// MaxTimeoutSeconds bounds TIMEOUT.
const MaxTimeoutSeconds = 3600

// Valves is the immutable, typed configuration for one invocation.
type Valves struct {
	ExaAPIKey           string
	ExaBaseURL          string
	ExaTextParameter    bool
	ExaContextTokensNum int
	WebSearchEnabled    bool
	CodeSearchEnabled   bool

	LLMProvider       string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string
	AnthropicAPIKey   string
	AnthropicBaseURL  string
	AnthropicModel    string
	OllamaBaseURL     string
	OllamaModel       string

	PerplexityAPIKey  string
	PerplexityBaseURL string
	PerplexityModel   string
	SearchRecency     string
	SearchContextSize string

	EmitSources   bool
	Timeout       time.Duration
	MaxToolRounds int
	Temperature   float64
}

// Valve describes one configuration key.
type Valve struct {
	Key         string
	Description string
	Default     any

	// Secret valves are masked in console output and never logged.
	Secret bool

	set func(v *Valves, value any) error
}

// Registry lists every valve in display order.
var Registry = []Valve{
	{Key: "EXA_API_KEY", Description: "Exa API key.", Default: "", Secret: true,
		set: setString(func(v *Valves) *string { return &v.ExaAPIKey })},
	{Key: "EXA_API_BASE_URL", Description: "Exa API base URL.", Default: "https://api.exa.ai",
		set: setURL(func(v *Valves) *string { return &v.ExaBaseURL })},
	{Key: "EXA_TEXT_PARAMETER", Description: "Include full page text in web search results.", Default: false,
		set: setBool(func(v *Valves) *bool { return &v.ExaTextParameter })},
	{Key: "EXA_CONTEXT_TOKENS_NUM", Description: "Token budget for code search responses.", Default: 5000,
		set: setPositiveInt(func(v *Valves) *int { return &v.ExaContextTokensNum })},
	{Key: "WEB_SEARCH_ENABLED", Description: "Offer the web_search tool to the agent.", Default: true,
		set: setBool(func(v *Valves) *bool { return &v.WebSearchEnabled })},
	{Key: "CODE_SEARCH_ENABLED", Description: "Offer the code_search tool to the agent.", Default: true,
		set: setBool(func(v *Valves) *bool { return &v.CodeSearchEnabled })},

	{Key: "LLM_PROVIDER", Description: "Chat backend for agent mode (openrouter, anthropic, ollama).", Default: ProviderOpenRouter,
		set: setEnum(func(v *Valves) *string { return &v.LLMProvider }, ProviderOpenRouter, ProviderAnthropic, ProviderOllama)},
	{Key: "OPENROUTER_API_KEY", Description: "OpenRouter API key for LLM access.", Default: "", Secret: true,
		set: setString(func(v *Valves) *string { return &v.OpenRouterAPIKey })},
	{Key: "OPENROUTER_API_BASE_URL", Description: "OpenRouter API base URL.", Default: "https://openrouter.ai/api/v1",
		set: setURL(func(v *Valves) *string { return &v.OpenRouterBaseURL })},
	{Key: "OPENROUTER_MODEL", Description: "Model to use via OpenRouter.", Default: "moonshotai/kimi-k2-thinking",
		set: setString(func(v *Valves) *string { return &v.OpenRouterModel })},
	{Key: "ANTHROPIC_API_KEY", Description: "Anthropic API key.", Default: "", Secret: true,
		set: setString(func(v *Valves) *string { return &v.AnthropicAPIKey })},
	{Key: "ANTHROPIC_API_BASE_URL", Description: "Anthropic API base URL.", Default: "https://api.anthropic.com",
		set: setURL(func(v *Valves) *string { return &v.AnthropicBaseURL })},
	{Key: "ANTHROPIC_MODEL", Description: "Anthropic model name.", Default: "claude-sonnet-4-5",
		set: setString(func(v *Valves) *string { return &v.AnthropicModel })},
	{Key: "OLLAMA_BASE_URL", Description: "Ollama server URL.", Default: "http://localhost:11434",
		set: setURL(func(v *Valves) *string { return &v.OllamaBaseURL })},
	{Key: "OLLAMA_MODEL", Description: "Ollama model name.", Default: "llama3.1:latest",
		set: setString(func(v *Valves) *string { return &v.OllamaModel })},

	{Key: "PERPLEXITY_API_KEY", Description: "API key for the search-augmented completion endpoint.", Default: "", Secret: true,
		set: setString(func(v *Valves) *string { return &v.PerplexityAPIKey })},
	{Key: "PERPLEXITY_API_BASE_URL", Description: "Search-augmented completion base URL.", Default: "https://api.perplexity.ai",
		set: setURL(func(v *Valves) *string { return &v.PerplexityBaseURL })},
	{Key: "PERPLEXITY_MODEL", Description: "Search-augmented completion model.", Default: "sonar",
		set: setString(func(v *Valves) *string { return &v.PerplexityModel })},
	{Key: "SEARCH_RECENCY", Description: "Restrict results by age (hour, day, week, month). Empty for no limit.", Default: "",
		set: setEnum(func(v *Valves) *string { return &v.SearchRecency }, "", "hour", "day", "week", "month")},
	{Key: "SEARCH_CONTEXT_SIZE", Description: "Amount of retrieved context (low, medium, high).", Default: "medium",
		set: setEnum(func(v *Valves) *string { return &v.SearchContextSize }, "low", "medium", "high")},

	{Key: "EMIT_SOURCES", Description: "Emit sources as citations in the UI.", Default: true,
		set: setBool(func(v *Valves) *bool { return &v.EmitSources })},
	{Key: "TIMEOUT", Description: "Invocation timeout in seconds.", Default: 60,
		set: func(v *Valves, value any) error {
			secs, err := cast.ToFloat64E(value)
			if err != nil || !(secs > 0 && secs <= MaxTimeoutSeconds) {
				return fmt.Errorf("must be a number of seconds between 0 and %d", MaxTimeoutSeconds)
			}
			v.Timeout = time.Duration(secs * float64(time.Second))
			return nil
		}},
	{Key: "MAX_TOOL_ROUNDS", Description: "Maximum tool round-trips before the agent must answer (1-9).", Default: 4,
		set: func(v *Valves, value any) error {
			n, err := cast.ToIntE(value)
			if err != nil || n < 1 || n > 9 {
				return fmt.Errorf("must be an integer between 1 and 9")
			}
			v.MaxToolRounds = n
			return nil
		}},
	{Key: "TEMPERATURE", Description: "Sampling temperature for agent mode.", Default: 0.7,
		set: func(v *Valves, value any) error {
			t, err := cast.ToFloat64E(value)
			if err != nil || t < 0 || t > 2 {
				return fmt.Errorf("must be a number between 0 and 2")
			}
			v.Temperature = t
			return nil
		}},
}

// Lookup finds a valve by key, ignoring case.
func Lookup(key string) (Valve, bool) {
	key = strings.ToUpper(strings.TrimSpace(key))
	for _, valve := range Registry {
		if valve.Key == key {
			return valve, true
		}
	}
	return Valve{}, false
}

// Defaults returns Valves with every key at its default.
func Defaults() Valves {
	var v Valves
	for _, valve := range Registry {
		if err := valve.set(&v, valve.Default); err != nil {
			panic(fmt.Sprintf("config: bad default for %s: %v", valve.Key, err))
		}
	}
	return v
}

// FromMap builds Valves from a flat key→value mapping such as the one a host
// passes per invocation. Keys are matched case-insensitively and unknown keys
// are ignored. Values are coerced with cast, so "true", 1 and true are all
// accepted for boolean valves.
func FromMap(settings map[string]any) (Valves, error) {
	v := Defaults()

	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		valve, ok := Lookup(key)
		if !ok {
			if DebugLog != nil {
				DebugLog.Printf("Ignoring unknown valve %q", key)
			}
			continue
		}
		value := settings[key]
		if value == nil {
			continue
		}
		if err := valve.set(&v, value); err != nil {
			return Valves{}, errs.InvalidSetting(valve.Key, err.Error())
		}
	}

	return v, nil
}

// Merge overlays override onto base. Later maps win.
func Merge(maps ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, m := range maps {
		for k, val := range m {
			out[strings.ToUpper(k)] = val
		}
	}
	return out
}

// Require checks that every named valve holds a non-blank value.
// The first missing key is reported.
func (v Valves) Require(keys ...string) error {
	for _, key := range keys {
		if strings.TrimSpace(v.String(key)) == "" {
			return errs.MissingSetting(key)
		}
	}
	return nil
}

// RequireLLM checks the credentials of the configured chat backend.
func (v Valves) RequireLLM() error {
	switch v.LLMProvider {
	case ProviderOpenRouter:
		return v.Require("OPENROUTER_API_KEY")
	case ProviderAnthropic:
		return v.Require("ANTHROPIC_API_KEY")
	case ProviderOllama:
		return v.Require("OLLAMA_BASE_URL", "OLLAMA_MODEL")
	default:
		return errs.InvalidSetting("LLM_PROVIDER", fmt.Sprintf("unsupported provider %q", v.LLMProvider))
	}
}

// String returns the string form of a valve, used for required-key checks
// and console display.
func (v Valves) String(key string) string {
	switch strings.ToUpper(key) {
	case "EXA_API_KEY":
		return v.ExaAPIKey
	case "EXA_API_BASE_URL":
		return v.ExaBaseURL
	case "LLM_PROVIDER":
		return v.LLMProvider
	case "OPENROUTER_API_KEY":
		return v.OpenRouterAPIKey
	case "OPENROUTER_API_BASE_URL":
		return v.OpenRouterBaseURL
	case "OPENROUTER_MODEL":
		return v.OpenRouterModel
	case "ANTHROPIC_API_KEY":
		return v.AnthropicAPIKey
	case "ANTHROPIC_API_BASE_URL":
		return v.AnthropicBaseURL
	case "ANTHROPIC_MODEL":
		return v.AnthropicModel
	case "OLLAMA_BASE_URL":
		return v.OllamaBaseURL
	case "OLLAMA_MODEL":
		return v.OllamaModel
	case "PERPLEXITY_API_KEY":
		return v.PerplexityAPIKey
	case "PERPLEXITY_API_BASE_URL":
		return v.PerplexityBaseURL
	case "PERPLEXITY_MODEL":
		return v.PerplexityModel
	case "SEARCH_RECENCY":
		return v.SearchRecency
	case "SEARCH_CONTEXT_SIZE":
		return v.SearchContextSize
	case "EXA_TEXT_PARAMETER":
		return cast.ToString(v.ExaTextParameter)
	case "EXA_CONTEXT_TOKENS_NUM":
		return cast.ToString(v.ExaContextTokensNum)
	case "WEB_SEARCH_ENABLED":
		return cast.ToString(v.WebSearchEnabled)
	case "CODE_SEARCH_ENABLED":
		return cast.ToString(v.CodeSearchEnabled)
	case "EMIT_SOURCES":
		return cast.ToString(v.EmitSources)
	case "TIMEOUT":
		return cast.ToString(v.Timeout.Seconds())
	case "MAX_TOOL_ROUNDS":
		return cast.ToString(v.MaxToolRounds)
	case "TEMPERATURE":
		return cast.ToString(v.Temperature)
	default:
		return ""
	}
}

func setString(field func(*Valves) *string) func(*Valves, any) error {
	return func(v *Valves, value any) error {
		s, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("must be a string")
		}
		*field(v) = strings.TrimSpace(s)
		return nil
	}
}

func setURL(field func(*Valves) *string) func(*Valves, any) error {
	return func(v *Valves, value any) error {
		s, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("must be a URL")
		}
		*field(v) = strings.TrimRight(strings.TrimSpace(s), "/")
		return nil
	}
}

func setBool(field func(*Valves) *bool) func(*Valves, any) error {
	return func(v *Valves, value any) error {
		b, err := cast.ToBoolE(value)
		if err != nil {
			return fmt.Errorf("must be true or false")
		}
		*field(v) = b
		return nil
	}
}

func setPositiveInt(field func(*Valves) *int) func(*Valves, any) error {
	return func(v *Valves, value any) error {
		n, err := cast.ToIntE(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("must be a positive integer")
		}
		*field(v) = n
		return nil
	}
}

func setEnum(field func(*Valves) *string, allowed ...string) func(*Valves, any) error {
	return func(v *Valves, value any) error {
		s, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
		}
		s = strings.ToLower(strings.TrimSpace(s))
		for _, a := range allowed {
			if s == a {
				*field(v) = s
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(nonEmpty(allowed), ", "))
	}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, s := range values {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
