package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"searchpipe/errs"
)

func TestDefaults(t *testing.T) {
	v := Defaults()

	if v.ExaBaseURL != "https://api.exa.ai" {
		t.Errorf("ExaBaseURL = %q", v.ExaBaseURL)
	}
	if v.ExaContextTokensNum != 5000 {
		t.Errorf("ExaContextTokensNum = %d", v.ExaContextTokensNum)
	}
	if v.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v", v.Timeout)
	}
	if v.MaxToolRounds != 4 {
		t.Errorf("MaxToolRounds = %d", v.MaxToolRounds)
	}
	if !v.EmitSources || !v.WebSearchEnabled || !v.CodeSearchEnabled {
		t.Errorf("boolean defaults wrong: %+v", v)
	}
	if v.LLMProvider != ProviderOpenRouter {
		t.Errorf("LLMProvider = %q", v.LLMProvider)
	}
}

func TestFromMap(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		check   func(t *testing.T, v Valves)
		wantErr string
	}{
		{
			name:  "case insensitive keys and string coercion",
			input: map[string]any{"exa_api_key": "k", "Emit_Sources": "false", "TIMEOUT": "2.5"},
			check: func(t *testing.T, v Valves) {
				if v.ExaAPIKey != "k" || v.EmitSources || v.Timeout != 2500*time.Millisecond {
					t.Errorf("got %+v", v)
				}
			},
		},
		{
			name:  "unknown keys ignored",
			input: map[string]any{"NOT_A_VALVE": 1, "MAX_TOOL_ROUNDS": int64(2)},
			check: func(t *testing.T, v Valves) {
				if v.MaxToolRounds != 2 {
					t.Errorf("MaxToolRounds = %d", v.MaxToolRounds)
				}
			},
		},
		{
			name:  "trailing slash trimmed from URLs",
			input: map[string]any{"OPENROUTER_API_BASE_URL": "https://example.com/v1/"},
			check: func(t *testing.T, v Valves) {
				if v.OpenRouterBaseURL != "https://example.com/v1" {
					t.Errorf("OpenRouterBaseURL = %q", v.OpenRouterBaseURL)
				}
			},
		},
		{name: "rounds out of range", input: map[string]any{"MAX_TOOL_ROUNDS": 10}, wantErr: "MAX_TOOL_ROUNDS"},
		{name: "bad recency", input: map[string]any{"SEARCH_RECENCY": "year"}, wantErr: "SEARCH_RECENCY"},
		{name: "bad provider", input: map[string]any{"LLM_PROVIDER": "gpt"}, wantErr: "LLM_PROVIDER"},
		{name: "negative timeout", input: map[string]any{"TIMEOUT": -1}, wantErr: "TIMEOUT"},
		{name: "timeout too large", input: map[string]any{"TIMEOUT": 1e10}, wantErr: "TIMEOUT"},
		{name: "timeout not a number", input: map[string]any{"TIMEOUT": "NaN"}, wantErr: "TIMEOUT"},
		{
			name:  "timeout at upper bound",
			input: map[string]any{"TIMEOUT": MaxTimeoutSeconds},
			check: func(t *testing.T, v Valves) {
				if v.Timeout != time.Hour {
					t.Errorf("Timeout = %v, want 1h", v.Timeout)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromMap(tt.input)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error mentioning %s", tt.wantErr)
				}
				if !errs.Is(err, errs.KindConfiguration) {
					t.Errorf("error kind = %v, want configuration", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not mention %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, v)
		})
	}
}

func TestRequire(t *testing.T) {
	v := Defaults()

	err := v.Require("EXA_API_KEY", "OPENROUTER_API_KEY")
	if err == nil {
		t.Fatal("expected missing setting error")
	}
	if got := errs.UserMessage(err); got != "EXA_API_KEY not provided in the valves." {
		t.Errorf("UserMessage = %q", got)
	}

	v.ExaAPIKey = "k"
	v.OpenRouterAPIKey = "  "
	if err := v.Require("EXA_API_KEY", "OPENROUTER_API_KEY"); err == nil || !strings.Contains(err.Error(), "OPENROUTER_API_KEY") {
		t.Errorf("blank key accepted: %v", err)
	}
}

func TestRequireLLM(t *testing.T) {
	v := Defaults()
	v.LLMProvider = ProviderOllama
	if err := v.RequireLLM(); err != nil {
		t.Errorf("ollama defaults should satisfy RequireLLM: %v", err)
	}

	v.LLMProvider = ProviderAnthropic
	if err := v.RequireLLM(); err == nil {
		t.Error("anthropic without key should fail")
	}
}

func TestLoadSettingsAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")
	content := "EXA_API_KEY = \"from-file\"\nMAX_TOOL_ROUNDS = 3\nEMIT_SOURCES = false\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("EXA_API_KEY", "from-env")

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	v, err := FromMap(settings)
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}

	if v.ExaAPIKey != "from-env" {
		t.Errorf("ExaAPIKey = %q, want env override", v.ExaAPIKey)
	}
	if v.MaxToolRounds != 3 || v.EmitSources {
		t.Errorf("file values not applied: %+v", v)
	}
}

func TestLoadMissingFile(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil || len(settings) != 0 {
		t.Errorf("LoadSettings(missing) = %v, %v", settings, err)
	}
}

func TestGenerateConfigTemplateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := CreateDefaultSettings(path); err != nil {
		t.Fatal(err)
	}

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	if _, ok := settings["EXA_API_KEY"]; ok {
		t.Error("secret valve should be commented out")
	}

	v, err := FromMap(settings)
	if err != nil {
		t.Fatalf("FromMap(template): %v", err)
	}
	if v != Defaults() {
		t.Errorf("template values differ from defaults")
	}
}
