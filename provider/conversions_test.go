package provider

import (
	"testing"

	"github.com/ollama/ollama/api"

	"searchpipe/model"
)

func TestConvertToOllamaMessages(t *testing.T) {
	input := []model.Message{
		model.SystemMessage("sys"),
		model.UserMessage("q"),
		model.ToolMessage("web_search", "result"),
	}

	got := ConvertToOllamaMessages(input)
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	if got[2].Role != "tool" || got[2].ToolName != "web_search" || got[2].Content != "result" {
		t.Errorf("tool message = %+v", got[2])
	}
}

func TestConvertToAnthropicMessages(t *testing.T) {
	msgs, system := ConvertToAnthropicMessages([]model.Message{
		model.SystemMessage("sys"),
		model.UserMessage("q"),
		model.AssistantMessage("a"),
		model.ToolMessage("code_search", "ctx"),
	})

	if len(system) != 1 || system[0].Text != "sys" {
		t.Errorf("system = %+v", system)
	}
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want 3", len(msgs))
	}
	if msgs[2].Role != "user" {
		t.Errorf("tool result role = %q, want user", msgs[2].Role)
	}
}

func TestConvertToAnthropicMessagesSkipsEmptyText(t *testing.T) {
	msgs, _ := ConvertToAnthropicMessages([]model.Message{
		model.UserMessage("q"),
		model.AssistantMessage(""),
		model.ToolMessage("web_search", "r"),
		model.AssistantMessage(" \n"),
	})

	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	for i, m := range msgs {
		if m.Role != "user" {
			t.Errorf("message %d role = %q, want user", i, m.Role)
		}
	}
}

func TestConvertToOpenAIMessages(t *testing.T) {
	got := ConvertToOpenAIMessages([]model.Message{
		model.SystemMessage("sys"),
		model.ToolMessage("web_search", "found"),
	})
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].OfSystem == nil {
		t.Error("first message should be a system message")
	}
	if got[1].OfUser == nil {
		t.Error("tool result should be sent as a user message")
	}
}

func TestConvertFromOllamaToolCalls(t *testing.T) {
	if ConvertFromOllamaToolCalls(nil) != nil {
		t.Error("nil input should give nil")
	}

	calls := []api.ToolCall{{Function: api.ToolCallFunction{
		Name:      "web_search",
		Arguments: map[string]any{"query": "go"},
	}}}
	got := ConvertFromOllamaToolCalls(calls)
	if len(got) != 1 || got[0].Name != "web_search" || got[0].Arguments["query"] != "go" {
		t.Fatalf("got %+v", got)
	}
	if got[0].ID == "" {
		t.Error("ID should be generated")
	}
}

func TestToolResultText(t *testing.T) {
	if got := toolResultText(model.ToolMessage("web_search", "x")); got != "Result of web_search:\nx" {
		t.Errorf("got %q", got)
	}
	if got := toolResultText(model.Message{Role: model.RoleTool, Content: "x"}); got != "Tool result:\nx" {
		t.Errorf("got %q", got)
	}
}
