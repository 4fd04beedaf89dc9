package testutil

import (
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"searchpipe/model"
)

// TestMessages returns a sample conversation for testing
func TestMessages() []model.Message {
	return []model.Message{
		model.SystemMessage("You are a helpful research assistant."),
		model.UserMessage("Who designed Go?"),
		model.AssistantMessage("Robert Griesemer, Rob Pike and Ken Thompson."),
		model.UserMessage("When was it announced?"),
	}
}

// SingleUserMessage returns a single user message for simple tests
func SingleUserMessage(content string) []model.Message {
	return []model.Message{model.UserMessage(content)}
}

// TestMCPTools returns sample tools for testing
func TestMCPTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		mcptypes.NewTool("web_search",
			mcptypes.WithDescription("Search the web"),
			mcptypes.WithString("query", mcptypes.Required(), mcptypes.Description("The search query")),
		),
	}
}

// ToolCall builds a tool invocation with a single query argument.
func ToolCall(id, name, query string) model.ToolInvocation {
	args := map[string]any{}
	if query != "" {
		args["query"] = query
	}
	return model.ToolInvocation{ID: id, Name: name, Arguments: args}
}

// Sources returns n distinct sources with snippets.
func Sources(prefix string, n int) []model.SourceRecord {
	out := make([]model.SourceRecord, n)
	for i := range out {
		snippet := "snippet " + prefix
		out[i] = model.SourceRecord{
			Title:   prefix + string(rune('A'+i)),
			URL:     "https://" + prefix + string(rune('a'+i)) + ".example",
			Snippet: &snippet,
		}
	}
	return out
}
