package provider

import (
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"searchpipe/model"
)

// ConvertToOpenAIMessages converts messages to the OpenAI chat completions
// format used by OpenRouter.
//
// Tool results are sent as user turns labelled with the tool name, so no
// tool-call IDs need to round-trip through the conversation. This keeps the
// agent loop independent of how each backend correlates calls and results.
//
// Example:
//
//	msgs := []model.Message{
//	    model.SystemMessage("Answer briefly."),
//	    model.UserMessage("What is the capital of France?"),
//	    model.ToolMessage("web_search", "Paris is the capital of France."),
//	}
//	params := ConvertToOpenAIMessages(msgs)
//	// params[2] is a user message starting with "Result of web_search:"
func ConvertToOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, len(messages))

	for i, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result[i] = openai.SystemMessage(msg.Content)
		case model.RoleAssistant:
			result[i] = openai.AssistantMessage(msg.Content)
		case model.RoleTool:
			result[i] = openai.UserMessage(toolResultText(msg))
		default:
			result[i] = openai.UserMessage(msg.Content)
		}
	}

	return result
}

// ConvertToAnthropicMessages converts messages to Anthropic format.
//
// System messages are returned separately since Anthropic takes them as a
// request parameter rather than a turn. Tool results become user turns, the
// same way ConvertToOpenAIMessages sends them.
//
// Turns with blank content are dropped: the Messages API rejects empty text
// blocks, and an agent turn that only requested tools carries no text.
// Consecutive user turns are accepted by the API as-is.
//
// Example:
//
//	msgs, system := ConvertToAnthropicMessages([]model.Message{
//	    model.SystemMessage("Answer briefly."),
//	    model.UserMessage("q"),
//	    model.AssistantMessage(""),
//	    model.ToolMessage("web_search", "r"),
//	})
//	// len(system) == 1, len(msgs) == 2 (both user turns)
func ConvertToAnthropicMessages(messages []model.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var system []anthropic.TextBlockParam
	out := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		if msg.Role != model.RoleTool && strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case model.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		case model.RoleTool:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(toolResultText(msg))))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return out, system
}

// ConvertToOllamaMessages converts messages to Ollama format.
//
// Ollama accepts the tool role natively, so tool results keep their role and
// carry the tool name in ToolName instead of being folded into user turns.
//
// Example:
//
//	ollamaMessages := ConvertToOllamaMessages([]model.Message{
//	    model.UserMessage("q"),
//	    model.ToolMessage("code_search", "use sync.Once"),
//	})
//	// ollamaMessages[1].Role == "tool", ollamaMessages[1].ToolName == "code_search"
func ConvertToOllamaMessages(messages []model.Message) []api.Message {
	result := make([]api.Message, len(messages))
	for i, msg := range messages {
		result[i] = api.Message{
			Role:     string(msg.Role),
			Content:  msg.Content,
			ToolName: msg.ToolName,
		}
	}
	return result
}

// ConvertFromOllamaToolCalls converts Ollama tool calls to model invocations.
//
// Ollama does not assign call IDs, so a random one is generated per call.
// Returns nil if the input is nil or empty.
//
// Example:
//
//	calls := ConvertFromOllamaToolCalls([]api.ToolCall{
//	    {Function: api.ToolCallFunction{
//	        Name:      "web_search",
//	        Arguments: api.ToolCallFunctionArguments{"query": "golang"},
//	    }},
//	})
//	// calls[0].Name == "web_search", calls[0].ID is a UUID
func ConvertFromOllamaToolCalls(calls []api.ToolCall) []model.ToolInvocation {
	if len(calls) == 0 {
		return nil
	}

	result := make([]model.ToolInvocation, len(calls))
	for i, call := range calls {
		result[i] = model.ToolInvocation{
			ID:        uuid.NewString(),
			Name:      call.Function.Name,
			Arguments: map[string]any(call.Function.Arguments),
		}
	}
	return result
}

// extractAnthropicToolCalls collects tool_use blocks from a finished message.
func extractAnthropicToolCalls(content []anthropic.ContentBlockUnion) []model.ToolInvocation {
	var calls []model.ToolInvocation

	for _, block := range content {
		toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok {
			continue
		}
		args := map[string]any{}
		if len(toolUse.Input) > 0 {
			if err := json.Unmarshal(toolUse.Input, &args); err != nil {
				args = map[string]any{}
			}
		}
		calls = append(calls, model.ToolInvocation{
			ID:        toolUse.ID,
			Name:      toolUse.Name,
			Arguments: args,
		})
	}

	return calls
}

func toolResultText(msg model.Message) string {
	if msg.ToolName == "" {
		return "Tool result:\n" + msg.Content
	}
	return "Result of " + msg.ToolName + ":\n" + msg.Content
}
