// Package mcp converts tool descriptors expressed as MCP tools into the
// request formats of each chat backend, and tool calls back into MCP requests.
package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"searchpipe/model"
)

// ToOpenAI converts tools to the OpenAI/OpenRouter function-tool format.
func ToOpenAI(tools []mcptypes.Tool) []openai.ChatCompletionToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	out := make([]openai.ChatCompletionToolUnionParam, len(tools))
	for i, tool := range tools {
		out[i] = openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        tool.Name,
			Description: openai.String(tool.Description),
			Parameters:  openai.FunctionParameters(schemaMap(tool.InputSchema)),
		})
	}
	return out
}

// ToAnthropic converts tools to Anthropic tool params.
func ToAnthropic(tools []mcptypes.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		schema := anthropic.ToolInputSchemaParam{Properties: tool.InputSchema.Properties}
		if len(tool.InputSchema.Required) > 0 {
			schema.Required = tool.InputSchema.Required
		}
		if tool.InputSchema.Defs != nil {
			schema.ExtraFields = map[string]any{"$defs": tool.InputSchema.Defs}
		}

		out[i] = anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if tool.Description != "" {
			out[i].OfTool.Description = anthropic.String(tool.Description)
		}
	}
	return out
}

// ToOllama converts tools to Ollama API tools.
func ToOllama(tools []mcptypes.Tool) []api.Tool {
	out := make([]api.Tool, 0, len(tools))
	for _, tool := range tools {
		params := api.ToolFunctionParameters{
			Type:       tool.InputSchema.Type,
			Required:   tool.InputSchema.Required,
			Properties: make(map[string]api.ToolProperty, len(tool.InputSchema.Properties)),
		}
		if tool.InputSchema.Defs != nil {
			params.Defs = tool.InputSchema.Defs
		}
		for name, prop := range tool.InputSchema.Properties {
			params.Properties[name] = ollamaProperty(prop)
		}

		out = append(out, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

// schemaMap renders an input schema as a plain JSON-schema object.
func schemaMap(schema mcptypes.ToolInputSchema) map[string]any {
	typ := schema.Type
	if typ == "" {
		typ = "object"
	}
	m := map[string]any{
		"type":       typ,
		"properties": schema.Properties,
	}
	if len(schema.Required) > 0 {
		m["required"] = schema.Required
	}
	if schema.Defs != nil {
		m["$defs"] = schema.Defs
	}
	return m
}

func ollamaProperty(value any) api.ToolProperty {
	prop := api.ToolProperty{}

	m, ok := value.(map[string]any)
	if !ok {
		raw, err := json.Marshal(value)
		if err != nil || json.Unmarshal(raw, &m) != nil {
			return prop
		}
	}

	switch t := m["type"].(type) {
	case string:
		prop.Type = api.PropertyType{t}
	case []string:
		prop.Type = api.PropertyType(t)
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok {
				prop.Type = append(prop.Type, s)
			}
		}
	}
	if desc, ok := m["description"].(string); ok {
		prop.Description = desc
	}
	if enum, ok := m["enum"].([]any); ok {
		prop.Enum = enum
	}
	if items, ok := m["items"]; ok {
		prop.Items = items
	}
	if anyOf, ok := m["anyOf"].([]any); ok {
		for _, item := range anyOf {
			prop.AnyOf = append(prop.AnyOf, ollamaProperty(item))
		}
	}
	return prop
}

// ParseArguments decodes the JSON argument string of an OpenAI-style tool
// call. An empty string means no arguments.
func ParseArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// CallRequest wraps a tool invocation as an MCP call request.
func CallRequest(inv model.ToolInvocation) mcptypes.CallToolRequest {
	var req mcptypes.CallToolRequest
	req.Params.Name = inv.Name
	req.Params.Arguments = inv.Arguments
	return req
}
