package mcp

import (
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"searchpipe/model"
)

func searchTool() mcptypes.Tool {
	return mcptypes.Tool{
		Name:        "web_search",
		Description: "Search the web",
		InputSchema: mcptypes.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
				"recency": map[string]any{
					"type": []any{"string", "null"},
					"enum": []any{"day", "week"},
				},
			},
			Required: []string{"query"},
		},
	}
}

func TestToOllama(t *testing.T) {
	tests := []struct {
		name  string
		input []mcptypes.Tool
		want  int
	}{
		{"empty", nil, 0},
		{"one tool", []mcptypes.Tool{searchTool()}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToOllama(tt.input)
			if len(got) != tt.want {
				t.Fatalf("len = %d, want %d", len(got), tt.want)
			}
			if tt.want == 0 {
				return
			}
			fn := got[0].Function
			if got[0].Type != "function" || fn.Name != "web_search" || fn.Description != "Search the web" {
				t.Errorf("tool = %+v", got[0])
			}
			query := fn.Parameters.Properties["query"]
			if len(query.Type) != 1 || query.Type[0] != "string" || query.Description != "The search query" {
				t.Errorf("query property = %+v", query)
			}
			recency := fn.Parameters.Properties["recency"]
			if len(recency.Type) != 2 || len(recency.Enum) != 2 {
				t.Errorf("recency property = %+v", recency)
			}
			if len(fn.Parameters.Required) != 1 {
				t.Errorf("required = %v", fn.Parameters.Required)
			}
		})
	}
}

func TestToOpenAI(t *testing.T) {
	if ToOpenAI(nil) != nil {
		t.Error("ToOpenAI(nil) should be nil")
	}

	got := ToOpenAI([]mcptypes.Tool{searchTool()})
	if len(got) != 1 {
		t.Fatalf("len = %d", len(got))
	}
	fn := got[0].GetFunction()
	if fn == nil || fn.Name != "web_search" {
		t.Fatalf("function = %+v", fn)
	}
	if fn.Parameters["type"] != "object" {
		t.Errorf("parameters type = %v", fn.Parameters["type"])
	}
	if _, ok := fn.Parameters["required"]; !ok {
		t.Error("required missing from parameters")
	}
}

func TestToAnthropic(t *testing.T) {
	got := ToAnthropic([]mcptypes.Tool{searchTool()})
	if len(got) != 1 || got[0].OfTool == nil {
		t.Fatalf("tools = %+v", got)
	}
	if got[0].OfTool.Name != "web_search" {
		t.Errorf("name = %q", got[0].OfTool.Name)
	}
	if len(got[0].OfTool.InputSchema.Required) != 1 {
		t.Errorf("required = %v", got[0].OfTool.InputSchema.Required)
	}
}

func TestSchemaMapDefaultsType(t *testing.T) {
	m := schemaMap(mcptypes.ToolInputSchema{Properties: map[string]any{}})
	if m["type"] != "object" {
		t.Errorf("type = %v, want object", m["type"])
	}
	if _, ok := m["required"]; ok {
		t.Error("empty required should be omitted")
	}
}

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"object", `{"query":"go"}`, 1, false},
		{"null", "null", 0, false},
		{"broken", `{"query":`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArguments(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestCallRequest(t *testing.T) {
	req := CallRequest(model.ToolInvocation{Name: "web_search", Arguments: map[string]any{"query": "go"}})
	if req.Params.Name != "web_search" {
		t.Errorf("name = %q", req.Params.Name)
	}
	q, err := req.RequireString("query")
	if err != nil || q != "go" {
		t.Errorf("RequireString = %q, %v", q, err)
	}
}
