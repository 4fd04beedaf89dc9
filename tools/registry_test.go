package tools

import (
	"context"
	"errors"
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"searchpipe/config"
	"searchpipe/errs"
	"searchpipe/model"
)

type fakeSearcher struct {
	answerQuery  string
	answerText   bool
	contextQuery string
	contextTok   int
	err          error
}

func (f *fakeSearcher) Answer(_ context.Context, query string, text bool) (model.RetrievalResult, error) {
	f.answerQuery, f.answerText = query, text
	answer := "answer for " + query
	return model.RetrievalResult{AnswerText: &answer, Sources: []model.SourceRecord{{Title: "A", URL: "https://a.example"}}}, f.err
}

func (f *fakeSearcher) Context(_ context.Context, query string, tokensNum int) (model.RetrievalResult, error) {
	f.contextQuery, f.contextTok = query, tokensNum
	text := "context for " + query
	return model.RetrievalResult{AnswerText: &text}, f.err
}

var _ Searcher = (*fakeSearcher)(nil)

func TestNewSearchRegistry(t *testing.T) {
	tests := []struct {
		name      string
		web, code bool
		want      []string
	}{
		{"both", true, true, []string{WebSearch, CodeSearch}},
		{"web only", true, false, []string{WebSearch}},
		{"code only", false, true, []string{CodeSearch}},
		{"none", false, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := config.Defaults()
			v.WebSearchEnabled, v.CodeSearchEnabled = tt.web, tt.code

			reg, err := NewSearchRegistry(v, &fakeSearcher{})
			if err != nil {
				t.Fatal(err)
			}
			got := reg.Descriptors()
			if len(got) != len(tt.want) {
				t.Fatalf("descriptors = %d, want %d", len(got), len(tt.want))
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("descriptor[%d] = %s, want %s", i, got[i].Name, name)
				}
				if len(got[i].InputSchema.Required) != 1 || got[i].InputSchema.Required[0] != "query" {
					t.Errorf("%s should require query", name)
				}
			}
		})
	}
}

func TestDispatch(t *testing.T) {
	v := config.Defaults()
	v.ExaTextParameter = true
	v.ExaContextTokensNum = 1234
	searcher := &fakeSearcher{}
	reg, err := NewSearchRegistry(v, searcher)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	res, err := reg.Dispatch(ctx, model.ToolInvocation{ID: "1", Name: WebSearch, Arguments: map[string]any{"query": "go"}})
	if err != nil {
		t.Fatalf("web_search: %v", err)
	}
	if searcher.answerQuery != "go" || !searcher.answerText || len(res.Sources) != 1 {
		t.Errorf("web_search not routed correctly: %+v", searcher)
	}

	if _, err := reg.Dispatch(ctx, model.ToolInvocation{Name: CodeSearch, Arguments: map[string]any{"query": "sync.Once"}}); err != nil {
		t.Fatalf("code_search: %v", err)
	}
	if searcher.contextQuery != "sync.Once" || searcher.contextTok != 1234 {
		t.Errorf("code_search not routed correctly: %+v", searcher)
	}
}

func TestDispatchResolutionErrors(t *testing.T) {
	reg, _ := NewSearchRegistry(config.Defaults(), &fakeSearcher{})

	tests := []struct {
		name string
		inv  model.ToolInvocation
		code string
	}{
		{"unknown tool", model.ToolInvocation{Name: "image_search"}, errs.CodeToolNotFound},
		{"missing query", model.ToolInvocation{Name: CodeSearch, Arguments: map[string]any{}}, errs.CodeToolInvalidParams},
		{"nil arguments", model.ToolInvocation{Name: WebSearch}, errs.CodeToolInvalidParams},
		{"wrong type", model.ToolInvocation{Name: WebSearch, Arguments: map[string]any{"query": 42.0}}, errs.CodeToolInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Dispatch(context.Background(), tt.inv)
			var e *errs.Error
			if !errors.As(err, &e) {
				t.Fatalf("err = %v, want *errs.Error", err)
			}
			if e.Kind != errs.KindToolResolution || e.Code != tt.code {
				t.Errorf("got %s/%s, want tool_resolution/%s", e.Kind, e.Code, tt.code)
			}
			if !errs.Recoverable(err) {
				t.Error("resolution errors must be recoverable")
			}
		})
	}
}

func TestDispatchHandlerErrorPassesThrough(t *testing.T) {
	upstream := errs.UpstreamStatus("Exa", 500, "boom")
	reg, _ := NewSearchRegistry(config.Defaults(), &fakeSearcher{err: upstream})

	_, err := reg.Dispatch(context.Background(), model.ToolInvocation{Name: WebSearch, Arguments: map[string]any{"query": "q"}})
	if !errors.Is(err, upstream) {
		t.Errorf("err = %v, want the upstream error", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	h := func(context.Context, mcptypes.CallToolRequest) (model.RetrievalResult, error) {
		return model.RetrievalResult{}, nil
	}
	if err := reg.Register(WebSearchTool(), h); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(WebSearchTool(), h); err == nil {
		t.Error("duplicate registration should fail")
	}
	if err := reg.Register(mcptypes.Tool{}, h); err == nil {
		t.Error("empty name should fail")
	}
}

func TestValidate(t *testing.T) {
	schema := mcptypes.ToolInputSchema{
		Type:     "object",
		Required: []string{"query"},
		Properties: map[string]any{
			"query": map[string]any{"type": "string"},
			"limit": map[string]any{"type": "integer"},
			"deep":  map[string]any{"type": "boolean"},
		},
	}

	tests := []struct {
		name    string
		args    map[string]any
		wantErr bool
	}{
		{"ok", map[string]any{"query": "q"}, false},
		{"integer as float", map[string]any{"query": "q", "limit": 3.0}, false},
		{"fractional integer", map[string]any{"query": "q", "limit": 3.5}, true},
		{"bool mismatch", map[string]any{"query": "q", "deep": "yes"}, true},
		{"extra field ignored", map[string]any{"query": "q", "other": []any{1}}, false},
		{"null required", map[string]any{"query": nil}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.args, schema)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
