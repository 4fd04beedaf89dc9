package tools

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"searchpipe/config"
	"searchpipe/errs"
	"searchpipe/model"
)

// Tool names offered to the model.
const (
	WebSearch  = "web_search"
	CodeSearch = "code_search"
)

// Searcher is the retrieval backend behind the search tools.
type Searcher interface {
	Answer(ctx context.Context, query string, text bool) (model.RetrievalResult, error)
	Context(ctx context.Context, query string, tokensNum int) (model.RetrievalResult, error)
}

// WebSearchTool describes the general web search tool.
func WebSearchTool() mcptypes.Tool {
	return mcptypes.NewTool(WebSearch,
		mcptypes.WithDescription("Search the web for current information, news, facts and general knowledge. Returns an answer with cited sources."),
		mcptypes.WithString("query",
			mcptypes.Required(),
			mcptypes.Description("The search query"),
		),
	)
}

// CodeSearchTool describes the code and documentation search tool.
func CodeSearchTool() mcptypes.Tool {
	return mcptypes.NewTool(CodeSearch,
		mcptypes.WithDescription("Search code examples, library documentation and technical references. Use for programming questions."),
		mcptypes.WithString("query",
			mcptypes.Required(),
			mcptypes.Description("The programming question or code search query"),
		),
	)
}

// NewSearchRegistry builds the per-invocation registry from the valves.
// Disabled tools are left out entirely.
func NewSearchRegistry(v config.Valves, s Searcher) (*Registry, error) {
	reg := NewRegistry()

	if v.WebSearchEnabled {
		err := reg.Register(WebSearchTool(), func(ctx context.Context, req mcptypes.CallToolRequest) (model.RetrievalResult, error) {
			query, err := req.RequireString("query")
			if err != nil {
				return model.RetrievalResult{}, errs.ToolInvalidParams(WebSearch, err)
			}
			return s.Answer(ctx, query, v.ExaTextParameter)
		})
		if err != nil {
			return nil, err
		}
	}

	if v.CodeSearchEnabled {
		err := reg.Register(CodeSearchTool(), func(ctx context.Context, req mcptypes.CallToolRequest) (model.RetrievalResult, error) {
			query, err := req.RequireString("query")
			if err != nil {
				return model.RetrievalResult{}, errs.ToolInvalidParams(CodeSearch, err)
			}
			return s.Context(ctx, query, v.ExaContextTokensNum)
		})
		if err != nil {
			return nil, err
		}
	}

	return reg, nil
}
