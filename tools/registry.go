// Package tools holds the retrieval tools offered to the agent and dispatches
// the calls the model makes against them.
package tools

import (
	"context"
	"fmt"
	"sync"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"searchpipe/config"
	"searchpipe/errs"
	"searchpipe/mcp"
	"searchpipe/model"
)

// Handler executes one tool call.
type Handler func(ctx context.Context, req mcptypes.CallToolRequest) (model.RetrievalResult, error)

type entry struct {
	tool    mcptypes.Tool
	handler Handler
}

// Registry maps tool names to descriptors and handlers. Registration order
// is preserved so the model always sees the tools in the same order.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	order   []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(tool mcptypes.Tool, handler Handler) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if handler == nil {
		return fmt.Errorf("tool %s has no handler", tool.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; exists {
		return fmt.Errorf("tool %s already registered", tool.Name)
	}
	r.entries[tool.Name] = entry{tool: tool, handler: handler}
	r.order = append(r.order, tool.Name)
	return nil
}

// Descriptors returns the registered tools in registration order.
func (r *Registry) Descriptors() []mcptypes.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]mcptypes.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].tool)
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Dispatch validates inv against the tool schema and runs the handler.
// Unknown tools and bad arguments yield a ToolResolution error; the handler's
// own errors are returned unchanged.
func (r *Registry) Dispatch(ctx context.Context, inv model.ToolInvocation) (model.RetrievalResult, error) {
	r.mu.RLock()
	e, ok := r.entries[inv.Name]
	r.mu.RUnlock()

	if !ok {
		return model.RetrievalResult{}, errs.ToolNotFound(inv.Name)
	}

	if err := Validate(inv.Arguments, e.tool.InputSchema); err != nil {
		return model.RetrievalResult{}, errs.ToolInvalidParams(inv.Name, err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[tools] dispatch %s (id=%s)", inv.Name, inv.ID)
	}

	return e.handler(ctx, mcp.CallRequest(inv))
}
