package provider

import (
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// buildToolInstructions renders the system block prepended when tools are offered.
func buildToolInstructions(tools []mcptypes.Tool) string {
	lines := []string{"TOOLS:"}
	for _, tool := range tools {
		lines = append(lines, "- "+tool.Name+": "+tool.Description)
	}

	return strings.Join(append(lines,
		"",
		"Call a tool when the question needs information you do not have.",
		"Answer directly when it does not.",
		"Cite sources from tool results inline as [n].",
	), "\n")
}

// skipToolInstructions reports models that misbehave when tools are listed
// in the prompt as well as in the request.
func skipToolInstructions(modelName string) bool {
	return strings.Contains(strings.ToLower(modelName), "qwen")
}
