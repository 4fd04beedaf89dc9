package agent

import (
	"fmt"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"searchpipe/citation"
	"searchpipe/model"
)

const (
	fallbackWithSources = "Based on the search results I found, here's what I can tell you about your query. I found %d relevant sources that should help answer your question."
	fallbackNoSources   = "I apologize, but I couldn't generate a response. Please try rephrasing your question."
)

// guidance builds the system turn that opens the loop: the caller's own
// system prompt followed by a short description of each available tool.
func guidance(system string, tools []mcptypes.Tool) string {
	var sb strings.Builder
	if system != "" {
		sb.WriteString(system)
		sb.WriteString("\n\n")
	}

	if len(tools) == 0 {
		sb.WriteString("Answer the question from your own knowledge.")
		return sb.String()
	}

	fmt.Fprintf(&sb, "You have access to %d search tool(s):\n", len(tools))
	for _, t := range tools {
		fmt.Fprintf(&sb, "- %s: %s\n", t.Name, t.Description)
	}
	sb.WriteString("Choose the appropriate tool based on the question type. You can call tools multiple times if needed. ")
	sb.WriteString("Cite sources with their bracketed number, e.g. [1].")
	return sb.String()
}

// toolResult renders a successful tool call as the content of a tool turn.
// Sources are listed with the citation numbers the caller already received.
func toolResult(res model.RetrievalResult, known citation.Seen) string {
	var sb strings.Builder
	if res.HasAnswer() {
		sb.WriteString(*res.AnswerText)
	}

	var lines []string
	for _, src := range res.Sources {
		idx, ok := known[src.URL]
		if !ok {
			continue
		}
		title := src.Title
		if title == "" {
			title = src.URL
		}
		lines = append(lines, fmt.Sprintf("[%d] %s - %s", idx, title, src.URL))
	}
	if len(lines) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("Sources:\n")
		sb.WriteString(strings.Join(lines, "\n"))
	}

	if sb.Len() == 0 {
		return "No results."
	}
	return sb.String()
}

// toolError renders a failed tool call so the model can try something else.
func toolError(name string, msg string) string {
	return fmt.Sprintf("Error executing %s: %s", name, msg)
}

// Fallback is the answer given when the model produces no text. It mentions
// how many sources were found, if any.
func Fallback(sources int) string {
	if sources > 0 {
		return fmt.Sprintf(fallbackWithSources, sources)
	}
	return fallbackNoSources
}
