// Package conversation turns a raw message history into the pieces each
// pipe needs: the system prompt, the prior turns and the current query.
package conversation

import (
	"strings"

	"searchpipe/model"
)

const transcriptHeader = "Previous conversation:\n\n"

// Context is the structured view of one invocation's history.
type Context struct {
	// System is the leading system message, if any.
	System *model.Message

	// Turns is the history with the leading system message removed.
	Turns []model.Message

	// Prior is Turns without its final entry.
	Prior []model.Message

	// Query is the content of the final turn.
	Query string
}

// PopSystem splits off a leading system message. Only the first message is
// considered; system messages further down stay where they are.
func PopSystem(history []model.Message) (*model.Message, []model.Message) {
	if len(history) == 0 {
		return nil, nil
	}
	if history[0].Role != model.RoleSystem {
		return nil, history
	}
	system := history[0]
	return &system, history[1:]
}

// Build derives a Context from history. An empty history gives an empty
// Context, never an error.
func Build(history []model.Message) Context {
	system, turns := PopSystem(history)
	ctx := Context{System: system, Turns: turns}
	if len(turns) == 0 {
		return ctx
	}
	ctx.Prior = turns[:len(turns)-1]
	ctx.Query = turns[len(turns)-1].Content
	return ctx
}

// Background renders the prior turns as a transcript block.
func (c Context) Background() string {
	return Transcript(c.Prior)
}

// SystemPrompt returns the system message content or "".
func (c Context) SystemPrompt() string {
	if c.System == nil {
		return ""
	}
	return c.System.Content
}

// Transcript renders turns as a role-labelled block:
//
//	Previous conversation:
//
//	User: ...
//
//	Assistant: ...
//
// An empty slice renders as "".
func Transcript(turns []model.Message) string {
	if len(turns) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(transcriptHeader)
	for _, msg := range turns {
		sb.WriteString(roleLabel(msg.Role))
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func roleLabel(role model.Role) string {
	switch role {
	case model.RoleUser:
		return "User"
	case model.RoleAssistant:
		return "Assistant"
	case model.RoleSystem:
		return "System"
	case model.RoleTool:
		return "Tool"
	case "":
		return "Unknown"
	default:
		s := string(role)
		return strings.ToUpper(s[:1]) + s[1:]
	}
}
