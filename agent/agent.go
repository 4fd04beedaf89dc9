// Package agent runs the bounded decide/act loop behind agent-mode pipes.
//
// Each round the chat model either answers directly or asks for one or more
// tool calls. Model text streams to the sink as it arrives. Tool calls run
// one after another; their sources are normalized into citations and flushed
// to the sink before the model sees the results.
// When MaxRounds tool rounds have run, the model is asked to answer with the
// tools withdrawn.
package agent

import (
	"context"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"searchpipe/citation"
	"searchpipe/config"
	"searchpipe/conversation"
	"searchpipe/errs"
	"searchpipe/events"
	"searchpipe/model"
)

// DefaultMaxRounds is used when Options.MaxRounds is not positive.
const DefaultMaxRounds = 4

// Dispatcher offers tools and executes calls against them.
type Dispatcher interface {
	Descriptors() []mcptypes.Tool
	Dispatch(ctx context.Context, inv model.ToolInvocation) (model.RetrievalResult, error)
}

// Options tune one loop run.
type Options struct {
	MaxRounds   int
	EmitSources bool

	// OnTransition, if set, is called for every state change.
	OnTransition TransitionFunc
}

// Agent drives one invocation. It is not reusable.
type Agent struct {
	provider model.Provider
	tools    Dispatcher
	opts     Options

	state  State
	rounds int
	seen   citation.Seen
	text   strings.Builder

	// gap is set when emitted text preceded a tool round; the next text
	// starts a new paragraph.
	gap bool
}

// Result summarizes a finished run.
type Result struct {
	State     State
	Rounds    int
	Citations int
	Text      string
}

// New creates an agent.
func New(provider model.Provider, tools Dispatcher, opts Options) *Agent {
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	return &Agent{
		provider: provider,
		tools:    tools,
		opts:     opts,
		state:    StateDeciding,
		seen:     citation.Seen{},
	}
}

// Run executes the loop over conv, emitting text and citation chunks to sink.
// It never emits a terminal chunk; the returned error decides which one the
// caller sends.
func (a *Agent) Run(ctx context.Context, conv conversation.Context, sink events.Sink) (Result, error) {
	descriptors := a.tools.Descriptors()
	messages := make([]model.Message, 0, len(conv.Turns)+1)
	messages = append(messages, model.SystemMessage(guidance(conv.SystemPrompt(), descriptors)))
	messages = append(messages, conv.Turns...)

	for {
		if a.rounds >= a.opts.MaxRounds {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[agent] round bound %d reached, forcing synthesis", a.opts.MaxRounds)
			}
			a.transition(StateSynthesizing)
			return a.synthesize(ctx, messages, sink)
		}

		text, calls, err := a.decide(ctx, messages, descriptors, sink)
		if err != nil {
			return a.fail(err)
		}

		if len(calls) == 0 {
			a.transition(StateSynthesizing)
			if strings.TrimSpace(a.text.String()) == "" {
				if err := a.emitText(ctx, sink, Fallback(len(a.seen))); err != nil {
					return a.fail(err)
				}
			}
			a.transition(StateDone)
			return a.result(), nil
		}

		a.transition(StateAwaitingTool)
		if strings.TrimSpace(text) != "" {
			messages = append(messages, model.AssistantMessage(text))
			a.gap = true
		}
		for _, call := range calls {
			turn, err := a.act(ctx, call, sink)
			if err != nil {
				return a.fail(err)
			}
			messages = append(messages, turn)
		}
		a.rounds++
		a.transition(StateDeciding)
	}
}

// decide asks the model for its next move. Text is forwarded to the sink as
// it streams; tool calls are collected and returned. Text already emitted
// stays part of the answer even when the turn ends in tool calls.
func (a *Agent) decide(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, sink events.Sink) (string, []model.ToolInvocation, error) {
	var sb strings.Builder
	var calls []model.ToolInvocation
	var emitErr error

	err := a.provider.ChatWithTools(ctx, messages, tools, func(chunk string, toolCalls []model.ToolInvocation) error {
		calls = append(calls, toolCalls...)
		if chunk == "" {
			return nil
		}
		sb.WriteString(chunk)
		if err := a.emitText(ctx, sink, chunk); err != nil {
			emitErr = err
			return err
		}
		return nil
	})
	if emitErr != nil {
		return "", nil, emitErr
	}
	if err != nil {
		return "", nil, errs.FromTransport(ctx, a.provider.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return "", nil, errs.FromTransport(ctx, a.provider.Name(), err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[agent] round %d: %d chars, %d tool call(s)", a.rounds+1, sb.Len(), len(calls))
	}
	return sb.String(), calls, nil
}

// act runs one tool call and returns the turn that reports it to the model.
// Recoverable failures become an error turn; the invocation deadline or a
// caller cancellation fails the run.
func (a *Agent) act(ctx context.Context, call model.ToolInvocation, sink events.Sink) (model.Message, error) {
	res, err := a.tools.Dispatch(ctx, call)
	if err != nil {
		if ctx.Err() != nil {
			return model.Message{}, errs.FromTransport(ctx, call.Name, ctx.Err())
		}
		if !errs.Recoverable(err) {
			return model.Message{}, err
		}
		if config.DebugLog != nil {
			config.DebugLog.Printf("[agent] tool %s failed: %v", call.Name, err)
		}
		return model.ToolMessage(call.Name, toolError(call.Name, errs.UserMessage(err))), nil
	}

	var fresh []model.Citation
	fresh, a.seen = citation.Normalize(res.Sources, a.seen)
	if a.opts.EmitSources && len(fresh) > 0 {
		if err := sink.Emit(ctx, model.CitationChunk(fresh)); err != nil {
			return model.Message{}, err
		}
	}

	return model.ToolMessage(call.Name, toolResult(res, a.seen)), nil
}

// synthesize streams the final answer with the tools withdrawn.
func (a *Agent) synthesize(ctx context.Context, messages []model.Message, sink events.Sink) (Result, error) {
	var emitErr error
	err := a.provider.Chat(ctx, messages, func(chunk string, _ []model.ToolInvocation) error {
		if chunk == "" {
			return nil
		}
		if err := a.emitText(ctx, sink, chunk); err != nil {
			emitErr = err
			return err
		}
		return nil
	})
	if emitErr != nil {
		return a.fail(emitErr)
	}
	if err != nil {
		return a.fail(errs.FromTransport(ctx, a.provider.Name(), err))
	}
	if err := ctx.Err(); err != nil {
		return a.fail(errs.FromTransport(ctx, a.provider.Name(), err))
	}

	if strings.TrimSpace(a.text.String()) == "" {
		if err := a.emitText(ctx, sink, Fallback(len(a.seen))); err != nil {
			return a.fail(err)
		}
	}

	a.transition(StateDone)
	return a.result(), nil
}

func (a *Agent) emitText(ctx context.Context, sink events.Sink, text string) error {
	if a.gap {
		a.gap = false
		text = "\n\n" + text
	}
	a.text.WriteString(text)
	return sink.Emit(ctx, model.TextChunk(text))
}

func (a *Agent) fail(err error) (Result, error) {
	a.transition(StateFailed)
	return a.result(), err
}

func (a *Agent) transition(to State) {
	from := a.state
	a.state = to
	if config.DebugLog != nil {
		config.DebugLog.Printf("[agent] %s -> %s", from, to)
	}
	if a.opts.OnTransition != nil {
		a.opts.OnTransition(from, to)
	}
}

func (a *Agent) result() Result {
	return Result{
		State:     a.state,
		Rounds:    a.rounds,
		Citations: len(a.seen),
		Text:      a.text.String(),
	}
}
