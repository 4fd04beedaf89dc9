// Package pipe is the invocation boundary: it resolves a variant, validates
// its valves, runs it under the invocation deadline and closes the stream
// with exactly one terminal chunk.
package pipe

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"searchpipe/agent"
	"searchpipe/config"
	"searchpipe/conversation"
	"searchpipe/errs"
	"searchpipe/events"
	"searchpipe/model"
	"searchpipe/provider"
)

// Variant IDs.
const (
	ExaAgent        = "exa-agent"
	SonarDirect     = "sonar-direct"
	ExaAnswerDirect = "exa-answer-direct"
)

// Info describes one selectable pipe.
type Info struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProviderFactory builds the chat backend for agent mode.
type ProviderFactory func(cfg provider.Config) (model.Provider, error)

type variant struct {
	info    Info
	require func(v config.Valves) error
	run     func(ctx context.Context, e *Engine, v config.Valves, conv conversation.Context, sink events.Sink) error
}

// Engine runs pipes. It holds no per-invocation state and is safe for
// concurrent use.
type Engine struct {
	httpClient   *http.Client
	newProvider  ProviderFactory
	onTransition agent.TransitionFunc
	variants     []variant
}

// Option configures an Engine.
type Option func(*Engine)

// WithHTTPClient routes every provider call through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Engine) { e.httpClient = hc }
}

// WithProviderFactory replaces provider.NewProvider for agent mode.
func WithProviderFactory(f ProviderFactory) Option {
	return func(e *Engine) { e.newProvider = f }
}

// WithTransitionObserver reports agent state changes.
func WithTransitionObserver(f agent.TransitionFunc) Option {
	return func(e *Engine) { e.onTransition = f }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{newProvider: provider.NewProvider}
	for _, opt := range opts {
		opt(e)
	}
	e.variants = []variant{
		{
			info: Info{ID: ExaAgent, Name: "Exa Agent"},
			require: func(v config.Valves) error {
				if err := v.Require("EXA_API_KEY"); err != nil {
					return err
				}
				return v.RequireLLM()
			},
			run: runAgent,
		},
		{
			info:    Info{ID: SonarDirect, Name: "Sonar Direct"},
			require: func(v config.Valves) error { return v.Require("PERPLEXITY_API_KEY") },
			run:     runSonar,
		},
		{
			info:    Info{ID: ExaAnswerDirect, Name: "Exa Answer Direct"},
			require: func(v config.Valves) error { return v.Require("EXA_API_KEY") },
			run:     runExaAnswer,
		},
	}
	return e
}

// Pipes lists the available variants.
func (e *Engine) Pipes() []Info {
	out := make([]Info, len(e.variants))
	for i, v := range e.variants {
		out[i] = v.info
	}
	return out
}

// Resolve maps a requested variant ID, optionally prefixed by the host's
// function ID ("searchpipe.exa-agent"), to a known pipe.
func (e *Engine) Resolve(id string) (Info, bool) {
	v, ok := e.lookup(id)
	return v.info, ok
}

func (e *Engine) lookup(id string) (variant, bool) {
	id = strings.TrimSpace(id)
	for _, v := range e.variants {
		if id == v.info.ID || strings.HasSuffix(id, "."+v.info.ID) {
			return v, true
		}
	}
	return variant{}, false
}

// Pipe runs one invocation and reports how it ended. Every outcome except
// caller cancellation leaves exactly one terminal chunk in sink; after the
// caller cancels, nothing more is emitted.
func (e *Engine) Pipe(ctx context.Context, req model.InvocationRequest, sink events.Sink) model.Status {
	id := uuid.NewString()
	guard := newGuardedSink(ctx, sink)

	if config.DebugLog != nil {
		config.DebugLog.Printf("[pipe %s] start variant=%q turns=%d", id, req.Variant, len(req.History))
	}

	v, ok := e.lookup(req.Variant)
	if !ok {
		return e.finish(ctx, id, guard, errs.UnknownPipe(req.Variant))
	}

	valves, err := config.FromMap(req.Settings)
	if err == nil {
		err = v.require(valves)
	}
	if err != nil {
		return e.finish(ctx, id, guard, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, valves.Timeout)
	defer cancel()

	err = v.run(runCtx, e, valves, conversation.Build(req.History), guard)
	if err == nil && runCtx.Err() == nil {
		return e.finish(ctx, id, guard, nil)
	}
	if err == nil || (errors.Is(runCtx.Err(), context.DeadlineExceeded) && !errs.Is(err, errs.KindTimeout)) {
		err = errs.Timeout(v.info.ID, runCtx.Err())
	}
	return e.finish(ctx, id, guard, err)
}

// finish closes the stream. The terminal chunk goes out on the caller's
// context so an expired invocation deadline can still be reported.
func (e *Engine) finish(ctx context.Context, id string, sink *guardedSink, err error) model.Status {
	if ctx.Err() != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[pipe %s] cancelled by caller", id)
		}
		return model.StatusCancelled
	}

	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[pipe %s] failed: %v", id, err)
		}
		sink.terminate(ctx, model.ErrorChunk(errs.UserMessage(err), err))
		return model.StatusFailed
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[pipe %s] done", id)
	}
	sink.terminate(ctx, model.DoneChunk())
	return model.StatusDone
}
