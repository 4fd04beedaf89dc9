package pipe

import (
	"context"
	"strings"

	"searchpipe/agent"
	"searchpipe/citation"
	"searchpipe/config"
	"searchpipe/conversation"
	"searchpipe/events"
	"searchpipe/model"
	"searchpipe/provider"
	"searchpipe/tools"
	"searchpipe/upstream"
)

func (e *Engine) clientOptions() []upstream.Option {
	if e.httpClient == nil {
		return nil
	}
	return []upstream.Option{upstream.WithHTTPClient(e.httpClient)}
}

func runAgent(ctx context.Context, e *Engine, v config.Valves, conv conversation.Context, sink events.Sink) error {
	exa := upstream.NewExa(v.ExaAPIKey, v.ExaBaseURL, e.clientOptions()...)
	reg, err := tools.NewSearchRegistry(v, exa)
	if err != nil {
		return err
	}

	cfg := provider.FromValves(v)
	cfg.HTTPClient = e.httpClient
	p, err := e.newProvider(cfg)
	if err != nil {
		return err
	}

	a := agent.New(p, reg, agent.Options{
		MaxRounds:    v.MaxToolRounds,
		EmitSources:  v.EmitSources,
		OnTransition: e.onTransition,
	})
	_, err = a.Run(ctx, conv, sink)
	return err
}

func runSonar(ctx context.Context, e *Engine, v config.Valves, conv conversation.Context, sink events.Sink) error {
	sonar := upstream.NewSonar(v.PerplexityAPIKey, v.PerplexityBaseURL, upstream.SonarOptions{
		Model:       v.PerplexityModel,
		Recency:     v.SearchRecency,
		ContextSize: v.SearchContextSize,
	}, e.clientOptions()...)

	var messages []model.Message
	if system := directSystemPrompt(conv); system != "" {
		messages = append(messages, model.SystemMessage(system))
	}
	messages = append(messages, model.UserMessage(conv.Query))

	d := newDirect(v.EmitSources, sink)
	if err := sonar.Stream(ctx, messages, d.text(ctx), d.sources(ctx)); err != nil {
		return err
	}
	return d.finish(ctx)
}

func runExaAnswer(ctx context.Context, e *Engine, v config.Valves, conv conversation.Context, sink events.Sink) error {
	exa := upstream.NewExa(v.ExaAPIKey, v.ExaBaseURL, e.clientOptions()...)

	d := newDirect(v.EmitSources, sink)
	if err := exa.AnswerStream(ctx, answerQuery(conv), v.ExaTextParameter, d.text(ctx), d.sources(ctx)); err != nil {
		return err
	}
	return d.finish(ctx)
}

// answerQuery folds the caller's system prompt and earlier turns into the
// single query string /answer accepts. A bare query is sent unchanged.
func answerQuery(conv conversation.Context) string {
	system := conv.SystemPrompt()
	background := conv.Background()
	if system == "" && background == "" {
		return conv.Query
	}

	var sb strings.Builder
	if system != "" {
		sb.WriteString("Instructions: ")
		sb.WriteString(system)
		sb.WriteString("\n\n")
	}
	sb.WriteString(background)
	sb.WriteString("Current query: ")
	sb.WriteString(conv.Query)
	return sb.String()
}

// directSystemPrompt joins the caller's system prompt with the transcript of
// earlier turns.
func directSystemPrompt(conv conversation.Context) string {
	var parts []string
	if s := conv.SystemPrompt(); s != "" {
		parts = append(parts, s)
	}
	if b := conv.Background(); b != "" {
		parts = append(parts, strings.TrimRight(b, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// direct forwards a provider stream, numbering sources as they arrive.
type direct struct {
	emitSources bool
	sink        events.Sink
	seen        citation.Seen
	wrote       bool
}

func newDirect(emitSources bool, sink events.Sink) *direct {
	return &direct{emitSources: emitSources, sink: sink, seen: citation.Seen{}}
}

func (d *direct) text(ctx context.Context) func(string) error {
	return func(s string) error {
		if s == "" {
			return nil
		}
		if strings.TrimSpace(s) != "" {
			d.wrote = true
		}
		return d.sink.Emit(ctx, model.TextChunk(s))
	}
}

func (d *direct) sources(ctx context.Context) func([]model.SourceRecord) error {
	return func(records []model.SourceRecord) error {
		var fresh []model.Citation
		fresh, d.seen = citation.Normalize(records, d.seen)
		if !d.emitSources || len(fresh) == 0 {
			return nil
		}
		return d.sink.Emit(ctx, model.CitationChunk(fresh))
	}
}

func (d *direct) finish(ctx context.Context) error {
	if d.wrote {
		return nil
	}
	return d.sink.Emit(ctx, model.TextChunk(agent.Fallback(len(d.seen))))
}
