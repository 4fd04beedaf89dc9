package pipe

import (
	"context"
	"sync"

	"searchpipe/config"
	"searchpipe/events"
	"searchpipe/model"
)

// guardedSink stops forwarding once the caller has gone away or the stream
// has been terminated.
type guardedSink struct {
	caller context.Context
	next   events.Sink

	mu     sync.Mutex
	closed bool
}

func newGuardedSink(caller context.Context, next events.Sink) *guardedSink {
	return &guardedSink{caller: caller, next: next}
}

// Emit forwards non-terminal chunks. Terminal chunks are reserved for
// terminate.
func (g *guardedSink) Emit(ctx context.Context, chunk model.StreamChunk) error {
	if chunk.Terminal() {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.caller.Err(); err != nil {
		return err
	}
	if g.closed {
		return context.Canceled
	}
	return g.next.Emit(ctx, chunk)
}

func (g *guardedSink) terminate(ctx context.Context, chunk model.StreamChunk) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed || g.caller.Err() != nil {
		return
	}
	g.closed = true
	if err := g.next.Emit(ctx, chunk); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[pipe] terminal %s chunk not delivered: %v", chunk.Kind, err)
	}
}
