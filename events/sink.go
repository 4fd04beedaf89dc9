// Package events delivers stream chunks to whoever called the engine.
package events

import (
	"context"
	"sync"

	"searchpipe/model"
)

// Sink receives the chunks of one invocation in order.
type Sink interface {
	Emit(ctx context.Context, chunk model.StreamChunk) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, chunk model.StreamChunk) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, chunk model.StreamChunk) error {
	return f(ctx, chunk)
}

// Nop discards every chunk.
var Nop Sink = SinkFunc(func(context.Context, model.StreamChunk) error { return nil })

// Multi fans a chunk out to several sinks, stopping at the first error.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, chunk model.StreamChunk) error {
		for _, s := range sinks {
			if err := s.Emit(ctx, chunk); err != nil {
				return err
			}
		}
		return nil
	})
}

// Recorder keeps every chunk it receives. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	chunks []model.StreamChunk
}

// Emit records chunk.
func (r *Recorder) Emit(_ context.Context, chunk model.StreamChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, chunk)
	return nil
}

// Chunks returns a copy of the recorded chunks.
func (r *Recorder) Chunks() []model.StreamChunk {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.StreamChunk(nil), r.chunks...)
}

// Text concatenates the text chunks.
func (r *Recorder) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s string
	for _, c := range r.chunks {
		if c.Kind == model.ChunkText {
			s += c.Text
		}
	}
	return s
}

// Citations returns every citation in emission order.
func (r *Recorder) Citations() []model.Citation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Citation
	for _, c := range r.chunks {
		if c.Kind == model.ChunkCitations {
			out = append(out, c.Citations...)
		}
	}
	return out
}

// Kinds returns the kind of every chunk, in order.
func (r *Recorder) Kinds() []model.ChunkKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ChunkKind, len(r.chunks))
	for i, c := range r.chunks {
		out[i] = c.Kind
	}
	return out
}

// Terminal returns the last chunk if it is terminal.
func (r *Recorder) Terminal() (model.StreamChunk, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.chunks) == 0 {
		return model.StreamChunk{}, false
	}
	last := r.chunks[len(r.chunks)-1]
	return last, last.Terminal()
}
