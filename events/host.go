package events

import (
	"context"
	"time"

	"searchpipe/model"
)

// Host event types.
const (
	TypeMessageDelta = "chat:message:delta"
	TypeCompletion   = "chat:completion"

	sourceType = "web_search_results"
)

// Event is one message in the host's event protocol.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Source is one entry of a sources event.
type Source struct {
	Source   SourceInfo       `json:"source"`
	Document []string         `json:"document"`
	Metadata []SourceMetadata `json:"metadata"`
}

// SourceInfo names a source and its links.
type SourceInfo struct {
	Name string   `json:"name"`
	Type string   `json:"type"`
	URLs []string `json:"urls"`
}

// SourceMetadata carries the optional per-source fields. Absent values are
// omitted rather than sent empty.
type SourceMetadata struct {
	Source        string `json:"source"`
	Author        string `json:"author,omitempty"`
	PublishedDate string `json:"publishedDate,omitempty"`
}

// HostSink translates chunks into host events and hands them to emit.
type HostSink struct {
	emit func(ctx context.Context, event Event) error
}

// NewHostSink returns a sink that forwards events to emit.
func NewHostSink(emit func(ctx context.Context, event Event) error) *HostSink {
	return &HostSink{emit: emit}
}

// Emit implements Sink.
func (h *HostSink) Emit(ctx context.Context, chunk model.StreamChunk) error {
	switch chunk.Kind {
	case model.ChunkText:
		if chunk.Text == "" {
			return nil
		}
		return h.emit(ctx, Event{
			Type: TypeMessageDelta,
			Data: map[string]any{"role": "assistant", "content": chunk.Text},
		})
	case model.ChunkCitations:
		if len(chunk.Citations) == 0 {
			return nil
		}
		return h.emit(ctx, Event{
			Type: TypeCompletion,
			Data: map[string]any{"sources": Sources(chunk.Citations)},
		})
	case model.ChunkError:
		return h.emit(ctx, Event{
			Type: TypeCompletion,
			Data: map[string]any{"done": true, "error": map[string]any{"content": chunk.Text}},
		})
	case model.ChunkDone:
		return h.emit(ctx, Event{
			Type: TypeCompletion,
			Data: map[string]any{"done": true},
		})
	}
	return nil
}

// Sources converts citations to the host source format. A citation without
// a preview gets an empty document list.
func Sources(citations []model.Citation) []Source {
	out := make([]Source, 0, len(citations))
	for _, c := range citations {
		doc := []string{}
		if c.Preview != nil {
			doc = append(doc, *c.Preview)
		}

		meta := SourceMetadata{Source: c.Metadata.SourceURL}
		if c.Metadata.Author != nil {
			meta.Author = *c.Metadata.Author
		}
		if c.Metadata.PublishedAt != nil {
			meta.PublishedDate = c.Metadata.PublishedAt.Format(time.RFC3339)
		}

		out = append(out, Source{
			Source:   SourceInfo{Name: c.Label, Type: sourceType, URLs: c.URLs},
			Document: doc,
			Metadata: []SourceMetadata{meta},
		})
	}
	return out
}
