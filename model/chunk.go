package model

// ChunkKind tags a StreamChunk.
type ChunkKind int

const (
	// ChunkText carries a piece of assistant output.
	ChunkText ChunkKind = iota

	// ChunkCitations carries a batch of newly assigned citations.
	ChunkCitations

	// ChunkError is terminal: the invocation failed after emitting whatever
	// came before it.
	ChunkError

	// ChunkDone is terminal: the invocation finished normally.
	ChunkDone
)

// String returns the kind name.
func (k ChunkKind) String() string {
	switch k {
	case ChunkText:
		return "text"
	case ChunkCitations:
		return "citations"
	case ChunkError:
		return "error"
	case ChunkDone:
		return "done"
	default:
		return "unknown"
	}
}

// StreamChunk is one unit of output handed to an event sink. Order matters:
// a citation batch always precedes the text that may reference it.
type StreamChunk struct {
	Kind      ChunkKind
	Text      string
	Citations []Citation
	Err       error
}

// Terminal reports whether the chunk closes the stream.
func (c StreamChunk) Terminal() bool {
	return c.Kind == ChunkError || c.Kind == ChunkDone
}

// TextChunk builds a text chunk.
func TextChunk(text string) StreamChunk {
	return StreamChunk{Kind: ChunkText, Text: text}
}

// CitationChunk builds a citation batch.
func CitationChunk(citations []Citation) StreamChunk {
	return StreamChunk{Kind: ChunkCitations, Citations: citations}
}

// ErrorChunk builds the terminal error marker. text is what the caller sees.
func ErrorChunk(text string, err error) StreamChunk {
	return StreamChunk{Kind: ChunkError, Text: text, Err: err}
}

// DoneChunk builds the terminal success marker.
func DoneChunk() StreamChunk {
	return StreamChunk{Kind: ChunkDone}
}
