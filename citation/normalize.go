// Package citation converts provider sources into numbered, deduplicated citations.
package citation

import (
	"fmt"

	"searchpipe/model"
)

// PreviewLimit is the maximum preview length in runes.
const PreviewLimit = 500

// Seen maps every URL already cited in an invocation to its index.
// Indices run from 1 to len(Seen) without gaps.
type Seen map[string]int

// Normalize assigns indices to the sources whose URL has not been seen yet and
// returns them with the updated Seen set. The input set is never modified.
//
// Sources without a URL cannot be linked and are skipped. Within a batch the
// first occurrence of a URL wins.
func Normalize(sources []model.SourceRecord, seen Seen) ([]model.Citation, Seen) {
	next := make(Seen, len(seen)+len(sources))
	for url, idx := range seen {
		next[url] = idx
	}

	var out []model.Citation
	for _, src := range sources {
		if src.URL == "" {
			continue
		}
		if _, dup := next[src.URL]; dup {
			continue
		}

		index := len(next) + 1
		next[src.URL] = index
		out = append(out, build(index, src))
	}

	return out, next
}

func build(index int, src model.SourceRecord) model.Citation {
	title := src.Title
	if title == "" {
		title = src.URL
	}

	return model.Citation{
		Index:   index,
		Label:   fmt.Sprintf("[%d] %s", index, title),
		URLs:    []string{src.URL},
		Preview: preview(src.Snippet),
		Metadata: model.CitationMetadata{
			SourceURL:   src.URL,
			Author:      src.Author,
			PublishedAt: src.PublishedAt,
		},
	}
}

func preview(snippet *string) *string {
	if snippet == nil || *snippet == "" {
		return nil
	}
	runes := []rune(*snippet)
	if len(runes) <= PreviewLimit {
		s := *snippet
		return &s
	}
	s := string(runes[:PreviewLimit])
	return &s
}
