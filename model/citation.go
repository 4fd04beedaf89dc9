package model

import "time"

// Citation is the canonical, deduplicated form of a source emitted to the caller.
type Citation struct {
	// Index is the 1-based running number assigned on first sight of the URL.
	Index int

	// Label is "[n] <title>" with the URL standing in for a missing title.
	Label string

	URLs     []string
	Preview  *string
	Metadata CitationMetadata
}

// CitationMetadata mirrors the optional fields of the originating source.
type CitationMetadata struct {
	SourceURL   string
	Author      *string
	PublishedAt *time.Time
}
