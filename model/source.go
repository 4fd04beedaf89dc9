package model

import "time"

// SourceRecord is one grounding document as reported by a provider.
// Providers vary in which fields they populate; unset optional fields are
// nil and must stay nil all the way to the caller.
type SourceRecord struct {
	Title       string
	URL         string
	Snippet     *string
	PublishedAt *time.Time
	Author      *string
}

// RetrievalResult is what a provider call hands back to the engine.
type RetrievalResult struct {
	// AnswerText is nil for pure-search tools.
	AnswerText *string
	Sources    []SourceRecord
}

// HasAnswer reports whether the result carries answer text.
func (r RetrievalResult) HasAnswer() bool {
	return r.AnswerText != nil
}

// StringPtr returns a pointer to s, or nil when s is empty.
// Providers use it to keep absent fields absent.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
