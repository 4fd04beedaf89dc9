package citation

import (
	"strings"
	"testing"
	"time"

	"searchpipe/model"
)

func ptr(s string) *string { return &s }

func TestNormalize(t *testing.T) {
	published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	sources := []model.SourceRecord{
		{Title: "France", URL: "https://en.wikipedia.org/wiki/France", Snippet: ptr("Paris is the capital."), PublishedAt: &published},
		{Title: "Duplicate", URL: "https://en.wikipedia.org/wiki/France"},
		{URL: "https://example.com/untitled"},
		{Title: "No link"},
	}

	got, seen := Normalize(sources, nil)

	if len(got) != 2 {
		t.Fatalf("len(citations) = %d, want 2", len(got))
	}
	if got[0].Label != "[1] France" {
		t.Errorf("Label = %q, want %q", got[0].Label, "[1] France")
	}
	if got[0].Preview == nil || *got[0].Preview != "Paris is the capital." {
		t.Errorf("Preview = %v", got[0].Preview)
	}
	if got[0].Metadata.PublishedAt == nil || !got[0].Metadata.PublishedAt.Equal(published) {
		t.Errorf("PublishedAt not carried over")
	}
	if got[0].Metadata.Author != nil {
		t.Errorf("Author = %v, want nil", *got[0].Metadata.Author)
	}
	if got[1].Label != "[2] https://example.com/untitled" {
		t.Errorf("fallback Label = %q", got[1].Label)
	}
	if got[1].Preview != nil {
		t.Errorf("Preview = %q, want nil", *got[1].Preview)
	}
	if len(seen) != 2 {
		t.Errorf("len(seen) = %d, want 2", len(seen))
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	sources := []model.SourceRecord{
		{Title: "A", URL: "https://a.example"},
		{Title: "B", URL: "https://b.example"},
	}

	first, seen := Normalize(sources, nil)
	if len(first) != 2 {
		t.Fatalf("first pass = %d citations, want 2", len(first))
	}

	again, seen2 := Normalize(sources, seen)
	if len(again) != 0 {
		t.Errorf("second pass = %d citations, want 0", len(again))
	}
	if len(seen2) != len(seen) {
		t.Errorf("seen grew from %d to %d", len(seen), len(seen2))
	}
}

func TestNormalizeContinuesNumbering(t *testing.T) {
	_, seen := Normalize([]model.SourceRecord{{Title: "A", URL: "https://a.example"}}, nil)
	before := len(seen)

	got, _ := Normalize([]model.SourceRecord{
		{Title: "A again", URL: "https://a.example"},
		{Title: "C", URL: "https://c.example"},
	}, seen)

	if len(got) != 1 || got[0].Index != 2 || got[0].Label != "[2] C" {
		t.Fatalf("got %+v, want single citation [2] C", got)
	}
	if len(seen) != before {
		t.Errorf("input set was modified")
	}
}

func TestPreviewTruncation(t *testing.T) {
	long := strings.Repeat("é", PreviewLimit+20)
	got, _ := Normalize([]model.SourceRecord{{Title: "T", URL: "https://t.example", Snippet: &long}}, nil)

	if n := len([]rune(*got[0].Preview)); n != PreviewLimit {
		t.Errorf("preview length = %d runes, want %d", n, PreviewLimit)
	}
}
