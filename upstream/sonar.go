package upstream

import (
	"context"
	"encoding/json"

	"searchpipe/errs"
	"searchpipe/model"
)

const sonarProvider = "Perplexity"

// Sonar streams answers from an OpenAI-compatible search-augmented
// completion endpoint. Retrieval and citation assembly happen upstream.
type Sonar struct {
	client      *Client
	model       string
	recency     string
	contextSize string
}

// SonarOptions holds the request knobs exposed as valves.
type SonarOptions struct {
	Model       string
	Recency     string
	ContextSize string
}

// NewSonar returns a client authenticated with a bearer token.
func NewSonar(apiKey, baseURL string, opts SonarOptions, clientOpts ...Option) *Sonar {
	clientOpts = append([]Option{WithBearer(apiKey)}, clientOpts...)
	return &Sonar{
		client:      NewClient(sonarProvider, baseURL, clientOpts...),
		model:       opts.Model,
		recency:     opts.Recency,
		contextSize: opts.ContextSize,
	}
}

type sonarMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type sonarWebSearchOptions struct {
	SearchContextSize string `json:"search_context_size,omitempty"`
}

type sonarRequest struct {
	Model               string                 `json:"model"`
	Messages            []sonarMessage         `json:"messages"`
	Stream              bool                   `json:"stream"`
	SearchRecencyFilter string                 `json:"search_recency_filter,omitempty"`
	WebSearchOptions    *sonarWebSearchOptions `json:"web_search_options,omitempty"`
}

type sonarURLCitation struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

type sonarAnnotation struct {
	Type        string            `json:"type"`
	URLCitation *sonarURLCitation `json:"url_citation,omitempty"`
}

type sonarContent struct {
	Content     string            `json:"content"`
	Annotations []sonarAnnotation `json:"annotations,omitempty"`
}

type sonarSearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Date        string `json:"date"`
	LastUpdated string `json:"last_updated"`
	Snippet     string `json:"snippet"`
}

type sonarChunk struct {
	Choices []struct {
		Delta   sonarContent `json:"delta"`
		Message sonarContent `json:"message"`
	} `json:"choices"`
	Citations     []json.RawMessage   `json:"citations"`
	SearchResults []sonarSearchResult `json:"search_results"`
}

// Stream sends messages and forwards text deltas and sources as they arrive.
// Sources found in a frame are delivered before that frame's text.
func (s *Sonar) Stream(ctx context.Context, messages []model.Message, onText func(string) error, onSources func([]model.SourceRecord) error) error {
	req := sonarRequest{
		Model:               s.model,
		Stream:              true,
		SearchRecencyFilter: s.recency,
	}
	if s.contextSize != "" {
		req.WebSearchOptions = &sonarWebSearchOptions{SearchContextSize: s.contextSize}
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, sonarMessage{Role: string(msg.Role), Content: msg.Content})
	}

	handle := func(data []byte, useMessage bool) error {
		var chunk sonarChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return errs.UpstreamMalformed(sonarProvider, err)
		}

		sources := chunk.sources()
		var text string
		for _, choice := range chunk.Choices {
			part := choice.Delta
			if useMessage {
				part = choice.Message
			}
			sources = append(sources, annotationSources(part.Annotations)...)
			text += part.Content
		}

		if len(sources) > 0 {
			if err := onSources(sources); err != nil {
				return err
			}
		}
		if text != "" {
			return onText(text)
		}
		return nil
	}

	return s.client.Stream(ctx, "/chat/completions", req, StreamHandler{
		OnFrame: func(data []byte) error { return handle(data, false) },
		OnBody:  func(body []byte) error { return handle(body, true) },
	})
}

// sources merges search_results (rich) with bare citations. Rich entries
// come first so their titles win deduplication.
func (c sonarChunk) sources() []model.SourceRecord {
	var out []model.SourceRecord
	for _, r := range c.SearchResults {
		date := r.Date
		if date == "" {
			date = r.LastUpdated
		}
		out = append(out, model.SourceRecord{
			Title:       r.Title,
			URL:         r.URL,
			Snippet:     model.StringPtr(r.Snippet),
			PublishedAt: parseDate(date),
		})
	}

	for _, raw := range c.Citations {
		var url string
		if err := json.Unmarshal(raw, &url); err == nil {
			out = append(out, model.SourceRecord{URL: url})
			continue
		}
		var obj sonarURLCitation
		if err := json.Unmarshal(raw, &obj); err == nil && obj.URL != "" {
			out = append(out, model.SourceRecord{Title: obj.Title, URL: obj.URL, Snippet: model.StringPtr(obj.Content)})
		}
	}
	return out
}

func annotationSources(annotations []sonarAnnotation) []model.SourceRecord {
	var out []model.SourceRecord
	for _, a := range annotations {
		if a.Type != "url_citation" || a.URLCitation == nil {
			continue
		}
		out = append(out, model.SourceRecord{
			Title:   a.URLCitation.Title,
			URL:     a.URLCitation.URL,
			Snippet: model.StringPtr(a.URLCitation.Content),
		})
	}
	return out
}
