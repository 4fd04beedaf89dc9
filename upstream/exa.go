package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"searchpipe/errs"
	"searchpipe/model"
)

const exaProvider = "Exa"

// Exa is a client for the Exa /answer and /context endpoints.
type Exa struct {
	client *Client
}

// NewExa returns an Exa client authenticated with apiKey.
func NewExa(apiKey, baseURL string, opts ...Option) *Exa {
	opts = append([]Option{WithHeader("x-api-key", apiKey)}, opts...)
	return &Exa{client: NewClient(exaProvider, baseURL, opts...)}
}

type exaAnswerRequest struct {
	Query  string `json:"query"`
	Text   bool   `json:"text"`
	Stream bool   `json:"stream,omitempty"`
}

type exaCitation struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedDate string `json:"publishedDate"`
	Text          string `json:"text"`
}

type exaAnswerResponse struct {
	Answer    json.RawMessage `json:"answer"`
	Citations []exaCitation   `json:"citations"`
}

type exaContextRequest struct {
	Query     string `json:"query"`
	TokensNum int    `json:"tokensNum"`
}

type exaContextResponse struct {
	Response     string `json:"response"`
	ResultsCount int    `json:"resultsCount"`
}

type exaStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Citations []exaCitation `json:"citations"`
}

// Answer runs a web search through /answer and returns the generated
// answer with its citations. text asks Exa to include full page text.
func (e *Exa) Answer(ctx context.Context, query string, text bool) (model.RetrievalResult, error) {
	var resp exaAnswerResponse
	if err := e.client.PostJSON(ctx, "/answer", exaAnswerRequest{Query: query, Text: text}, &resp); err != nil {
		return model.RetrievalResult{}, err
	}

	answer := answerText(resp.Answer)
	if answer == "" {
		answer = "No answer provided."
	}
	return model.RetrievalResult{
		AnswerText: &answer,
		Sources:    exaSources(resp.Citations),
	}, nil
}

// Context runs a code search through /context. The endpoint returns a
// pre-assembled context block and no individual sources.
func (e *Exa) Context(ctx context.Context, query string, tokensNum int) (model.RetrievalResult, error) {
	var resp exaContextResponse
	if err := e.client.PostJSON(ctx, "/context", exaContextRequest{Query: query, TokensNum: tokensNum}, &resp); err != nil {
		return model.RetrievalResult{}, err
	}

	body := resp.Response
	if body == "" {
		body = "No context provided."
	}
	text := fmt.Sprintf("%s\n\nFound %d relevant results.", body, resp.ResultsCount)
	return model.RetrievalResult{AnswerText: &text}, nil
}

// AnswerStream runs /answer in streaming mode. Citations arrive in-band and
// are passed to onSources before any text that follows them.
func (e *Exa) AnswerStream(ctx context.Context, query string, text bool, onText func(string) error, onSources func([]model.SourceRecord) error) error {
	return e.client.Stream(ctx, "/answer", exaAnswerRequest{Query: query, Text: text, Stream: true}, StreamHandler{
		OnFrame: func(data []byte) error {
			var chunk exaStreamChunk
			if err := json.Unmarshal(data, &chunk); err != nil {
				return errs.UpstreamMalformed(exaProvider, err)
			}
			if len(chunk.Citations) > 0 {
				if err := onSources(exaSources(chunk.Citations)); err != nil {
					return err
				}
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if err := onText(choice.Delta.Content); err != nil {
					return err
				}
			}
			return nil
		},
		OnBody: func(body []byte) error {
			var resp exaAnswerResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return errs.UpstreamMalformed(exaProvider, err)
			}
			if len(resp.Citations) > 0 {
				if err := onSources(exaSources(resp.Citations)); err != nil {
					return err
				}
			}
			if answer := answerText(resp.Answer); answer != "" {
				return onText(answer)
			}
			return nil
		},
	})
}

// answerText accepts both a plain string answer and the structured object
// returned when an output schema is set.
func answerText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func exaSources(citations []exaCitation) []model.SourceRecord {
	sources := make([]model.SourceRecord, 0, len(citations))
	for _, c := range citations {
		sources = append(sources, model.SourceRecord{
			Title:       c.Title,
			URL:         c.URL,
			Snippet:     model.StringPtr(c.Text),
			Author:      model.StringPtr(c.Author),
			PublishedAt: parseDate(c.PublishedDate),
		})
	}
	return sources
}

// parseDate accepts RFC 3339 timestamps and bare dates. Anything else is
// treated as absent.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
