// Package upstream talks to the search providers over JSON and server-sent events.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"searchpipe/config"
	"searchpipe/errs"
)

// maxBodySize caps how much of a response body is read into memory.
const maxBodySize = 8 << 20

// Client issues JSON requests against one provider. The per-invocation
// deadline travels in the request context; the underlying http.Client has no
// timeout of its own.
type Client struct {
	provider string
	baseURL  string
	headers  map[string]string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithHeader sets a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithBearer sets bearer authorization.
func WithBearer(token string) Option {
	return WithHeader("Authorization", "Bearer "+token)
}

// NewClient builds a client for provider rooted at baseURL.
func NewClient(provider, baseURL string, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		headers:  map[string]string{},
		http:     &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the provider name used in errors.
func (c *Client) Provider() string {
	return c.provider
}

// PostJSON sends payload to path and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, payload any, out any) error {
	resp, err := c.do(ctx, path, payload, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return errs.FromTransport(ctx, c.provider, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errs.UpstreamMalformed(c.provider, err)
	}
	return nil
}

// StreamHandler receives the decoded parts of a streaming response.
type StreamHandler struct {
	// OnFrame is called once per SSE data frame, [DONE] excluded.
	OnFrame func(data []byte) error

	// OnBody is called instead when the provider ignored the stream flag and
	// answered with a plain JSON document.
	OnBody func(body []byte) error
}

// Stream posts payload to path and feeds the event stream to h.
func (c *Client) Stream(ctx context.Context, path string, payload any, h StreamHandler) error {
	resp, err := c.do(ctx, path, payload, "text/event-stream")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	ctype := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(ctype, "text/event-stream") {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return errs.FromTransport(ctx, c.provider, err)
		}
		if config.DebugLog != nil {
			config.DebugLog.Printf("[%s] non-streaming response (%s), %d bytes", c.provider, ctype, len(body))
		}
		if h.OnBody == nil {
			return errs.UpstreamMalformed(c.provider, fmt.Errorf("unexpected content type %q", ctype))
		}
		return h.OnBody(body)
	}

	err = ReadSSE(resp.Body, func(_ string, data []byte) error {
		return h.OnFrame(data)
	})
	if err != nil {
		return errs.FromTransport(ctx, c.provider, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, payload any, accept string) (*http.Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", c.provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", c.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[%s] POST %s (%d bytes)", c.provider, path, len(raw))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.FromTransport(ctx, c.provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		resp.Body.Close()
		if config.DebugLog != nil {
			config.DebugLog.Printf("[%s] status %d", c.provider, resp.StatusCode)
		}
		return nil, errs.UpstreamStatus(c.provider, resp.StatusCode, string(body))
	}

	return resp, nil
}
