package provider

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"searchpipe/errs"
)

// mapError translates SDK errors into the errs taxonomy.
func mapError(ctx context.Context, provider string, err error) error {
	if err == nil {
		return nil
	}

	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		return errs.UpstreamStatus(provider, oaiErr.StatusCode, oaiErr.RawJSON())
	}

	var antErr *anthropic.Error
	if errors.As(err, &antErr) {
		return errs.UpstreamStatus(provider, antErr.StatusCode, antErr.RawJSON())
	}

	var ollamaErr api.StatusError
	if errors.As(err, &ollamaErr) {
		body := ollamaErr.ErrorMessage
		if body == "" {
			body = ollamaErr.Status
		}
		return errs.UpstreamStatus(provider, ollamaErr.StatusCode, body)
	}

	return errs.FromTransport(ctx, provider, err)
}
