// Package errs defines the error taxonomy shared by every pipe.
//
// Four kinds exist:
//   - Configuration: a required valve is missing or invalid. Raised before any network call.
//   - Upstream: a provider answered with a non-2xx status or an unreadable payload.
//   - Timeout: the invocation deadline expired while a provider call was in flight.
//   - ToolResolution: the agent asked for an unknown tool or passed bad arguments.
//
// Upstream, Timeout and ToolResolution errors raised by a single tool call are
// recoverable inside the agent loop (see Recoverable). Everything else is terminal.
package errs

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for propagation decisions.
type Kind int

const (
	KindConfiguration Kind = iota
	KindUpstream
	KindTimeout
	KindToolResolution
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindUpstream:
		return "upstream"
	case KindTimeout:
		return "timeout"
	case KindToolResolution:
		return "tool_resolution"
	default:
		return "unknown"
	}
}

// Error codes for programmatic handling.
const (
	CodeMissingSetting = "MISSING_SETTING"
	CodeInvalidSetting = "INVALID_SETTING"
	CodeUnknownPipe    = "UNKNOWN_PIPE"

	CodeUpstreamStatus    = "UPSTREAM_STATUS"
	CodeUpstreamTransport = "UPSTREAM_TRANSPORT"
	CodeUpstreamMalformed = "UPSTREAM_MALFORMED"

	CodeTimeout = "TIMEOUT"

	CodeToolNotFound      = "TOOL_NOT_FOUND"
	CodeToolInvalidParams = "TOOL_INVALID_PARAMS"
)

// Error is the engine's error type.
type Error struct {
	Kind    Kind
	Code    string
	Message string

	// Provider names the upstream service involved, if any ("exa", "openrouter", ...).
	Provider string

	// StatusCode and Body carry the provider response for non-2xx answers.
	StatusCode int
	Body       string

	// Setting names the offending valve for configuration errors.
	Setting string

	Inner error
}

// Error returns the error message.
func (e *Error) Error() string {
	var sb strings.Builder

	if e.Code != "" {
		sb.WriteString("[")
		sb.WriteString(e.Code)
		sb.WriteString("] ")
	}
	sb.WriteString(e.Message)

	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, " (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Body)
	}

	if e.Inner != nil {
		innerMsg := e.Inner.Error()
		if innerMsg != "" && innerMsg != e.Message {
			sb.WriteString(": ")
			sb.WriteString(innerMsg)
		}
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Inner
}

// MissingSetting reports a required valve that is absent or blank.
func MissingSetting(key string) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Code:    CodeMissingSetting,
		Message: fmt.Sprintf("%s not provided in the valves.", key),
		Setting: key,
	}
}

// InvalidSetting reports a valve whose value cannot be used.
func InvalidSetting(key string, reason string) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Code:    CodeInvalidSetting,
		Message: fmt.Sprintf("invalid value for %s: %s", key, reason),
		Setting: key,
	}
}

// UnknownPipe reports a variant identifier no pipe answers to.
func UnknownPipe(id string) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Code:    CodeUnknownPipe,
		Message: fmt.Sprintf("unknown pipe %q", id),
	}
}

// UpstreamStatus reports a non-2xx provider response.
func UpstreamStatus(provider string, status int, body string) *Error {
	return &Error{
		Kind:       KindUpstream,
		Code:       CodeUpstreamStatus,
		Message:    fmt.Sprintf("%s API error", provider),
		Provider:   provider,
		StatusCode: status,
		Body:       strings.TrimSpace(body),
	}
}

// UpstreamMalformed reports a response that could not be decoded.
func UpstreamMalformed(provider string, err error) *Error {
	return &Error{
		Kind:     KindUpstream,
		Code:     CodeUpstreamMalformed,
		Message:  fmt.Sprintf("%s returned a malformed payload", provider),
		Provider: provider,
		Inner:    err,
	}
}

// UpstreamTransport reports a request that never produced a response.
func UpstreamTransport(provider string, err error) *Error {
	return &Error{
		Kind:     KindUpstream,
		Code:     CodeUpstreamTransport,
		Message:  fmt.Sprintf("%s request failed", provider),
		Provider: provider,
		Inner:    err,
	}
}

// Timeout reports a provider call cut short by the invocation deadline.
func Timeout(provider string, err error) *Error {
	return &Error{
		Kind:     KindTimeout,
		Code:     CodeTimeout,
		Message:  fmt.Sprintf("%s request timed out", provider),
		Provider: provider,
		Inner:    err,
	}
}

// ToolNotFound reports a tool name missing from the registry.
func ToolNotFound(name string) *Error {
	return &Error{
		Kind:    KindToolResolution,
		Code:    CodeToolNotFound,
		Message: fmt.Sprintf("unknown tool: %s", name),
	}
}

// ToolInvalidParams reports arguments that fail the tool schema.
func ToolInvalidParams(name string, err error) *Error {
	return &Error{
		Kind:    KindToolResolution,
		Code:    CodeToolInvalidParams,
		Message: fmt.Sprintf("tool %s validation failed", name),
		Inner:   err,
	}
}

// FromTransport classifies an error returned while talking to a provider.
// Context deadline expiry becomes a Timeout; errors that already carry a
// Kind pass through untouched; anything else is an Upstream transport error.
func FromTransport(ctx context.Context, provider string, err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Timeout(provider, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return UpstreamTransport(provider, err)
}

// KindOf extracts the kind from an error. The second result is false for
// errors outside the taxonomy.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err belongs to kind k.
func Is(err error, k Kind) bool {
	kind, ok := KindOf(err)
	return ok && kind == k
}

// Recoverable reports whether a tool-step error may be fed back into the
// agent loop instead of failing the invocation.
func Recoverable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	switch kind {
	case KindUpstream, KindTimeout, KindToolResolution:
		return true
	default:
		return false
	}
}

// UserMessage renders an error as the text of a terminal chunk.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindConfiguration:
			return e.Message
		case KindUpstream:
			if e.StatusCode != 0 {
				return fmt.Sprintf("Error: %s: %d - %s", e.Message, e.StatusCode, e.Body)
			}
		}
	}

	return "Error: " + err.Error()
}
