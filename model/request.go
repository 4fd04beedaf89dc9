package model

// InvocationRequest is one incoming chat turn as handed over by the host.
// It is treated as immutable for the duration of the invocation.
type InvocationRequest struct {
	// History is the full conversation, oldest first.
	History []Message `json:"messages"`

	// Variant selects the pipe ("exa-agent", "sonar-direct", ...). Hosts may
	// prefix it with their function id ("searchpipe.exa-agent").
	Variant string `json:"model"`

	// Settings is the flat valve mapping supplied by the host. Keys the
	// engine does not recognise are ignored.
	Settings map[string]any `json:"valves,omitempty"`
}

// Status is the terminal outcome of an invocation.
type Status string

const (
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)
