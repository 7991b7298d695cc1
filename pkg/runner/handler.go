package runner

import "context"

// Reply is what a handler presents after each turn.
type Reply struct {
	SessionID            string `json:"session_id"`
	Response             string `json:"response"`
	AwaitingConfirmation bool   `json:"awaiting_confirmation"`
	Error                string `json:"error,omitempty"`
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the reply to a turn.
	Output(ctx context.Context, reply Reply) error

	// Input reads the next message. It returns ctx.Err() when ctx is done
	// before a line arrives, and io.EOF when the source is exhausted.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (banner, status) that is not a reply.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms a reply before it is written.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
