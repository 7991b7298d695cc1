package runner

import (
	"log/slog"
)

// DefaultInputBufferSize is the default number of lines to buffer for input handlers.
const DefaultInputBufferSize = 64

// DefaultSessionID is used when no session is configured.
const DefaultSessionID = "default"

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithSessionID sets the conversation the loop talks to.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithIntro prints msg through SystemOutput before the first prompt.
func WithIntro(msg string) Option {
	return func(r *Runner) {
		r.Intro = msg
	}
}
