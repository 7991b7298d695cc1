package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/agenda/internal/logging"
	"github.com/aretw0/agenda/pkg/domain"
)

// InvalidInputReply answers a message that could not be accepted.
const InvalidInputReply = "⚠️ I couldn't read that message. Please try again."

// Turner processes one chat message for a session.
type Turner interface {
	ProcessTurn(ctx context.Context, sessionID, message string) (string, *domain.DialogueState, error)
}

// Runner drives a Turner from an IOHandler until the user leaves.
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on Stdin/Stdout.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	SessionID string
	Intro     string
}

// NewRunner creates a Runner with the given options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		SessionID: DefaultSessionID,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run reads messages and answers them until EOF, "exit"/"quit", an interrupt
// signal or the cancellation of ctx. Those all end the loop with a nil error.
func (r *Runner) Run(ctx context.Context, t Turner) error {
	signals := NewSignalManager(ctx)
	defer signals.Stop()

	if r.Intro != "" {
		if err := r.Handler.SystemOutput(ctx, r.Intro); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	for {
		loopCtx := signals.Context()

		text, err := r.Handler.Input(loopCtx)
		if err != nil {
			signals.CheckRace()
			if loopCtx.Err() != nil {
				r.Logger.Debug("Runner input: Context cancelled", "err", loopCtx.Err())
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(text)) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		reply := r.turn(loopCtx, t, text)
		if loopCtx.Err() != nil {
			return nil
		}
		if err := r.Handler.Output(loopCtx, reply); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

func (r *Runner) turn(ctx context.Context, t Turner, text string) Reply {
	response, state, err := t.ProcessTurn(ctx, r.SessionID, text)

	reply := Reply{SessionID: r.SessionID, Response: response}
	if state != nil {
		reply.AwaitingConfirmation = state.AwaitingConfirmation
	}
	if err != nil {
		reply.Error = err.Error()
		if errors.Is(err, domain.ErrInvalidTurnInput) {
			reply.Response = InvalidInputReply
			r.Logger.Debug("Rejected message", "session_id", r.SessionID, "err", err)
		} else {
			r.Logger.Error("Turn failed", "session_id", r.SessionID, "err", err)
		}
	}
	return reply
}
