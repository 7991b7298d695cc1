package runner_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/agenda"
	"github.com/aretw0/agenda/pkg/adapters/memory"
	"github.com/aretw0/agenda/pkg/domain"
	"github.com/aretw0/agenda/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

func newAssistant(t *testing.T, cal *memory.Calendar) *agenda.Assistant {
	t.Helper()
	a, err := agenda.New(cal, agenda.WithClock(func() time.Time { return monday }))
	require.NoError(t, err)
	return a
}

func TestRunner_Conversation(t *testing.T) {
	cal := memory.NewCalendar()
	assistant := newAssistant(t, cal)

	in := strings.NewReader("hello\n\nBook Friday at 2pm\nyes\n")
	out := &bytes.Buffer{}
	r := runner.NewRunner(
		runner.WithSessionID("cli"),
		runner.WithIntro("Agenda ready"),
		runner.WithInputHandler(runner.NewTextHandler(in, out, runner.WithPrompt(""))),
	)

	require.NoError(t, r.Run(context.Background(), assistant))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Agenda ready", lines[0])
	assert.Contains(t, lines[1], "Hi there")
	assert.Contains(t, lines[2], "Friday, Oct 23 at 02:00 PM")
	assert.Equal(t, "✅ Booked for Friday, Oct 23 at 02:00 PM", lines[3])

	assert.Len(t, cal.Events(), 1)
	state, err := assistant.Session(context.Background(), "cli")
	require.NoError(t, err)
	assert.False(t, state.AwaitingConfirmation)
}

func TestRunner_ExitCommand(t *testing.T) {
	turner := &recordingTurner{}
	in := strings.NewReader("hi\nQUIT\nbook friday\n")
	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(in, &bytes.Buffer{})))

	require.NoError(t, r.Run(context.Background(), turner))
	assert.Equal(t, []string{"hi"}, turner.messages)
	assert.Equal(t, []string{runner.DefaultSessionID}, turner.sessions)
}

func TestRunner_JSONMode(t *testing.T) {
	assistant := newAssistant(t, memory.NewCalendar())
	in := strings.NewReader(`{"message":"hello"}` + "\n" + `{"message":"Book Friday at 2pm"}` + "\n")
	out := &bytes.Buffer{}
	r := runner.NewRunner(
		runner.WithSessionID("bot"),
		runner.WithInputHandler(runner.NewJSONHandler(in, out)),
	)

	require.NoError(t, r.Run(context.Background(), assistant))
	assert.Contains(t, out.String(), `"session_id":"bot"`)
	assert.Contains(t, out.String(), `"awaiting_confirmation":true`)
}

func TestRunner_TurnErrors(t *testing.T) {
	turner := &recordingTurner{
		err: map[string]error{
			"bad":  fmt.Errorf("%w: too large", domain.ErrInvalidTurnInput),
			"down": errors.New("redis down"),
		},
	}
	in := strings.NewReader("bad\ndown\n")
	out := &bytes.Buffer{}
	r := runner.NewRunner(runner.WithInputHandler(runner.NewJSONHandler(in, out)))

	require.NoError(t, r.Run(context.Background(), turner))
	assert.Contains(t, out.String(), runner.InvalidInputReply)
	assert.Contains(t, out.String(), `"error":"redis down"`)
	assert.Contains(t, out.String(), "sorry")
}

func TestRunner_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("hi\n"), &bytes.Buffer{})))
	turner := &recordingTurner{}

	require.NoError(t, r.Run(ctx, turner))
	assert.Empty(t, turner.messages)
}

type recordingTurner struct {
	messages []string
	sessions []string
	err      map[string]error
}

func (r *recordingTurner) ProcessTurn(ctx context.Context, sessionID, message string) (string, *domain.DialogueState, error) {
	r.messages = append(r.messages, message)
	r.sessions = append(r.sessions, sessionID)
	if err := r.err[message]; err != nil {
		return "sorry", nil, err
	}
	return "echo: " + message, domain.NewDialogueState(), nil
}
