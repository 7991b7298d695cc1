package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/agenda"
	"github.com/aretw0/agenda/pkg/adapters/memory"
	"github.com/aretw0/agenda/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *memory.Calendar) {
	t.Helper()
	monday := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)
	cal := memory.NewCalendar()
	a, err := agenda.New(cal, agenda.WithClock(func() time.Time { return monday }))
	require.NoError(t, err)
	return NewServer(a, "test"), cal
}

func callArgs(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

// greet opens a conversation; the first turn of a session is always the introduction.
func greet(t *testing.T, s *Server, sessionID string) {
	t.Helper()
	resp, err := s.handleSendMessage(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"session_id": sessionID,
		"message":    "hello",
	})
	require.NoError(t, err)
	require.False(t, resp.AwaitingConfirmation)
}

func TestSendMessage_Booking(t *testing.T) {
	s, cal := newTestServer(t)
	ctx := context.Background()
	greet(t, s, "agent-1")

	resp, err := s.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]any{
		"session_id": "agent-1",
		"message":    "Book Friday at 2pm",
	})
	require.NoError(t, err)
	assert.Equal(t, "agent-1", resp.SessionID)
	assert.True(t, resp.AwaitingConfirmation)

	resp, err = s.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]any{
		"session_id": "agent-1",
		"message":    "yes",
	})
	require.NoError(t, err)
	assert.Equal(t, "✅ Booked for Friday, Oct 23 at 02:00 PM", resp.Response)
	assert.Len(t, cal.Events(), 1)
}

func TestSendMessage_DefaultsAndErrors(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionID, resp.SessionID)

	_, err = s.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]any{"message": ""})
	assert.ErrorIs(t, err, domain.ErrInvalidTurnInput)

	_, err = s.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]any{"message": 42})
	assert.Error(t, err, "non-string message is rejected by the decoder")
}

func TestGetAndResetSession(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleGetSession(ctx, callArgs(map[string]any{"session_id": "nobody"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	greet(t, s, "s1")
	_, err = s.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": "s1", "message": "Book Friday"})
	require.NoError(t, err)

	res, err = s.handleGetSession(ctx, callArgs(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var state domain.DialogueState
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &state))
	assert.Equal(t, domain.IntentBooking, state.Intent)
	require.NotNil(t, state.PendingDate)
	assert.Equal(t, "2026-10-23", state.PendingDate.String())

	res, err = s.handleResetSession(ctx, callArgs(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = s.handleGetSession(ctx, callArgs(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleGetSession(ctx, callArgs(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestToolsList(t *testing.T) {
	s, _ := newTestServer(t)

	msg := s.MCPServer().HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	out, err := json.Marshal(msg)
	require.NoError(t, err)

	for _, name := range []string{"send_message", "get_session", "reset_session"} {
		assert.Contains(t, string(out), `"`+name+`"`)
	}
}
