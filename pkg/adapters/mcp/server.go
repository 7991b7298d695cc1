package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/agenda/internal/logging"
	"github.com/aretw0/agenda/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// DefaultSessionID is used by send_message when no session is given.
const DefaultSessionID = "default"

const sessionsURI = "agenda://sessions"

// ChatResponse is the structured result of send_message.
type ChatResponse struct {
	Response             string `json:"response" jsonschema_description:"The assistant reply"`
	SessionID            string `json:"session_id" jsonschema_description:"The conversation the reply belongs to"`
	AwaitingConfirmation bool   `json:"awaiting_confirmation" jsonschema_description:"True when the reply asks a yes/no question"`
}

// Assistant is the conversational core exposed over MCP.
type Assistant interface {
	ProcessTurn(ctx context.Context, sessionID, message string) (string, *domain.DialogueState, error)
	Session(ctx context.Context, sessionID string) (*domain.DialogueState, error)
	Reset(ctx context.Context, sessionID string) error
	Sessions(ctx context.Context) ([]string, error)
}

// Server exposes an Assistant as an MCP Server.
type Server struct {
	assistant Assistant
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(assistant Assistant, version string, opts ...Option) *Server {
	s := &Server{
		assistant: assistant,
		mcpServer: server.NewMCPServer("agenda-mcp", strings.TrimSpace(version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, mainly for tests.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

type sendMessageArgs struct {
	SessionID string `mapstructure:"session_id"`
	Message   string `mapstructure:"message"`
}

type sessionArgs struct {
	SessionID string `mapstructure:"session_id"`
}

func (s *Server) registerTools() {
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send one chat message to the scheduling assistant, e.g. 'Book Friday at 2pm' or 'yes'."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user's message")),
		mcp.WithString("session_id", mcp.Description("Conversation id (default: 'default')")),
		mcp.WithOutputSchema[ChatResponse](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the stored dialogue state of a conversation as JSON."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation id")),
	), s.handleGetSession)

	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Forget a conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation id")),
	), s.handleResetSession)
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ChatResponse, error) {
	var in sendMessageArgs
	if err := mapstructure.Decode(args, &in); err != nil {
		return ChatResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(in.SessionID) == "" {
		in.SessionID = DefaultSessionID
	}

	reply, state, err := s.assistant.ProcessTurn(ctx, in.SessionID, in.Message)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTurnInput) {
			s.logger.Warn("MCP send_message: Input rejected", "err", err, "size", len(in.Message))
			return ChatResponse{}, fmt.Errorf("input rejected: %w", err)
		}
		s.logger.Error("MCP send_message failed", "session_id", in.SessionID, "err", err)
		return ChatResponse{}, fmt.Errorf("%s: %w", reply, err)
	}

	return ChatResponse{
		Response:             reply,
		SessionID:            in.SessionID,
		AwaitingConfirmation: state.AwaitingConfirmation,
	}, nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in sessionArgs
	if err := mapstructure.Decode(request.GetArguments(), &in); err != nil || in.SessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	state, err := s.assistant.Session(ctx, in.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("session %q not found", in.SessionID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to load session: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(state)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleResetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in sessionArgs
	if err := mapstructure.Decode(request.GetArguments(), &in); err != nil || in.SessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	if err := s.assistant.Reset(ctx, in.SessionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to reset session: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("session %q reset", in.SessionID)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(sessionsURI, "Stored conversations",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.assistant.Sessions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      sessionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
