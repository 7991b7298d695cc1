package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/agenda/internal/logging"
	"github.com/aretw0/agenda/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// DefaultSessionID is used by POST /chat when the caller sends none.
const DefaultSessionID = "default"

// Assistant is the conversational core served over HTTP.
type Assistant interface {
	ProcessTurn(ctx context.Context, sessionID, message string) (string, *domain.DialogueState, error)
	Session(ctx context.Context, sessionID string) (*domain.DialogueState, error)
	Reset(ctx context.Context, sessionID string) error
}

// Server holds the handlers of the chat API.
type Server struct {
	Assistant Assistant
	Streams   *StreamManager

	limiter     *limiterStore
	metrics     http.Handler
	corsOrigins []string
	version     string
	apiVersion  string
	logger      *slog.Logger
}

// Option defines a functional option for configuring the Server.
type Option func(*Server)

// WithRateLimit allows perMinute messages per client address with the given burst.
// A non-positive perMinute disables limiting.
func WithRateLimit(perMinute, burst int) Option {
	return func(s *Server) {
		s.limiter = newLimiterStore(perMinute, burst)
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithCORSOrigins sets the allowed origins ("*" allows any).
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithVersion is reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for assistant. It fails if the
// embedded OpenAPI document does not validate.
func NewHandler(assistant Assistant, opts ...Option) (http.Handler, error) {
	s := &Server{
		Assistant:   assistant,
		corsOrigins: []string{"*"},
		version:     "dev",
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)

	doc, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	if doc.Info != nil {
		s.apiVersion = doc.Info.Version
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Post("/chat", s.Chat)
	r.Post("/sessions", s.CreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.GetSession)
		r.Delete("/", s.DeleteSession)
		r.Get("/events", s.SubscribeEvents)
	})

	return r, nil
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	for _, allowed := range s.corsOrigins {
		if allowed == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Agenda API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Response             string `json:"response"`
	SessionID            string `json:"session_id"`
	AwaitingConfirmation bool   `json:"awaiting_confirmation"`
	Error                string `json:"error,omitempty"`
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		s.logger.Warn("Chat: Invalid request body", "err", err)
		return
	}

	client := clientKey(r)
	if !s.limiter.allow(client) {
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Try again later.")
		s.logger.Warn("Rate limit exceeded", "client", client, "session_id", req.SessionID)
		return
	}

	before, _ := s.Assistant.Session(r.Context(), req.SessionID)

	reply, state, err := s.Assistant.ProcessTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTurnInput) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid input: %v", err))
			s.logger.Warn("Chat: Input rejected", "session_id", req.SessionID, "err", err, "size", len(req.Message))
			return
		}
		s.logger.Error("Chat failed", "session_id", req.SessionID, "err", err)
		resp := chatResponse{Response: reply, SessionID: req.SessionID, Error: "session storage failure"}
		if state != nil {
			resp.AwaitingConfirmation = state.AwaitingConfirmation
		}
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	if diff := domain.Diff(before, state); diff != nil {
		if payload, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(req.SessionID, string(payload))
		}
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:             reply,
		SessionID:            req.SessionID,
		AwaitingConfirmation: state.AwaitingConfirmation,
	})
}

// decodeChatRequest reads query parameters, then lets a JSON body override them.
func decodeChatRequest(r *http.Request) (chatRequest, error) {
	q := r.URL.Query()
	req := chatRequest{
		SessionID: q.Get("session_id"),
		Message:   q.Get("message"),
	}

	if r.Body != nil && r.ContentLength != 0 {
		var body chatRequest
		err := json.NewDecoder(r.Body).Decode(&body)
		switch {
		case errors.Is(err, io.EOF):
		case err != nil:
			return req, fmt.Errorf("invalid request body: %w", err)
		default:
			if body.SessionID != "" {
				req.SessionID = body.SessionID
			}
			if body.Message != "" {
				req.Message = body.Message
			}
		}
	}

	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = DefaultSessionID
	}
	return req, nil
}

// CreateSession handles POST /sessions by allocating a fresh id.
// Nothing is stored until the first message arrives.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": uuid.NewString()})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := s.Assistant.Session(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load session")
		s.logger.Error("GetSession failed", "session_id", id, "err", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Assistant.Reset(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		s.logger.Error("DeleteSession failed", "session_id", id, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "agenda-http",
		"version":     strings.TrimSpace(s.version),
		"api_version": s.apiVersion,
	})
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "id")
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: state\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
