// Package api provides the HTTP surface of the event assistant.
//
// It exposes the chat endpoint consumed by web clients, an organizer-facing
// participant listing, a health check, and the inbound Twilio webhook. When an
// API key is configured, the chat and participant endpoints require it.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BioSummitBR/eventbot/internal/engine"
	"github.com/BioSummitBR/eventbot/internal/models"
	"github.com/BioSummitBR/eventbot/internal/store"
)

// genericFailureMessage is what callers see when the model or the database
// fails. Detail stays in the logs.
const genericFailureMessage = "Não foi possível processar sua mensagem agora. Tente novamente mais tarde."

// Opts holds configuration options for the API server.
type Opts struct {
	Addr   string
	APIKey string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithAPIKey enables API key authentication for the chat and participant
// endpoints.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// Server hosts the HTTP endpoints over the engine and the participant store.
type Server struct {
	engine     *engine.Engine
	st         store.Store
	apiKey     string
	addr       string
	webhook    http.HandlerFunc
	httpServer *http.Server
}

// NewServer creates the API server. The Twilio webhook is mounted only when
// registered via RegisterTwilioWebhook before Run.
func NewServer(eng *engine.Engine, st store.Store, opts ...Option) *Server {
	cfg := Opts{Addr: ":8080"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{engine: eng, st: st, apiKey: cfg.APIKey, addr: cfg.Addr}
}

// RegisterTwilioWebhook mounts handler at POST /webhook/twilio.
func (s *Server) RegisterTwilioWebhook(handler http.HandlerFunc) {
	s.webhook = handler
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.requireAPIKey(s.chatHandler))
	mux.HandleFunc("/participants", s.requireAPIKey(s.listParticipantsHandler))
	mux.HandleFunc("/health", s.healthHandler)
	if s.webhook != nil {
		mux.HandleFunc("/webhook/twilio", s.webhook)
	}
	return mux
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", s.addr, "authEnabled", s.apiKey != "")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// requireAPIKey enforces the configured key via Authorization: Bearer or
// X-API-Key. With no key configured the endpoint is open.
func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			next(w, r)
			return
		}
		provided := r.Header.Get("X-API-Key")
		if provided == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				provided = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if provided != s.apiKey {
			slog.Warn("Rejected request with missing or wrong API key", "path", r.URL.Path)
			writeJSONResponse(w, http.StatusUnauthorized, models.Error("Invalid or missing API key"))
			return
		}
		next(w, r)
	}
}

// chatHandler handles POST /chat.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	requestID := uuid.NewString()

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("chatHandler invalid JSON", "error", err, "requestID", requestID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("chatHandler validation failed", "error", err, "requestID", requestID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}
	contextTypes, err := models.ParseContextTypes(req.ContextType)
	if err != nil {
		slog.Warn("chatHandler invalid context type", "error", err, "requestID", requestID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	result, err := s.engine.HandleMessage(r.Context(), req.UserID, req.Message, contextTypes)
	if err != nil {
		slog.Error("chatHandler engine failure", "error", err, "userID", req.UserID, "requestID", requestID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error(genericFailureMessage))
		return
	}

	slog.Debug("chatHandler replied", "userID", req.UserID, "turns", result.Turns, "requestID", requestID)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// listParticipantsHandler handles GET /participants.
func (s *Server) listParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	participants, err := s.st.ListParticipants()
	if err != nil {
		slog.Error("listParticipantsHandler store failure", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list participants"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(participants))
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"status": "ok"}))
}
