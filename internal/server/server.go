package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"lumiere-assistant-backend/internal/catalog"
	"lumiere-assistant-backend/internal/chat"
	"lumiere-assistant-backend/internal/store"
	"lumiere-assistant-backend/internal/types"
)

const chatTimeout = 60 * time.Second

type Server struct {
	router  *chi.Mux
	chat    *chat.Service
	catalog *catalog.Catalog
	logger  *zap.Logger
	metrics http.Handler
	health  func(ctx context.Context) error
	origins []string
}

type Option func(*Server)

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithHealthCheck makes /api/health report 503 when check fails.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) { s.health = check }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithAllowedOrigins sets the CORS origins. The default allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

func NewServer(svc *chat.Service, cat *catalog.Catalog, opts ...Option) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		chat:    svc,
		catalog: cat,
		logger:  zap.NewNop(),
		origins: []string{"*"},
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.Named("server")

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Session-Id"},
		ExposedHeaders:   []string{"X-Session-Id"},
		AllowCredentials: true, // Enable credentials for cookies
		MaxAge:           300,
	}))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/menu", s.handleMenu)
	s.router.Post("/chat", s.handleChat)
	s.router.Post("/api/chat", s.handleChat)
	s.router.Delete("/session/{sessionID}", s.handleDeleteSession)
	s.router.Get("/ws", s.handleWebSocket)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics)
	}
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, types.MessageResponse{Message: "Maison Lumière Assistant API", Status: "running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.Items())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		s.writeError(w, http.StatusBadRequest, "user_message is required")
		return
	}
	sid := strings.TrimSpace(req.SessionID)
	if sid == "" {
		sid = getOrCreateSessionID(r, w)
	}

	ctx, cancel := context.WithTimeout(r.Context(), chatTimeout)
	defer cancel()
	resp, code, msg := s.runTurn(ctx, sid, req)
	if code != http.StatusOK {
		s.writeError(w, code, msg)
		return
	}
	w.Header().Set("X-Session-Id", sid)
	s.writeJSON(w, http.StatusOK, resp)
}

// runTurn is shared by the HTTP and websocket transports. On failure it
// returns the status code and the message to show the client.
func (s *Server) runTurn(ctx context.Context, sid string, req types.ChatRequest) (types.ChatResponse, int, string) {
	out, err := s.chat.Chat(ctx, chat.Input{
		SessionID: sid,
		Message:   req.UserMessage,
		Email:     req.UserEmail,
		Allergens: req.UserAllergens,
	})
	switch {
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, store.ErrInvalidSessionID):
		return types.ChatResponse{}, http.StatusBadRequest, err.Error()
	case err != nil:
		s.logger.Error("chat turn failed", zap.String("session_id", sid), zap.Error(err))
		return types.ChatResponse{}, http.StatusInternalServerError, "I'm having trouble right now. Please try again."
	}
	return toResponse(out), http.StatusOK, ""
}

func toResponse(out chat.Output) types.ChatResponse {
	items := make([]types.OrderItem, 0, len(out.Order))
	for _, l := range out.Order {
		items = append(items, types.OrderItem{
			ItemID:   l.ItemID,
			Name:     l.Name,
			Quantity: l.Quantity,
			Price:    float64(l.UnitPriceCents) / 100,
		})
	}
	return types.ChatResponse{
		SessionID:        out.SessionID,
		AssistantMessage: out.Reply,
		CurrentOrder:     items,
		CurrentTotal:     float64(out.SubtotalCents) / 100,
		Intent:           string(out.Intent),
	}
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sessionID")
	_, existed, err := s.chat.Session(r.Context(), sid)
	if err == nil {
		err = s.chat.Reset(r.Context(), sid)
	}
	if err != nil {
		if errors.Is(err, store.ErrInvalidSessionID) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("failed to delete session", zap.String("session_id", sid), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	if cookie, err := GetSessionCookie(r); err == nil && cookie == sid {
		ClearSessionCookie(w, r)
	}
	msg := "Session not found"
	if existed {
		msg = "Session cleared"
	}
	s.writeJSON(w, http.StatusOK, types.MessageResponse{Message: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, types.ErrorResponse{Error: msg})
}

func newSessionID() string {
	return "s_" + uuid.NewString()
}

// getSessionID retrieves the session ID from cookie, header or query parameter
func getSessionID(r *http.Request) string {
	if cookie, err := GetSessionCookie(r); err == nil && cookie != "" {
		return cookie
	}
	if sid := r.Header.Get("X-Session-Id"); sid != "" {
		return sid
	}
	if sid := r.URL.Query().Get("sessionId"); sid != "" {
		return sid
	}
	return ""
}

// getOrCreateSessionID gets the existing session ID or creates a new one, setting the cookie
func getOrCreateSessionID(r *http.Request, w http.ResponseWriter) string {
	sid := getSessionID(r)
	if sid == "" {
		sid = newSessionID()
		SetSessionCookie(w, r, sid)
	}
	return sid
}
