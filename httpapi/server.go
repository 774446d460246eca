package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	orchestratorx "github.com/phurits/ordermind/agent/agents/orchestrator"
	storex "github.com/phurits/ordermind/agent/store"
)

// Agent handles one conversational turn for a session.
type Agent interface {
	HandleMessage(ctx context.Context, sessionID string, text string) (string, error)
}

type Server struct {
	agent   Agent
	orders  storex.OrderStore
	metrics http.Handler

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

func New(agent Agent, orders storex.OrderStore, metricsHandler http.Handler) *Server {
	return &Server{
		agent:    agent,
		orders:   orders,
		metrics:  metricsHandler,
		sessions: make(map[string]*sync.Mutex),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Get("/metrics", s.metrics.ServeHTTP)
	}

	r.Post("/api/agent/chat", s.handleChat)
	r.Get("/dev/orders", s.handleListOrders)

	return r
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "sessionId is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_message", "message is required")
		return
	}

	// Turns within a session are serialized so the conversation window
	// stays coherent under concurrent clients.
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	reply, err := s.agent.HandleMessage(r.Context(), sessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, orchestratorx.ErrInvalidSession):
			respondError(w, http.StatusBadRequest, "invalid_session_id", err.Error())
		case errors.Is(err, orchestratorx.ErrInvalidMessage):
			respondError(w, http.StatusBadRequest, "invalid_message", err.Error())
		default:
			log.Error().Err(err).Str("session_id", sessionID).Msg("chat turn failed")
			respondError(w, http.StatusBadGateway, "agent_unavailable", "agent failed to produce a reply")
		}
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	if s.orders == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "order store not configured")
		return
	}
	orders, err := s.orders.All(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list orders failed")
		respondError(w, http.StatusInternalServerError, "store_error", "failed to list orders")
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (s *Server) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.sessions[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.sessions[sessionID] = lock
	}
	return lock
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
