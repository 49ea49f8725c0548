package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/seatserve/seatserve/internal/config"
	"github.com/seatserve/seatserve/internal/metrics"
	"github.com/seatserve/seatserve/internal/notify"
	"github.com/seatserve/seatserve/internal/store"
	"github.com/seatserve/seatserve/internal/stream"
)

// Server wires the order store, the in-process stream hub and the event
// publisher behind the HTTP API.
type Server struct {
	cfg       config.ServerConfig
	streamCfg config.StreamConfig
	store     store.Store
	hub       *stream.Hub
	publisher notify.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	upgrader  websocket.Upgrader
	now       func() time.Time
}

// New creates a Server. publisher may be a notify.Fanout combining the hub
// with an AMQP bridge; metrics may be nil when monitoring is disabled.
func New(cfg config.ServerConfig, streamCfg config.StreamConfig, st store.Store, hub *stream.Hub, publisher notify.Publisher, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if streamCfg.ClientBuffer <= 0 {
		streamCfg.ClientBuffer = config.DefaultClientBuffer
	}
	if streamCfg.HeartbeatInterval <= 0 {
		streamCfg.HeartbeatInterval = config.DefaultHeartbeatInterval
	}
	s := &Server{
		cfg:       cfg,
		streamCfg: streamCfg,
		store:     st,
		hub:       hub,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Router builds the chi handler for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.cors)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", s.handleCreateOrder)
		r.Get("/", s.handleListOrders)
		r.Get("/stream", s.handleStream)
		r.Get("/ws", s.handleWebSocket)
		r.Get("/{orderID}", s.handleGetOrder)
		r.Post("/{orderID}/add-items", s.handleAddItems)
		r.Put("/{orderID}", s.handleUpdateOrder)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.cfg.AllowedOrigin == "" || s.cfg.AllowedOrigin == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || origin == s.cfg.AllowedOrigin
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := s.cfg.AllowedOrigin
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// authorized checks the admin bearer token. A server configured without a
// token rejects all admin requests.
func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.AdminToken == "" {
		return false
	}
	return r.Header.Get("Authorization") == "Bearer "+s.cfg.AdminToken
}
