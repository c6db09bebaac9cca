// Package server exposes the gateway's HTTP surface: session start,
// QR retrieval, status, sending, teardown, and administrative listing.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dkovac/wagate/internal/auth"
	"github.com/dkovac/wagate/internal/lifecycle"
	"github.com/dkovac/wagate/internal/qrwait"
)

// Options configures a Server.
type Options struct {
	Guard  *auth.Guard
	Mgr    *lifecycle.Manager
	Poller *qrwait.Poller
	Logger *zap.Logger

	// QR poll budget for /getQrCode.
	QRMaxAttempts int
	QRInterval    time.Duration
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	guard  *auth.Guard
	mgr    *lifecycle.Manager
	poller *qrwait.Poller
	logger *zap.Logger

	qrMaxAttempts int
	qrInterval    time.Duration

	startedAt  time.Time
	instanceID string
}

// New builds a Server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxAttempts := opts.QRMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	interval := opts.QRInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Server{
		guard:         opts.Guard,
		mgr:           opts.Mgr,
		poller:        opts.Poller,
		logger:        logger,
		qrMaxAttempts: maxAttempts,
		qrInterval:    interval,
		startedAt:     time.Now(),
		instanceID:    uuid.NewString(),
	}
}

// Router assembles the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Post("/start", s.handleStart)
	r.Get("/getQrCode", s.handleGetQRCode)
	r.Post("/getConnectionStatus", s.handleConnectionStatus)
	r.Post("/sendText", s.handleSendText)
	r.Post("/disconnectSession", s.handleDisconnect)
	r.Get("/listSessions", s.handleListSessions)
	r.Get("/status", s.handleHealth)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": true, "message": message})
}
