// Package httpapi exposes the concierge over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/email-concierge/internal/config"
	"github.com/mikey/email-concierge/internal/contacts"
	"github.com/mikey/email-concierge/internal/core"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	maxRequestBytes = 10 << 20
	shutdownTimeout = 10 * time.Second
)

// Server is the HTTP frontend
type Server struct {
	service  *core.ConciergeService
	contacts *contacts.Directory
	logger   *zap.Logger
	cfg      config.HTTPConfig
	srv      *http.Server
	listener net.Listener
}

// NewServer creates a new HTTP frontend
func NewServer(
	service *core.ConciergeService,
	directory *contacts.Directory,
	logger *zap.Logger,
	cfg config.HTTPConfig,
) *Server {
	return &Server{
		service:  service,
		contacts: directory,
		logger:   logger,
		cfg:      cfg,
	}
}

// Handler returns the routed handler with request logging applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /classify-email", s.handleClassify)
	mux.HandleFunc("POST /draft-reply", s.handleDraftReply)
	mux.HandleFunc("POST /concierge-email", s.handleConcierge)
	return s.withRequestID(mux)
}

// Start starts the HTTP frontend
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}
	s.listener = l

	s.srv = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		ErrorLog:     zap.NewStdLog(s.logger),
	}

	s.logger.Info("HTTP API starting", zap.String("address", l.Addr().String()))

	go func() {
		if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the HTTP frontend down
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// Addr returns the bound listen address, or nil before Start
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type requestIDKey struct{}

// withRequestID tags every request with an ID, echoing a caller-supplied one
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))

		s.logger.Info("Handled request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
