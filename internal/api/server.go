// Package api exposes the scan and classification pipeline over HTTP.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/holdscan/internal/certs"
	"github.com/Veraticus/holdscan/internal/classification"
	"github.com/Veraticus/holdscan/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server serves the JSON API.
type Server struct {
	engine     *classification.Engine
	classifier classification.Classifier
	logger     *slog.Logger
	now        func() time.Time
	cfg        config.ServerConfig
	workers    int
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithClock overrides the timestamp source of scan results.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithWorkers bounds the per-request page parallelism.
func WithWorkers(n int) Option {
	return func(s *Server) { s.workers = n }
}

// NewServer builds a server around a rule engine. Lookups go through a memoizing
// classifier since API clients tend to resend the same holdings.
func NewServer(engine *classification.Engine, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		engine:     engine,
		classifier: classification.NewCachedClassifier(engine, 30*time.Minute),
		logger:     slog.Default(),
		now:        time.Now,
		cfg:        cfg,
		workers:    4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	if s.cfg.MaxBodyBytes > 0 {
		r.Use(limitBody(s.cfg.MaxBodyBytes))
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/scan", s.handleScan)
		r.Post("/classify", s.handleClassify)
		r.Get("/rules", s.handleRules)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		sendJSONError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		sendJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts it down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	if s.cfg.TLS {
		store := certs.NewStore(s.cfg.CertDir)
		cert, err := store.Certificate()
		if err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		server.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
		s.logger.Info("Serving HTTPS with self-signed certificate", "cert", store.CertFile())
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", "address", s.cfg.Addr, "tls", s.cfg.TLS)
		if s.cfg.TLS {
			errCh <- server.ListenAndServeTLS("", "")
			return
		}
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("Server shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
