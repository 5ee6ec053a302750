// Package server exposes the service over HTTP: chat, agent listing, user
// stats, memories, metrics, and a server-sent event stream.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cadre-oss/brains/internal/service"
	"github.com/cadre-oss/brains/internal/telemetry"
)

// Server is the brains HTTP API server.
type Server struct {
	svc     *service.Service
	broker  *Broker
	logger  *telemetry.Logger
	timeout time.Duration
}

// New creates a server and subscribes its SSE broker to the service's
// event bus.
func New(svc *service.Service) *Server {
	logger := svc.Logger()
	broker := NewBroker(logger)
	svc.Bus().Register(broker)

	timeout, err := svc.Config().Server.ParsedRequestTimeout()
	if err != nil {
		logger.Warn("Invalid server.request_timeout, using 5m", "error", err)
		timeout = 5 * time.Minute
	}

	return &Server{
		svc:     svc,
		broker:  broker,
		logger:  logger,
		timeout: timeout,
	}
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.setupRoutes())
}

// Start serves on addr and blocks until ctx is cancelled or the listener
// fails.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Starting brains API", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /api/health", s.handleHealth)

	// Agents
	mux.HandleFunc("GET /api/agents", s.handleListAgents)

	// Chat
	mux.HandleFunc("POST /api/chat", s.handleChat)

	// Users
	mux.HandleFunc("GET /api/users/{id}/stats", s.handleUserStats)
	mux.HandleFunc("DELETE /api/users/{id}/history", s.handleClearHistory)
	mux.HandleFunc("GET /api/users/{id}/memories", s.handleUserMemories)

	// Metrics
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	// SSE events
	mux.HandleFunc("GET /api/events", s.handleSSEEvents)
	mux.HandleFunc("GET /api/events/{runID}", s.handleSSEEventsFiltered)

	return mux
}

// corsMiddleware adds CORS headers for browser clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
