// Package server hosts the local control API. It binds to loopback and
// refuses requests from other hosts.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HerbHall/dnsswitch/internal/metrics"
	"github.com/HerbHall/dnsswitch/internal/version"
)

// RouteRegistrar mounts a feature's routes.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Server is the dnsswitch control API server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	metrics    *metrics.Metrics
	limiter    *rate.Limiter
}

// New creates a Server on addr with the routes of every registrar. A nil
// m disables /metrics.
func New(addr string, logger *zap.Logger, m *metrics.Metrics, registrars ...RouteRegistrar) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:  logger,
		mux:     mux,
		metrics: m,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.recoverer(s.loopbackOnly(s.rateLimit(mux))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.registerCoreRoutes()
	for _, r := range registrars {
		r.RegisterRoutes(mux)
	}

	return s
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFound(w, "no route for "+r.Method+" "+r.URL.Path, r.URL.Path)
	})
}

// WithRateLimit caps the request rate across all clients. A non-positive
// limit removes the cap. Call it before Start.
func (s *Server) WithRateLimit(limit rate.Limit, burst int) *Server {
	if limit <= 0 {
		s.limiter = nil
		return s
	}
	s.limiter = rate.NewLimiter(limit, max(burst, 1))
	return s
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// loopbackOnly rejects requests whose peer is not a loopback address.
func (s *Server) loopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
			s.logger.Warn("rejected non-loopback request", zap.String("remote", r.RemoteAddr))
			Forbidden(w, "the control API only accepts local requests", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimit answers 429 once the shared limiter is exhausted.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			RateLimited(w, s.tokenInterval(), "too many requests, retry shortly", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// tokenInterval is how long the limiter takes to refill one request.
func (s *Server) tokenInterval() time.Duration {
	return time.Duration(float64(time.Second) / float64(s.limiter.Limit()))
}

// recoverer turns a handler panic into a 500 problem.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.logger.Error("handler panic", zap.Any("panic", v), zap.String("path", r.URL.Path))
				InternalError(w, "internal error", r.URL.Path)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-DNSSwitch-Version", version.Short())
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"service": "dnsswitch",
		"version": version.Current(),
	})
}
