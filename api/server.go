// Package api provides the CampusBot HTTP server: the health probe, the
// chat endpoint, and the port-scanning startup used by the companion
// front-end.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/mitscampus/campusbot/internal/log"
	"github.com/mitscampus/campusbot/internal/rag"
)

// HTTP server hardening limits.
const (
	ReadHeaderTimeout = 10 * time.Second
	ReadTimeout       = 30 * time.Second
	WriteTimeout      = 120 * time.Second
	IdleTimeout       = 120 * time.Second
	ShutdownTimeout   = 10 * time.Second
	MaxBodyBytes      = 64 * 1024
)

// Answerer runs one question through the answer pipeline. Each HTTP
// request is stateless, so no conversation history is carried.
type Answerer interface {
	Answer(ctx context.Context, question string, history rag.History) (string, error)
}

// ServerConfig contains configuration for creating the server.
type ServerConfig struct {
	Logger   log.Logger
	Answerer Answerer // nil reports "not ready" on /chat until set

	// RateLimitRPS enables per-IP limiting when positive.
	RateLimitRPS   float64
	RateLimitBurst int
	TrustProxy     bool
}

// Server is the CampusBot HTTP server.
type Server struct {
	mux        *http.ServeMux
	logger     log.Logger
	answerer   Answerer
	limiter    *RateLimiter
	trustProxy bool
}

// NewServer creates a server with all routes configured.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		answerer:   cfg.Answerer,
		trustProxy: cfg.TrustProxy,
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /chat", s.handleChat)

	return s
}

// ServeHTTP implements http.Handler with the middleware stack:
// Recovery catches panics, Logging tracks requests, CORS lets the
// companion front-end call from another origin, and the optional
// rate limiter throttles abusive clients before routing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var handler http.Handler = s.mux
	if s.limiter != nil {
		handler = RateLimitMiddleware(s.limiter, s.trustProxy, s.logger)(handler)
	}
	handler = CORSMiddleware(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RecoveryMiddleware(s.logger)(handler)
	handler.ServeHTTP(w, r)
}

// FindListener scans ports basePort..basePort+maxTries-1 in order and
// returns the first one that binds. Only "address in use" advances the
// scan; any other bind error is fatal immediately.
func FindListener(host string, basePort, maxTries int) (net.Listener, int, error) {
	for port := basePort; port < basePort+maxTries; port++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
		if err == nil {
			if addr, ok := ln.Addr().(*net.TCPAddr); ok {
				return ln, addr.Port, nil
			}
			return ln, port, nil
		}
		if errors.Is(err, syscall.EADDRINUSE) {
			continue
		}
		return nil, 0, fmt.Errorf("bind port %d: %w", port, err)
	}
	return nil, 0, fmt.Errorf("no available ports found after %d attempts", maxTries)
}

// WritePortFile records the bound port as JSON for the front-end to
// discover.
func WritePortFile(path string, port int) error {
	data, err := json.Marshal(struct {
		Port int `json:"port"`
	}{Port: port})
	if err != nil {
		return fmt.Errorf("encode port file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write port file %s: %w", path, err)
	}
	return nil
}

// Serve runs the HTTP server on the listener until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		<-errCh
		s.logger.Info("server stopped")
		return nil
	}
}
