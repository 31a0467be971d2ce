// Package server runs the short-lived local HTTP server that receives the
// OAuth callback.
//
// LIFECYCLE:
//
//	New      → chi router with middleware and GET /oauth2/redirect
//	Start    → bind 127.0.0.1:{port} and serve in the background
//	Wait     → block until the first callback (or ctx is done),
//	           then shut down gracefully
//
// The server lives for one login. It binds to loopback only, since the
// token arrives in the query string.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/handler"
	"github.com/sakif/portfolio/internal/middleware"
)

// CallbackPath is where the backend sends the browser after login.
const CallbackPath = "/oauth2/redirect"

// shutdownTimeout bounds how long in-flight responses get to finish.
const shutdownTimeout = 5 * time.Second

// Config holds server configuration. Port 0 picks a free port.
type Config struct {
	Host string
	Port int
}

// Server is the callback server.
type Server struct {
	router   *chi.Mux
	config   Config
	logger   *slog.Logger
	callback *handler.CallbackHandler

	srv      *http.Server
	listener net.Listener
	errs     chan error
}

// New wires the router. redirect is usually an *auth.RedirectHandler.
func New(cfg Config, redirect handler.Redirector, logger *slog.Logger) *Server {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		callback: handler.NewCallbackHandler(redirect, logger),
		errs:     make(chan error, 1),
	}
	s.setupRoutes()
	return s
}

// setupRoutes: RequestID, then Recoverer, then our request logger.
// The logger omits the query string, which carries the token.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get(CallbackPath, s.callback.HandleRedirect)
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listener and serves in a goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port)))
	if err != nil {
		return fmt.Errorf("listening for oauth callback: %w", err)
	}
	s.listener = ln
	s.srv = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("callback server listening", slog.String("url", s.RedirectURL()))
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()
	return nil
}

// RedirectURL is the callback address to hand to the provider.
func (s *Server) RedirectURL() string {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	if s.listener != nil {
		addr = s.listener.Addr().String()
	}
	return "http://" + addr + CallbackPath
}

// Wait returns the first callback's outcome. The server is shut down before
// Wait returns, whatever the reason.
func (s *Server) Wait(ctx context.Context) (auth.Outcome, error) {
	defer s.shutdown()

	select {
	case outcome := <-s.callback.Outcomes():
		return outcome, nil
	case err := <-s.errs:
		return auth.Outcome{}, fmt.Errorf("callback server: %w", err)
	case <-ctx.Done():
		return auth.Outcome{}, ctx.Err()
	}
}

func (s *Server) shutdown() {
	if s.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Error("callback server shutdown", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("callback server stopped")
}
