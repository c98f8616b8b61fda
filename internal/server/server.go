package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/pageza/caltrack/web/config"
	"github.com/pageza/caltrack/web/internal/api"
	"github.com/pageza/caltrack/web/internal/middleware"
	"github.com/pageza/caltrack/web/internal/router"
)

// Server represents the HTTP server
type Server struct {
	http *http.Server
}

// New creates a server exposing the /api/v1 routes plus /health and /metrics
func New(cfg *config.Config, deps api.Dependencies) *Server {
	engine := router.SetupRouter(cfg.AllowedOrigins, deps)

	return &Server{
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.ServerHost, cfg.ServerPort),
			Handler:           middleware.ErrorHandler(engine),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the full handler chain, for tests
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves until Stop is called
func (s *Server) Start() error {
	log.Printf("[Server] Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
