package api

import (
	"context"
	"net/http"
	"time"

	"f1-highlights/agents/highlights/api/types"

	"github.com/gin-gonic/gin"
)

// Server represents the HTTP server
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
}

// NewServer creates a new HTTP server. Batch endpoints hold the request open
// for the whole run, so there is no write timeout.
func NewServer(address string, deps *types.Dependencies) *Server {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	RegisterRoutes(engine, deps)

	return &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:              address,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20, // 1 MB
		},
	}
}

// Engine returns the Gin engine for testing
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
