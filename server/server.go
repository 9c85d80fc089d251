package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hangarhq/aeromesh/logging"
	"github.com/hangarhq/aeromesh/runner"
	"github.com/hangarhq/aeromesh/tenant"
)

// Options configures the HTTP server.
type Options struct {
	// Logger receives request diagnostics.
	Logger logging.Logger
	// Debug keeps gin in debug mode with its default console output.
	Debug bool
}

// Server serves the aeromesh HTTP API.
type Server struct {
	runner  *runner.Runner
	tenants *tenant.Registry
	logger  logging.Logger

	engine *gin.Engine
	http   *http.Server
}

// New builds the HTTP server over a runner and a tenant registry.
func New(r *runner.Runner, tenants *tenant.Registry, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		runner:  r,
		tenants: tenants,
		logger:  opts.Logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.requestLogger())
	s.engine = engine
	s.routes()

	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/health", s.handleHealth)

	s.engine.POST("/chat", s.handleChat)

	s.engine.GET("/tasks/:id", s.handleTaskStatus)
	s.engine.POST("/tasks/:id/input", s.handleTaskInput)
	s.engine.DELETE("/tasks/:id", s.handleTaskCancel)

	s.engine.GET("/agents", s.handleAgents)
	s.engine.GET("/agents/:type", s.handleAgentDetail)
	s.engine.POST("/agents/:type/chat", s.handleAgentChat)

	s.engine.GET("/tenants", s.handleTenants)
	s.engine.GET("/tenants/:id", s.handleTenantDetail)
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on addr and serves until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}
	s.logger.Info("server.listening", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info(
			"server.request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
