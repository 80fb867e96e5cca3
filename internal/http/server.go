package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	a2aHTTP "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/a2a/http"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/a2a/http/dto"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/config"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/metrics"
)

// Server is the agent-facing HTTP API server.
type Server struct {
	server *http.Server
	logger *slog.Logger
	config *config.Config
}

// Handlers groups the request handlers the server routes to.
type Handlers struct {
	Agents   *a2aHTTP.AgentHandler
	OAuth    *a2aHTTP.OAuthHandler
	Messages *a2aHTTP.MessageHandler

	// Authentication protects the message receive and metrics endpoints.
	Authentication gin.HandlerFunc
}

// NewServer creates a new HTTP server with its router fully assembled.
// meterProvider may be nil to disable HTTP metrics collection.
func NewServer(
	cfg *config.Config,
	logger *slog.Logger,
	handlers Handlers,
	meterProvider metric.MeterProvider,
) *Server {
	s := &Server{
		logger: logger,
		config: cfg,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
	s.server.Handler = s.setupRouter(handlers, meterProvider)
	return s
}

// setupRouter assembles the gin engine: recovery, request id, logging,
// optional metrics and CORS middleware, then the API routes.
func (s *Server) setupRouter(handlers Handlers, meterProvider metric.MeterProvider) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if meterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(meterProvider, s.config.MetricsNamespace))
	}

	if corsMiddleware := createCORSMiddleware(
		s.config.CORSEnabled,
		s.config.CORSAllowOrigins,
		s.logger,
	); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/healthz", s.healthHandler)

	router.POST("/v1/agents", handlers.Agents.RegisterAgentHandler)
	router.POST("/oauth/authorize", handlers.OAuth.AuthorizeHandler)
	router.POST("/oauth/token", handlers.OAuth.TokenHandler)

	authenticated := router.Group("/", handlers.Authentication)
	authenticated.POST("/a2a/message", handlers.Messages.ReceiveMessageHandler)
	authenticated.GET("/v1/metrics/security", handlers.Agents.SecurityMetricsHandler)

	return router
}

// healthHandler reports liveness of the local agent.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:  "healthy",
		AgentID: s.config.AgentID,
	})
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
