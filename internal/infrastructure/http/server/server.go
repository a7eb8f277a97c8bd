// Package server provides the gin HTTP server for the insight API
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alchemorsel/pantry/internal/infrastructure/config"
	"github.com/alchemorsel/pantry/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/pantry/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/pantry/internal/infrastructure/monitoring"
	"github.com/alchemorsel/pantry/internal/ports/inbound"
	"github.com/alchemorsel/pantry/pkg/errors"
	"github.com/alchemorsel/pantry/pkg/healthcheck"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	server   *http.Server
	insights inbound.InsightService
	health   *healthcheck.HealthCheck
	metrics  *monitoring.MetricsCollector
}

// NewServer creates a new HTTP server instance. metrics may be nil when
// monitoring.enable_metrics is off.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	insights inbound.InsightService,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
) *Server {
	s := &Server{
		config:   cfg,
		logger:   logger.Named("server"),
		insights: insights,
		health:   health,
		metrics:  metrics,
	}

	s.router = s.setupRouter()
	s.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() *gin.Engine {
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(s.config.Server.TrustedProxies); err != nil {
		s.logger.Warn("Invalid trusted proxies", zap.Error(err))
	}

	m := middleware.New(s.config, s.logger)
	r.Use(
		m.RequestID(),
		m.Recovery(),
		m.Logger(),
		m.Tracing(),
		m.Security(),
		s.metrics.HTTPMiddleware(),
		m.ErrorHandler(),
	)

	r.GET(s.config.Monitoring.HealthCheckPath, s.health.Handler())
	r.GET("/health/live", s.health.LivenessHandler())
	r.GET("/health/ready", s.health.ReadinessHandler())
	if s.config.Monitoring.EnableMetrics && s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := r.Group("/api/v1")
	v1.Use(m.RateLimit(), m.Compression())
	handlers.NewInsightHandlers(s.insights, s.logger).Register(v1)

	r.NoRoute(func(c *gin.Context) {
		appErr := errors.NewNotFoundError("Route")
		c.JSON(appErr.StatusCode(), errors.ToErrorResponse(appErr, middleware.RequestID(c)))
	})

	return r
}

// Handler exposes the router, for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
