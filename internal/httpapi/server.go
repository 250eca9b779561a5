package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookfolio/bookfolio/pkg/config"
	"github.com/bookfolio/bookfolio/pkg/health"
	"github.com/bookfolio/bookfolio/pkg/observability/logger"
	"github.com/bookfolio/bookfolio/pkg/observability/metrics"
)

// RouterOptions carries the cross-cutting collaborators every route
// shares. Resources are mounted onto the returned engine afterwards
// with Mount.
type RouterOptions struct {
	Log       logger.Logger
	Metrics   *metrics.Registry
	Health    *health.Registry
	RateLimit config.RateLimitConfig
}

// NewRouter builds the gin engine with recovery, request-ID, logging,
// metrics and optional rate-limit middleware, plus the /healthz and
// /metrics endpoints.
func NewRouter(opts RouterOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(RequestLogger(opts.Log))
	engine.Use(Metrics())

	if opts.RateLimit.Enabled {
		limiter := NewTokenBucketLimiter(opts.RateLimit.RequestsPerSecond, opts.RateLimit.Burst)
		engine.Use(RateLimit(limiter))
	}

	engine.GET("/healthz", func(c *gin.Context) {
		if opts.Health == nil {
			c.JSON(http.StatusOK, gin.H{"status": string(health.StatusHealthy)})
			return
		}
		report := opts.Health.Check(c.Request.Context())
		status := http.StatusOK
		if report.Status != health.StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	})
	if opts.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	return engine
}

// APIGroup returns the versioned route group resources mount under.
func APIGroup(engine *gin.Engine, name string) *gin.RouterGroup {
	return engine.Group("/api/v1/" + name)
}

// Server wraps http.Server with graceful lifecycle management.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	log        logger.Logger
	cfg        config.HTTPConfig
}

// NewServer creates a server for handler with the configured timeouts.
func NewServer(cfg config.HTTPConfig, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		handler: handler,
		log:     log,
		cfg:     cfg,
	}
}

// Start listens until the context is cancelled, then shuts down
// gracefully. Returns an error if the listener fails to start or
// shutdown does not complete within the context's deadline.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.log.Info("starting server", "port", s.cfg.Port)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server", "addr", s.httpServer.Addr)

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("server shutdown complete")
	return nil
}
