// Package api exposes discovery, refresh, spin and shortlists over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rendis/mealspin/internal/engine/discovery"
	"github.com/rendis/mealspin/internal/engine/storage"
)

// maxRuns bounds the in-memory run cache.
const maxRuns = 64

// ShortlistStore is the persistence the shortlist endpoints need.
type ShortlistStore interface {
	discovery.Shortlister
	ListShortlist(ctx context.Context, group string) ([]storage.ShortlistEntry, error)
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	engine   *discovery.Engine
	store    ShortlistStore
	runs     *runCache
	metrics  *discovery.Metrics
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	router   *gin.Engine
}

// NewServer builds the router. store may be nil, which disables the
// shortlist endpoints.
func NewServer(engine *discovery.Engine, store ShortlistStore, metrics *discovery.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		engine:   engine,
		store:    store,
		runs:     newRunCache(maxRuns),
		metrics:  metrics,
		gatherer: gatherer,
		logger:   logger,
	}

	router := gin.New()
	router.Use(recoveryMiddleware(logger), loggerMiddleware(logger))

	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	router.POST("/discover", s.discover)
	router.POST("/runs/:id/refresh", s.refresh)
	router.GET("/runs/:id", s.getRun)
	router.POST("/spin", s.spin)
	router.POST("/groups/:group/shortlist", s.addShortlist)
	router.GET("/groups/:group/shortlist", s.listShortlist)

	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func loggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		log.Info("http request", fields...)
	}
}

func recoveryMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", zap.Any("panic", r), zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}
