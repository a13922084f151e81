// Package server exposes the validation and reconciliation engine over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docrecon/internal/engine"
	"docrecon/internal/export"
	"docrecon/internal/recon"
	"docrecon/internal/repository"
)

type Config struct {
	Addr string // listen address, e.g. ":8080"
}

type Server struct {
	cfg      Config
	engine   *engine.Engine
	store    *repository.Store
	exporter *export.Service
	renderer recon.NarrativeRenderer
	logger   *slog.Logger
	http     *http.Server
}

func New(cfg Config, eng *engine.Engine, store *repository.Store,
	exporter *export.Service, renderer recon.NarrativeRenderer, logger *slog.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		engine:   eng,
		store:    store,
		exporter: exporter,
		renderer: renderer,
		logger:   logger,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/documents/validate", s.handleValidate)
		api.POST("/reconcile", s.handleReconcile)
		api.GET("/invoices/:number", s.handleGetInvoice)
		api.GET("/purchase-orders/:number", s.handleGetPurchaseOrder)
		api.GET("/export/:class", s.handleExport)
		api.POST("/admin/clear/:class", s.handleClear)
	}

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routed handler for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("server.listen", "addr", s.cfg.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server.shutdown")
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("server.request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}
