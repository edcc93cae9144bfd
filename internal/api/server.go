// Package api exposes the HTTP surface: the prediction endpoints, the
// history and analytics endpoints, the live WebSocket feed, health and
// Prometheus metrics.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/mohrashard/LiverLens/internal/analytics"
	"github.com/mohrashard/LiverLens/internal/cache"
	"github.com/mohrashard/LiverLens/internal/domain"
	"github.com/mohrashard/LiverLens/internal/middleware"
	"github.com/mohrashard/LiverLens/internal/predictor"
)

// Server is the HTTP server binding the prediction and analytics
// services to their routes.
type Server struct {
	cfg       domain.Config
	log       *logrus.Logger
	predictor *predictor.Service
	analytics *analytics.Engine
	cache     *cache.ResponseCache
	hub       *Hub
	router    *gin.Engine
	server    *http.Server
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(
	cfg domain.Config,
	logger *logrus.Logger,
	predictorSvc *predictor.Service,
	analyticsEngine *analytics.Engine,
	responseCache *cache.ResponseCache,
	hub *Hub,
) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigin))
	router.Use(middleware.RateLimit(cfg.RateLimit))

	s := &Server{
		cfg:       cfg,
		log:       logger,
		predictor: predictorSvc,
		analytics: analyticsEngine,
		cache:     responseCache,
		hub:       hub,
		router:    router,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	api.Use(middleware.Identity())
	{
		api.POST("/predict", s.handlePredict)
		api.POST("/predict-only", s.handlePredictOnly)
		api.POST("/predictions/batch", s.handleBatchPredict)

		api.GET("/history", s.handleHistory)
		api.DELETE("/history", s.handleBulkDelete)
		api.DELETE("/history/:id", s.handleDeletePrediction)
		api.GET("/stats", s.handleStats)

		ana := api.Group("/analytics")
		{
			ana.GET("/summary", s.handleAnalyticsSummary)
			ana.GET("/outcomes", s.handleAnalyticsOutcomes)
			ana.GET("/histograms", s.handleAnalyticsHistograms)
			ana.GET("/correlation", s.handleAnalyticsCorrelation)
			ana.GET("/importance", s.handleAnalyticsImportance)
			ana.GET("/trends", s.handleAnalyticsTrends)
			ana.GET("/subgroups", s.handleAnalyticsSubgroups)
			ana.GET("/records", s.handleAnalyticsRecords)
		}

		api.GET("/ws", s.handleFeed)
	}
}

// Start serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
