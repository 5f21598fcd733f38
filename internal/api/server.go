package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yt-showcase/internal/metrics"
	"github.com/yt-showcase/internal/models"
)

// Builder produces the showcase payload for one request
type Builder interface {
	Build(ctx context.Context) (*models.Showcase, error)
}

// Server represents the API server
type Server struct {
	router   *gin.Engine
	showcase Builder
	logger   *slog.Logger
}

// NewServer creates a new API server
func NewServer(showcase Builder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.Default()
	router.Use(metrics.Middleware())

	// The frontend is served from another origin
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	server := &Server{
		router:   router,
		showcase: showcase,
		logger:   logger,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// setupRoutes configures all the routes for the server
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/api/videos", s.getVideos)
}

// getVideos handles requests for the channel showcase.
// Every failure kind is reported as a 500; the kind only reaches logs and metrics.
func (s *Server) getVideos(c *gin.Context) {
	showcase, err := s.showcase.Build(c.Request.Context())
	if err != nil {
		kind := models.KindOf(err)
		metrics.ShowcaseFailures.WithLabelValues(string(kind)).Inc()
		s.logger.Error("error fetching channel videos",
			slog.String("kind", string(kind)),
			slog.Any("error", err))

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	metrics.VideosFetched.Add(float64(len(showcase.Videos)))
	c.JSON(http.StatusOK, showcase)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
