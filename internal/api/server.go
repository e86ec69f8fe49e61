// Package api exposes the classifier and stored runs over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/interva-cod-server/internal/database"
	"github.com/interva-cod-server/internal/domain"
	"github.com/interva-cod-server/internal/ingest"
	"github.com/interva-cod-server/internal/middleware"
	"github.com/interva-cod-server/internal/service"
	"github.com/interva-cod-server/internal/store"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Deps are the collaborators the handlers use. Results and DB may be nil.
type Deps struct {
	Logger     *logrus.Logger
	Classifier *service.Classifier
	Results    store.Store
	DB         *database.DB
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	deps          Deps
	reader        *ingest.Reader
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, deps Deps) *Server {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(configManager.GetServerConfig().RateLimit))

	server := &Server{
		configManager: configManager,
		deps:          deps,
		reader:        ingest.NewReader(deps.Logger),
		router:        router,
	}

	server.setupRoutes()

	return server
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.deps.Logger.WithField("addr", addr).Info("HTTP server listening")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/probbase", s.handleProbbase)
		v1.POST("/classify", s.handleClassify)
		v1.GET("/runs", s.handleListRuns)
		v1.GET("/runs/:run_id", s.handleGetRun)
		v1.DELETE("/runs/:run_id", s.handleDeleteRun)
		v1.GET("/runs/:run_id/results", s.handleRunResults)
		v1.GET("/runs/:run_id/csmf", s.handleRunCSMF)
		v1.GET("/runs/:run_id/export", s.handleRunExport)
	}
}
