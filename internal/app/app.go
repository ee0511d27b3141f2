package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinematch/internal/config"
	"github.com/temcen/cinematch/internal/database"
	"github.com/temcen/cinematch/internal/engine"
	"github.com/temcen/cinematch/internal/handlers"
	"github.com/temcen/cinematch/internal/metrics"
	"github.com/temcen/cinematch/internal/middleware"
	"github.com/temcen/cinematch/internal/services"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	model    *engine.Model
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine
}

// New opens the backing stores, builds the recommendation model and wires the
// HTTP service. It blocks until the model is trained.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := SetupLogger(cfg)

	db, err := database.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	registry, m := newRegistry()

	source, err := NewRatingSource(cfg, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	model, err := BuildModel(ctx, cfg, source, logger, m)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to build recommendation model: %w", err)
	}

	app, err := assemble(cfg, logger, db, registry, m, model)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

// NewWithModel wires the HTTP service around an already built model without
// opening any backing store.
func NewWithModel(cfg *config.Config, logger *logrus.Logger, model *engine.Model) (*App, error) {
	registry, m := newRegistry()
	return assemble(cfg, logger, nil, registry, m, model)
}

func newRegistry() (*prometheus.Registry, *metrics.Metrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry, metrics.New(registry)
}

func assemble(cfg *config.Config, logger *logrus.Logger, db *database.Database, registry *prometheus.Registry, m *metrics.Metrics, model *engine.Model) (*App, error) {
	app := &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: registry,
		metrics:  m,
		model:    model,
	}

	svcs, err := services.New(cfg, logger, db, model, m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = svcs
	app.handlers = handlers.New(logger, svcs, cfg.Recommendation.DefaultUserID)

	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Model() *engine.Model {
	return a.model
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         ":" + a.config.Server.Port,
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.config.Server.Port).Info("Server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("Server forced to shutdown")
	}
	return a.Shutdown(shutdownCtx)
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	var errs []error
	if a.services != nil {
		if err := a.services.Close(); err != nil {
			a.logger.WithError(err).Error("Error closing event publisher")
			errs = append(errs, err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.WithError(err).Error("Error closing database connections")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// SetupLogger builds the logger described by the logging section.
func SetupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config.Security.CORS))
	router.Use(middleware.Metrics(a.metrics))

	router.GET("/", a.handlers.Health.Root)
	router.GET("/health", a.handlers.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	// Query-string API kept at the root for existing frontends
	router.GET("/recommend", a.handlers.Recommendation.Recommend)

	api := router.Group("/api/v1")
	{
		api.GET("/recommend", a.handlers.Recommendation.Recommend)
		api.GET("/trending", a.handlers.Recommendation.Trending)

		movies := api.Group("/movies")
		{
			movies.GET("/resolve", a.handlers.Recommendation.Resolve)
			movies.GET("/:id/similar", a.handlers.Recommendation.Similar)
		}
	}

	a.router = router
}
