package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/molx/internal/api/http"
	"github.com/GriffinCanCode/molx/internal/api/middleware"
	"github.com/GriffinCanCode/molx/internal/api/ws"
	"github.com/GriffinCanCode/molx/internal/domain/app"
	"github.com/GriffinCanCode/molx/internal/domain/intake"
	"github.com/GriffinCanCode/molx/internal/domain/session"
	"github.com/GriffinCanCode/molx/internal/domain/viewer"
	"github.com/GriffinCanCode/molx/internal/engine/scene"
	"github.com/GriffinCanCode/molx/internal/infrastructure/config"
	"github.com/GriffinCanCode/molx/internal/infrastructure/logging"
	"github.com/GriffinCanCode/molx/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/molx/internal/infrastructure/storage"
	"github.com/GriffinCanCode/molx/internal/infrastructure/tracing"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	appManager *app.Manager
	hub        *ws.Hub
	store      storage.Store
	tracer     *tracing.Tracer
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger := logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Development)

	logger.Info("Initializing molx server",
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("session_key", cfg.Viewer.SessionKey),
	)

	// Metrics first, every component records into it
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("molx", logger.Component("tracing"))

	store, err := storage.Open(cfg.Storage, logger.Component("storage"))
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to open session storage: %w", err)
	}
	if cfg.Storage.Driver == config.DriverRedis {
		store = storage.Guard(store, storage.NewBreaker(cfg.Storage.Driver, logger.Component("storage"), metrics))
	}
	store = storage.Instrument(store, metrics)

	sessions := session.NewManager(store,
		session.WithKey(cfg.Viewer.SessionKey),
		session.WithLogger(logger.Component("session")),
		session.WithMetrics(metrics),
	)
	engines := scene.NewFactory(logger.Component("scene"))
	viewers := viewer.NewManager(engines, sessions, logger.Component("viewer")).WithMetrics(metrics)
	files := intake.New(cfg.Viewer.MaxUploadBytes, logger.Component("intake")).WithMetrics(metrics)

	hub := ws.NewHub(logger.Component("stream")).WithMetrics(metrics)
	appManager := app.NewManager(files, viewers, logger.Component("app")).WithBroadcaster(hub)
	hub.Bind(appManager)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = cfg.Viewer.MaxUploadBytes

	router.Use(middleware.Recovery(logger.Logger))
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(middleware.RequestLogger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		rl := middleware.RateLimitFromConfig(cfg.RateLimit)
		logger.Info("Rate limiting enabled",
			zap.Int("rps", rl.RequestsPerSecond),
			zap.Int("burst", rl.Burst),
		)
		router.Use(middleware.RateLimit(rl))
	}

	apihttp.NewHandlers(apihttp.Deps{
		App:       appManager,
		Sessions:  sessions,
		Engines:   engines,
		Store:     store,
		Hub:       hub,
		Metrics:   metrics,
		Tracer:    tracer,
		Logger:    logger.Component("http"),
		MaxUpload: cfg.Viewer.MaxUploadBytes,
	}).Register(router)

	logger.Info("Server initialized successfully")

	return &Server{
		router:     router,
		appManager: appManager,
		hub:        hub,
		store:      store,
		tracer:     tracer,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
	}, nil
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Stream clients are hijacked connections; Shutdown does not wait for them.
	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}

// Close releases the viewer engine, storage and logger
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.hub.Close()
	s.appManager.Close()
	s.tracer.Close()

	var err error
	if cerr := s.store.Close(); cerr != nil {
		s.logger.Error("Failed to close storage", zap.Error(cerr))
		err = fmt.Errorf("failed to close storage: %w", cerr)
	}

	_ = s.logger.Sync()
	return err
}
