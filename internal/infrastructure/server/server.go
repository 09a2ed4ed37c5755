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

	navhttp "github.com/GriffinCanCode/navcore/internal/api/http"
	"github.com/GriffinCanCode/navcore/internal/api/middleware"
	"github.com/GriffinCanCode/navcore/internal/api/ws"
	"github.com/GriffinCanCode/navcore/internal/domain/callback"
	"github.com/GriffinCanCode/navcore/internal/domain/navigation"
	"github.com/GriffinCanCode/navcore/internal/domain/session"
	"github.com/GriffinCanCode/navcore/internal/infrastructure/config"
	"github.com/GriffinCanCode/navcore/internal/infrastructure/logging"
	"github.com/GriffinCanCode/navcore/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/navcore/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/navcore/internal/infrastructure/storage"
)

// Server wraps the HTTP server and the navigation core it exposes
type Server struct {
	router     *gin.Engine
	http       *http.Server
	dispatcher *navigation.Dispatcher
	callbacks  *callback.Manager
	sessions   *session.Manager
	store      storage.BlobStore
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// New creates a server instance. Nothing listens until Run.
func New(cfg *config.Config) (*Server, error) {
	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)

	logger.Info("Initializing navcore server",
		zap.String("port", cfg.Server.Port),
		zap.Bool("storage", cfg.Storage.Enabled),
	)

	// Metrics first, every component reports into them
	metrics := monitoring.NewMetrics()

	callbacks := callback.NewManager(logger.Component("callbacks"), metrics)
	dispatcher := navigation.NewDispatcher(callbacks,
		navigation.WithLogger(logger.Component("navigation")),
		navigation.WithMetrics(metrics),
	)

	var store storage.BlobStore
	if cfg.Storage.Enabled {
		bolt, err := storage.NewBolt(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open session storage: %w", err)
		}
		breakerLog := logger.Component("storage")
		store = storage.WithBreaker(bolt, resilience.New("storage", resilience.Settings{
			Failures:  cfg.Storage.BreakerFailures,
			IsFailure: storage.IsBackendFailure,
			OnStateChange: func(name string, from, to resilience.State) {
				breakerLog.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
			},
		}))
		logger.Info("Session storage opened", zap.String("path", bolt.Path()))
	} else {
		// Snapshots live only as long as the process
		store = storage.NewMemory()
		logger.Info("Session storage is in memory")
	}

	sessions, err := session.NewManager(dispatcher, store, logger.Component("sessions"), metrics)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	if logging.IsProduction() || !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := navhttp.NewHandlers(dispatcher, callbacks, sessions, metrics, logger.Component("api"))
	handlers.Register(router)

	stream := ws.NewHandler(dispatcher, cfg.Stream.Buffer, metrics, logger.Component("stream"))
	router.GET("/stream", stream.HandleConnection)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized")

	return &Server{
		router:     router,
		dispatcher: dispatcher,
		callbacks:  callbacks,
		sessions:   sessions,
		store:      store,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Dispatcher returns the navigation dispatcher platform adapters drive
func (s *Server) Dispatcher() *navigation.Dispatcher {
	return s.dispatcher
}

// Callbacks returns the operation callback manager
func (s *Server) Callbacks() *callback.Manager {
	return s.callbacks
}

// Sessions returns the session manager
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Run serves HTTP until Shutdown is called
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// Close releases storage and flushes the logger
func (s *Server) Close() error {
	if err := s.store.Close(); err != nil {
		s.logger.Error("Failed to close session storage", zap.Error(err))
		return fmt.Errorf("failed to close session storage: %w", err)
	}
	s.logger.Info("Closed session storage")

	s.logger.Sync()
	return nil
}
