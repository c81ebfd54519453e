package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/api/graphql"
	"github.com/feral-file/ff-ledger/internal/api/middleware"
	"github.com/feral-file/ff-ledger/internal/api/rest"
	"github.com/feral-file/ff-ledger/internal/api/shared/executor"
	"github.com/feral-file/ff-ledger/internal/logger"
)

// DEFAULT_SHUTDOWN_TIMEOUT bounds how long in-flight requests may finish after the context ends
const DEFAULT_SHUTDOWN_TIMEOUT = 5 * time.Second

type Config struct {
	Debug           bool
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	Auth            middleware.AuthConfig
	// AbandonedAfter is the default inactivity threshold of the abandoned buckets query
	AbandonedAfter time.Duration
}

// Server serves the query API over HTTP
type Server struct {
	config   Config
	executor executor.Executor
}

func New(cfg Config, exec executor.Executor) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DEFAULT_SHUTDOWN_TIMEOUT
	}
	return &Server{config: cfg, executor: exec}
}

// Router builds the gin engine with middleware and routes
func (s *Server) Router() (*gin.Engine, error) {
	mode := gin.ReleaseMode
	if s.config.Debug {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)

	auth, err := middleware.NewAuthenticator(s.config.Auth)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.CORS(s.config.AllowedOrigins),
	)
	rest.SetupRoutes(router, rest.NewHandler(s.executor, s.config.AbandonedAfter), auth)

	gqlHandler, err := graphql.NewHandler(s.executor, auth, s.config.AbandonedAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL handler: %w", err)
	}
	graphql.SetupRoutes(router, gqlHandler)

	return router, nil
}

// Run serves until ctx ends, then drains in-flight requests for at most ShutdownTimeout
func (s *Server) Run(ctx context.Context) error {
	router, err := s.Router()
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoCtx(ctx, "Starting API server", zap.String("address", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
