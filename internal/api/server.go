package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/config"
	"github.com/mikey/llm-email-writer/internal/ports"
	"github.com/mikey/llm-email-writer/internal/tone"
)

// Server is the HTTP surface of the email writer
type Server struct {
	echo      *echo.Echo
	cfg       config.ServerConfig
	generator ports.EmailGenerator
	tones     *tone.Checker
	metrics   MetricsClient
	logger    *zap.Logger
}

var _ ports.Server = (*Server)(nil)

// NewServer creates the HTTP server and registers its routes
func NewServer(
	cfg config.ServerConfig,
	generator ports.EmailGenerator,
	tones *tone.Checker,
	metrics MetricsClient,
	logger *zap.Logger,
) *Server {
	if tones == nil {
		tones = tone.NewChecker(nil, logger)
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	s := &Server{
		echo:      echo.New(),
		cfg:       cfg,
		generator: generator,
		tones:     tones,
		metrics:   metrics,
		logger:    logger,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Server.ReadHeaderTimeout = 10 * time.Second

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(s.requestLogger())
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.logger.Error("Recovered from panic",
				zap.Error(err),
				zap.String("uri", c.Request().RequestURI),
				zap.ByteString("stack", stack))
			return err
		},
	}))
	e.Use(s.metricsMiddleware)
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		}))
	}
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	s.register(strings.TrimRight(cfg.BasePath, "/"), s.Routes())

	return s
}

func (s *Server) register(basePath string, routes []Route) {
	g := s.echo.Group(basePath)
	for _, r := range routes {
		g.Add(r.Method, r.Path, r.Handler)
		s.logger.Debug("Registered route",
			zap.String("method", r.Method),
			zap.String("path", basePath+r.Path))
	}
}

// Handler exposes the router for embedding or testing
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start begins listening and serves requests in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}
	s.echo.Listener = ln

	s.logger.Info("HTTP server starting",
		zap.String("address", ln.Addr().String()),
		zap.String("base_path", s.cfg.BasePath))

	go func() {
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the server down
func (s *Server) Stop() error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
