// Package server hosts the HTTP endpoints the bot exposes: channel webhooks,
// health and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// Server wraps an echo instance with lifecycle management.
type Server struct {
	echo   *echo.Echo
	addr   string
	logger *slog.Logger
}

// New creates a server that will listen on addr.
func New(addr string, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	return &Server{
		echo:   e,
		addr:   addr,
		logger: logger,
	}
}

// Setup adds middleware and the health endpoint. Call before mounting routes.
func (s *Server) Setup() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(LoggingMiddleware(s.logger))
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

// MountMetrics exposes reg at GET /metrics.
func (s *Server) MountMetrics(reg *prometheus.Registry) {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
}

// Echo returns the underlying router so channels can mount their webhooks.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.addr)
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("stopping HTTP server")
	return s.echo.Shutdown(shutdownCtx)
}
