// Package httpapi exposes the indexer service over a JSON HTTP API with
// basic authentication.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"cpindex/internal/indexer"
)

const shutdownTimeout = 10 * time.Second

// NewServer returns an echo instance with the API routes, request logging
// and panic recovery installed.
func NewServer(h *Handler, logger indexer.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request", "method", v.Method, "path", v.URIPath, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	h.RegisterRoutes(e)
	return e
}

// Serve runs e on addr until ctx is cancelled, then shuts it down.
func Serve(ctx context.Context, e *echo.Echo, addr string) error {
	errc := make(chan error, 1)
	go func() {
		errc <- e.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
