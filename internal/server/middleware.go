package server

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// maxURILogLen is the maximum length for logged request URIs before truncation.
const maxURILogLen = 200

// slowRequestThreshold is the duration above which requests are logged at WARN level.
// Webhooks wait for a full model round trip, so this is generous.
const slowRequestThreshold = 10 * time.Second

// LoggingMiddleware logs every request with timing. Slow requests and
// server errors are logged at WARN and ERROR.
func LoggingMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			duration := time.Since(start)
			status := c.Response().Status

			attrs := []any{
				"method", c.Request().Method,
				"uri", truncate(c.Request().RequestURI, maxURILogLen),
				"status", status,
				"duration_ms", duration.Milliseconds(),
			}

			switch {
			case err != nil || status >= 500:
				if err != nil {
					attrs = append(attrs, "error", err.Error())
				}
				logger.Error("request failed", attrs...)
			case duration > slowRequestThreshold:
				logger.Warn("slow request", attrs...)
			default:
				logger.Debug("request completed", attrs...)
			}

			return nil
		}
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
