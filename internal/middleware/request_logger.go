package middleware

import (
	"errors"
	"luckyEnvelope/pkg/logger"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestLogger tags every request with a fresh ID and writes one access log
// line after the handler returns.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := uuid.NewString()
			c.Set("request_id", requestID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			start := time.Now()
			err := next(c)

			logger.Info("request",
				"request_id", requestID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", statusFor(err, c.Response().Status),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", c.RealIP(),
			)

			return err
		}
	}
}

// statusFor resolves the status an errored request will be answered with;
// the central error handler only writes the response after this middleware
// returns, so the committed status is stale when err is non-nil.
func statusFor(err error, committed int) int {
	if err == nil {
		return committed
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return http.StatusInternalServerError
}
