package middleware

import (
	"errors"
	"luckyEnvelope/pkg/logger"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorHandler is the central echo error handler. Persistence and other
// internal failures are logged with detail but surfaced as a bare 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
	}

	if code >= http.StatusInternalServerError {
		logger.Error("Unhandled request error", err)
	}

	if jsonErr := c.JSON(code, map[string]any{"ok": false}); jsonErr != nil {
		logger.Error("Failed to write error response", jsonErr)
	}
}
