package rest

import (
	"context"
	"luckyEnvelope/pkg/logger"
	"net/http"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{
		db: db,
	}
}

// Health reports liveness and pings the database.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err != nil {
		logger.Error("Failed to get database handle", err)
		return c.JSON(http.StatusServiceUnavailable, ResponseError{Message: "database unavailable"})
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("Database ping failed", err)
		return c.JSON(http.StatusServiceUnavailable, ResponseError{Message: "database unavailable"})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]string{"status": "up"}))
}
