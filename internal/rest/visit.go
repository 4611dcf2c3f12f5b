package rest

import (
	"context"
	"errors"
	"luckyEnvelope/domain"
	"luckyEnvelope/pkg/logger"
	"net/http"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	VisitHandler struct {
		validate     *validator.Validate
		visitService VisitService
		timeout      time.Duration
	}

	VisitService interface {
		Latest(ctx context.Context) ([]domain.Visit, error)
		Track(ctx context.Context, ip, userAgent string, req domain.TrackRequest) (domain.Visit, error)
	}

	TrackRequest struct {
		Name        string         `json:"name" validate:"required,max=100"`
		Amount      *int64         `json:"amount" validate:"omitempty,min=0"`
		ClientHints map[string]any `json:"clientHints"`
	}
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

func NewVisitHandler(visitService VisitService) *VisitHandler {
	return &VisitHandler{
		validate:     validator.New(),
		visitService: visitService,
		timeout:      10 * time.Second,
	}
}

// GetLatestVisits returns the newest 50 visit log rows as raw rows,
// newest first, unfiltered.
func (h *VisitHandler) GetLatestVisits(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	visits, err := h.visitService.Latest(ctx)
	if err != nil {
		logger.Error("Failed to get latest visits", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"ok": false})
	}

	return c.JSON(http.StatusOK, visits)
}

// Track is the legacy form flow: log a visit without touching sessions.
func (h *VisitHandler) Track(c echo.Context) error {
	var request TrackRequest

	if err := c.Bind(&request); err != nil {
		logger.Error("Invalid request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validate.Struct(&request); err != nil {
		logger.Error("Failed to validate track request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	visit, err := h.visitService.Track(ctx, c.RealIP(), c.Request().UserAgent(), domain.TrackRequest{
		Name:        request.Name,
		Amount:      request.Amount,
		ClientHints: request.ClientHints,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNameRequired) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}

		logger.Error("Failed to track visit", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"ok": false})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(visit))
}
