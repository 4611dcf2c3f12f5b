package rest

import (
	"context"
	"errors"
	"luckyEnvelope/domain"
	"luckyEnvelope/pkg/logger"
	"luckyEnvelope/pkg/metrics"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	EnvelopeHandler struct {
		validate        *validator.Validate
		envelopeService EnvelopeService
		timeout         time.Duration
	}

	EnvelopeService interface {
		Assign(ctx context.Context, ip, userAgent, name string) (domain.EnvelopeAssignment, error)
		RecordPick(ctx context.Context, ip, userAgent string, req domain.PickRequest) (domain.PickResult, error)
		Draw(ctx context.Context, ip string) (domain.EnvelopeAssignment, error)
	}

	RecordPickRequest struct {
		Name             string         `json:"name" validate:"omitempty,max=100"`
		SelectedEnvelope *int           `json:"selectedEnvelope" validate:"omitempty,min=0,max=2"`
		Amount           *int64         `json:"amount" validate:"omitempty,min=0"`
		ClientHints      map[string]any `json:"clientHints"`
	}

	EnvelopesResponse struct {
		OK           bool    `json:"ok"`
		Amounts      []int64 `json:"amounts"`
		Country      string  `json:"country"`
		HasPicked    bool    `json:"has_picked"`
		PickedAmount *int64  `json:"picked_amount"`
	}

	RecordPickResponse struct {
		OK      bool   `json:"ok"`
		ID      uint   `json:"id"`
		Country string `json:"country"`
	}

	AlreadyPickedResponse struct {
		OK           bool   `json:"ok"`
		Error        string `json:"error"`
		PickedAmount *int64 `json:"picked_amount"`
	}
)

func NewEnvelopeHandler(envelopeService EnvelopeService) *EnvelopeHandler {
	return &EnvelopeHandler{
		validate:        validator.New(),
		envelopeService: envelopeService,
		timeout:         10 * time.Second,
	}
}

// GetEnvelopes assigns amounts to each envelope at start. Amounts are
// pre-assigned per session, not random at pick time, so the same visitor
// gets the same amounts on refresh.
func (h *EnvelopeHandler) GetEnvelopes(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.EnvelopeAssignLatency.Observe(time.Since(start).Seconds())
	}()
	metrics.EnvelopeAssignTotal.Inc()

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	assignment, err := h.envelopeService.Assign(ctx, c.RealIP(), c.Request().UserAgent(), c.QueryParam("name"))
	if err != nil {
		logger.Error("Failed to assign envelopes", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"ok": false})
	}

	return c.JSON(http.StatusOK, EnvelopesResponse{
		OK:           true,
		Amounts:      assignment.Amounts,
		Country:      assignment.Country,
		HasPicked:    assignment.HasPicked,
		PickedAmount: assignment.PickedAmount,
	})
}

// RecordPick records the visitor's envelope pick with their info. Rejects
// with 409 if the session already picked, echoing the original amount.
func (h *EnvelopeHandler) RecordPick(c echo.Context) error {
	var request RecordPickRequest

	if err := c.Bind(&request); err != nil {
		logger.Error("Invalid request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validate.Struct(&request); err != nil {
		logger.Error("Failed to validate record pick request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.envelopeService.RecordPick(ctx, c.RealIP(), c.Request().UserAgent(), domain.PickRequest{
		Name:             request.Name,
		SelectedEnvelope: request.SelectedEnvelope,
		Amount:           request.Amount,
		ClientHints:      request.ClientHints,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyPicked) {
			return c.JSON(http.StatusConflict, AlreadyPickedResponse{
				OK:           false,
				Error:        "Already picked",
				PickedAmount: result.PickedAmount,
			})
		}

		logger.Error("Failed to record pick", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"ok": false})
	}

	return c.JSON(http.StatusOK, RecordPickResponse{
		OK:      true,
		ID:      result.VisitID,
		Country: result.Country,
	})
}

// LuckyMoney is the legacy stateless draw: every call reshuffles, nothing
// is persisted.
func (h *EnvelopeHandler) LuckyMoney(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	assignment, err := h.envelopeService.Draw(ctx, c.RealIP())
	if err != nil {
		logger.Error("Failed to draw lucky money", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"ok": false})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"ok":      true,
		"amounts": assignment.Amounts,
		"country": assignment.Country,
	})
}
