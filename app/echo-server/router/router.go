package router

import (
	"luckyEnvelope/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupEnvelopeRoutes(api *echo.Group, handler *rest.EnvelopeHandler) {
	api.GET("/envelopes", handler.GetEnvelopes)
	api.POST("/record-pick", handler.RecordPick)

	// Legacy stateless flow kept for older clients.
	api.GET("/lucky-money", handler.LuckyMoney)
}

func SetupVisitRoutes(api *echo.Group, handler *rest.VisitHandler) {
	api.GET("/visits", handler.GetLatestVisits)

	// Legacy form flow kept for older clients.
	api.POST("/track", handler.Track)
}

func SetupOpsRoutes(e *echo.Echo, healthHandler *rest.HealthHandler) {
	e.GET("/healthz", healthHandler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
