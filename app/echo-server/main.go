package main

import (
	"context"
	"fmt"
	"log"
	"luckyEnvelope/app/echo-server/router"
	"luckyEnvelope/business/envelope"
	"luckyEnvelope/business/visit"
	"luckyEnvelope/internal/middleware"
	"luckyEnvelope/internal/repository/geoip"
	psqlRepo "luckyEnvelope/internal/repository/postgres"
	"luckyEnvelope/internal/rest"
	"luckyEnvelope/pkg/config"
	"luckyEnvelope/pkg/database"
	"luckyEnvelope/pkg/logger"
	"luckyEnvelope/pkg/metrics"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Lucky Envelope API", "version", cfg.App.Version)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	metrics.Init()

	geoResolver := geoip.NewResolver()

	// Init repo
	sessionRepo := psqlRepo.NewSessionRepository(db)
	visitRepo := psqlRepo.NewVisitRepository(db)

	// Init service
	envelopeService := envelope.NewEnvelopeService(sessionRepo, geoResolver, cfg.Geo.LoopbackTestIP)
	visitService := visit.NewVisitService(visitRepo, cfg.Geo.LoopbackTestIP)

	// Init handler
	envelopeHandler := rest.NewEnvelopeHandler(envelopeService)
	visitHandler := rest.NewVisitHandler(visitService)
	healthHandler := rest.NewHealthHandler(db)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = middleware.IPExtractor()

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(middleware.RequestLogger())

	// Setup routes
	api := e.Group("/api")
	router.SetupEnvelopeRoutes(api, envelopeHandler)
	router.SetupVisitRoutes(api, visitHandler)
	router.SetupOpsRoutes(e, healthHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	// Release the connection pool
	if err := database.Close(db); err != nil {
		logger.Error("Database close error", "error", err)
	}

	logger.Info("Server stopped")
}
