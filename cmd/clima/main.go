package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/clima/internal/api/http"
	"github.com/i474232898/clima/internal/config"
	"github.com/i474232898/clima/internal/display"
	"github.com/i474232898/clima/internal/location"
	"github.com/i474232898/clima/internal/logging"
	"github.com/i474232898/clima/internal/scheduler"
	"github.com/i474232898/clima/internal/store"
	"github.com/i474232898/clima/internal/weather"
	"github.com/i474232898/clima/internal/weather/providers"
)

func main() {
	// Load configuration; a missing API key stops the process here.
	cfg, err := config.Load()
	if err != nil {
		logging.New("clima", "info").Fatal("failed to load config", zap.Error(err))
	}

	log := logging.New(cfg.AppName, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory fetch journal with configured retention.
	journal := store.NewMemoryStore(cfg.JournalMaxHistory, cfg.JournalMaxAge)

	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherBaseURL, cfg.OpenWeatherAPIKey)

	// All screen updates run on this queue.
	mainQueue := weather.NewMainQueue(64)
	defer mainQueue.Close()

	ctrl := display.New(mainQueue, provider, locationSource(cfg.Location, log), journal, log)

	// Like the app on first display: show current-location weather.
	ctrl.RefreshLocation()

	sched := scheduler.New(cfg.RefreshInterval, ctrl, log)
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   cfg.AppName,
			"scheduler": sched.Running(),
		})
	})

	httpapi.RegisterRoutes(app, ctrl, journal)

	go func() {
		log.Info("http server listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}

	// No new refreshes may start once we wait on in-flight fetches.
	sched.Stop()
	// In-flight fetches cannot be cancelled; let them land before exiting.
	ctrl.Wait()
}

// locationSource picks the current-location source from configuration:
// denied permission, fixed coordinates, a geocoded address, or nothing.
func locationSource(cfg config.LocationConfig, log *zap.Logger) location.Source {
	switch {
	case !cfg.PermissionGranted:
		return location.Denied{}
	case cfg.HasCoordinates():
		return location.Static{Coordinates: weather.Coordinates{
			Latitude:  *cfg.Latitude,
			Longitude: *cfg.Longitude,
		}}
	case cfg.City != "" && cfg.GeocoderAPIKey != "":
		return location.NewGeocoded(cfg.GeocoderAPIKey, cfg.City, cfg.Country)
	default:
		log.Warn("no location configured; current-location requests will fail")
		return location.Unknown{}
	}
}
