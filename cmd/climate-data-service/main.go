package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "github.com/tonylquintanilla/palomas-orrery-sub004/internal/api/http"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/cache"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/climate"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/climate/providers"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/config"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/scheduler"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("failed to create data dir %s: %v", cfg.DataDir, err)
	}

	// Shared HTTP client for outbound dataset fetches.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Guarded cache writer shared across all dataset families.
	writer := cache.NewWriter(cfg.Safety)

	// In-memory document cache in front of the JSON files.
	memStore := store.NewMemoryStore()

	// One provider per enabled dataset family, each with resilience
	// (backoff + circuit breaker).
	var provs []climate.Provider
	for _, d := range cfg.Datasets {
		switch d {
		case climate.DatasetCO2:
			provs = append(provs, providers.NewCO2Provider(httpClient))
		case climate.DatasetTemperature:
			provs = append(provs, providers.NewTemperatureProvider(httpClient))
		case climate.DatasetSeaIce:
			provs = append(provs, providers.NewSeaIceProvider(httpClient))
		case climate.DatasetSeaLevel:
			provs = append(provs, providers.NewSeaLevelProvider(httpClient))
		case climate.DatasetOceanPH:
			provs = append(provs, providers.NewOceanPHProvider(httpClient))
		}
	}

	// Core service orchestrating providers, writer and store.
	service := climate.NewService(cfg.DataDir, writer, memStore, provs)

	// Scheduler that periodically refreshes all datasets.
	sched := scheduler.New(cfg.FetchInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "climate-data-service",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
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
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "climate-data-service",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
