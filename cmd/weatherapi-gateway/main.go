package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	httpapi "github.com/i474232898/weatherapi-go/internal/api/http"
	"github.com/i474232898/weatherapi-go/internal/config"
	"github.com/i474232898/weatherapi-go/internal/scheduler"
	"github.com/i474232898/weatherapi-go/internal/store"
	"github.com/i474232898/weatherapi-go/internal/weather"
	"github.com/i474232898/weatherapi-go/internal/weatherapi"
)

const serviceName = "weatherapi-gateway"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithField("err", err).Fatal("failed to load config")
	}
	log.SetLevel(cfg.LogLevel)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if cfg.WeatherAPIKey == "" {
		log.Fatal("WEATHERAPI_API_KEY is not set")
	}

	client := weatherapi.NewClient(cfg.WeatherAPIKey,
		weatherapi.WithBaseURL(cfg.WeatherAPIBaseURL),
		weatherapi.WithLogger(log.WithField("component", "weatherapi")),
	)

	alertStore, closeStore := openStore(cfg)
	defer closeStore()

	service := weather.NewService(client, alertStore)

	sched := scheduler.New(cfg.Locations, cfg.WatchInterval, service)
	if err := sched.Start(); err != nil {
		log.WithField("err", err).Fatal("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.RequestTimeout + 5*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
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

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})

	httpapi.RegisterRoutes(app, service, cfg.RequestTimeout)

	go func() {
		log.WithField("port", cfg.Port).Info("listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithField("err", err).Error("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithField("err", err).Error("error during shutdown")
	}
}

func openStore(cfg *config.AppConfig) (weather.Store, func()) {
	if cfg.StoreDriver == config.StoreSQLite {
		s, err := store.NewSQLite(cfg.StorePath, cfg.StoreMaxHistory, cfg.StoreMaxAge)
		if err != nil {
			log.WithFields(log.Fields{"path": cfg.StorePath, "err": err}).Fatal("failed to open alert store")
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.WithField("err", err).Warn("closing alert store")
			}
		}
	}
	return store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge), func() {}
}
