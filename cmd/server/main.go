package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/gelato/internal/config"
	"github.com/example/gelato/internal/database"
	"github.com/example/gelato/internal/handlers"
	"github.com/example/gelato/internal/routes"
	"github.com/example/gelato/internal/seed"
	"github.com/example/gelato/internal/services"
	"github.com/example/gelato/internal/store"
	"github.com/example/gelato/internal/zones"
)

func main() {
	cfg := config.Load()

	var repo store.Repository
	if cfg.DatabaseURL == config.MemoryDatabase {
		log.Println("Using in-memory repository; data is lost on restart")
		repo = store.NewMemoryRepository()
	} else {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		if err := store.Migrate(db); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
		repo = store.NewGormRepository(db)
	}

	distance, err := zones.DistanceMethod(cfg.DistanceMethod)
	if err != nil {
		log.Fatalf("invalid DISTANCE_METHOD: %v", err)
	}

	seedFile, err := seed.Load(cfg.SeedFile)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}

	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	profiles := store.NewProfileStore(repo,
		store.WithDistance(distance),
		store.WithLocation(cfg.StoreLocation),
		store.WithNotifier(telegramService),
	)
	if err := profiles.Load(ctx, seedFile.Profile()); err != nil {
		log.Fatalf("failed to load store profile: %v", err)
	}
	loyaltyStore := store.NewLoyaltyStore(repo, telegramService)
	if err := loyaltyStore.Load(ctx, seedFile.LoyaltySettings()); err != nil {
		log.Fatalf("failed to load loyalty settings: %v", err)
	}
	if err := handlers.EnsureAdmin(ctx, repo, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to create bootstrap admin: %v", err)
	}
	cancel()

	geocoder := services.NewGeocodingService(services.GeocoderConfig{
		BaseURL:      cfg.GeocoderBaseURL,
		UserAgent:    cfg.GeocoderUserAgent,
		CountryCodes: cfg.GeocoderCountryCodes,
		Language:     cfg.GeocoderLanguage,
		Limit:        cfg.GeocoderLimit,
		Timeout:      cfg.GeocoderTimeout,
	})

	app := fiber.New(fiber.Config{
		AppName:      "Gelato Delivery Backend",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, routes.Deps{
		Config:   cfg,
		Repo:     repo,
		Profiles: profiles,
		Loyalty:  loyaltyStore,
		Geocoder: geocoder,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
