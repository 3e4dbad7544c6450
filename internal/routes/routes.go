package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/gelato/internal/config"
	"github.com/example/gelato/internal/handlers"
	"github.com/example/gelato/internal/middleware"
	"github.com/example/gelato/internal/services"
	"github.com/example/gelato/internal/store"
)

// Deps are the loaded services the routes need.
type Deps struct {
	Config   *config.Config
	Repo     store.Repository
	Profiles *store.ProfileStore
	Loyalty  *store.LoyaltyStore
	Geocoder services.Searcher
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, d Deps) {
	authHandler := handlers.NewAuthHandler(d.Repo, d.Config)
	zoneHandler := handlers.NewZoneHandler(d.Profiles)
	profileHandler := handlers.NewStoreProfileHandler(d.Profiles)
	geocodeHandler := handlers.NewGeocodeHandler(d.Geocoder)
	loyaltyHandler := handlers.NewLoyaltyHandler(d.Loyalty)
	quoteHandler := handlers.NewQuoteHandler(d.Profiles, d.Loyalty)

	requireAdmin := middleware.AdminAuth(d.Config.JWTSecret)

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)

	// Public routes
	api.Get("/store/status", profileHandler.Status)
	api.Post("/delivery/quote", quoteHandler.Quote)
	api.Get("/loyalty/tier", loyaltyHandler.Tier)
	api.Post("/loyalty/orders", requireAdmin, loyaltyHandler.RecordOrder)

	// Admin routes
	admin := api.Group("/admin", requireAdmin)

	admin.Get("/geocode", geocodeHandler.Search)

	zones := admin.Group("/zones")
	zones.Get("/", zoneHandler.ListZones)
	zones.Post("/", zoneHandler.CreateZone)
	zones.Put("/order", zoneHandler.ReorderZones)
	zones.Put("/:id", zoneHandler.UpdateZone)
	zones.Delete("/:id", zoneHandler.DeleteZone)

	cityFees := admin.Group("/city-fees")
	cityFees.Get("/", zoneHandler.ListCityFees)
	cityFees.Post("/", zoneHandler.CreateCityFee)
	cityFees.Put("/:id", zoneHandler.UpdateCityFee)
	cityFees.Delete("/:id", zoneHandler.DeleteCityFee)

	profile := admin.Group("/store-profile")
	profile.Get("/", profileHandler.GetProfile)
	profile.Patch("/", profileHandler.PatchProfile)
	profile.Put("/hours/:mode", profileHandler.UpdateHours)
	profile.Put("/manual-closed", profileHandler.SetManualClosed)
	profile.Put("/delivery-manual-closed", profileHandler.SetDeliveryManualClosed)
	profile.Put("/payment-methods", profileHandler.SetPaymentMethods)

	admin.Get("/loyalty/settings", loyaltyHandler.GetSettings)
	admin.Patch("/loyalty/settings", loyaltyHandler.UpdateSettings)
	admin.Get("/users", loyaltyHandler.ListUsers)
	admin.Put("/users/:id/points", loyaltyHandler.SetPoints)
}
