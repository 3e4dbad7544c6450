package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/example/gelato/internal/loyalty"
	"github.com/example/gelato/internal/schedule"
	"github.com/example/gelato/internal/store"
	"github.com/example/gelato/internal/zones"
)

// QuoteHandler prices an order for the ordering backend.
type QuoteHandler struct {
	profiles *store.ProfileStore
	loyalty  *store.LoyaltyStore
}

// NewQuoteHandler constructs QuoteHandler.
func NewQuoteHandler(profiles *store.ProfileStore, loyalty *store.LoyaltyStore) *QuoteHandler {
	return &QuoteHandler{profiles: profiles, loyalty: loyalty}
}

type quoteRequest struct {
	Mode     string   `json:"mode"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	City     string   `json:"city"`
	Subtotal float64  `json:"subtotal"`
	UserID   string   `json:"userId"`
}

type quoteResponse struct {
	Mode                schedule.Mode   `json:"mode"`
	Fee                 float64         `json:"fee"`
	Delivery            *zones.Quote    `json:"delivery,omitempty"`
	MembershipLevel     loyalty.Tier    `json:"membershipLevel,omitempty"`
	DiscountPercent     float64         `json:"discountPercent"`
	LoyaltyFreeDelivery bool            `json:"loyaltyFreeDelivery"`
	PaymentMethods      map[string]bool `json:"paymentMethods"`
}

// Quote checks availability, resolves the delivery fee and applies the
// customer's tier perks.
func (h *QuoteHandler) Quote(c *fiber.Ctx) error {
	var req quoteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	mode, err := schedule.ParseMode(req.Mode)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.Subtotal < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "subtotal cannot be negative")
	}

	status := h.profiles.Status(mode)
	if !status.Open {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success":     false,
			"error":       fmt.Sprintf("store is closed for %s", mode),
			"reason":      status.Reason,
			"nextOpening": status.NextOpening,
		})
	}

	resp := quoteResponse{Mode: mode, PaymentMethods: h.profiles.PaymentMethods()}

	if mode == schedule.Delivery {
		if minimum := h.profiles.MinimumOrder(); req.Subtotal < minimum {
			return fiber.NewError(fiber.StatusUnprocessableEntity,
				fmt.Sprintf("subtotal is below the minimum order amount of %.2f", minimum))
		}

		var point *zones.Point
		if req.Lat != nil && req.Lng != nil {
			point = &zones.Point{Lat: *req.Lat, Lng: *req.Lng}
			if !point.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "invalid coordinates")
			}
		}

		quote, err := h.profiles.Resolve(zones.Request{Point: point, City: req.City, Subtotal: req.Subtotal})
		if err != nil {
			return err
		}
		resp.Delivery = &quote
		resp.Fee = quote.Fee
	}

	if req.UserID != "" {
		id, err := parseUserID(req.UserID)
		if err != nil {
			return err
		}
		member, err := h.loyalty.Member(c.UserContext(), id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err == nil {
			resp.MembershipLevel = member.State.Level
			resp.DiscountPercent = member.Perks.DiscountPercent
			if mode == schedule.Delivery && member.Perks.FreeDelivery {
				resp.LoyaltyFreeDelivery = true
				resp.Fee = 0
			}
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    resp,
	})
}
