package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/gelato/internal/loyalty"
	"github.com/example/gelato/internal/store"
	"github.com/example/gelato/internal/utils"
)

// LoyaltyHandler manages loyalty settings and customer points.
type LoyaltyHandler struct {
	loyalty *store.LoyaltyStore
}

// NewLoyaltyHandler constructs LoyaltyHandler.
func NewLoyaltyHandler(loyalty *store.LoyaltyStore) *LoyaltyHandler {
	return &LoyaltyHandler{loyalty: loyalty}
}

// GetSettings returns the loyalty settings.
func (h *LoyaltyHandler) GetSettings(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.loyalty.Settings(),
	})
}

// UpdateSettings applies a partial settings update.
func (h *LoyaltyHandler) UpdateSettings(c *fiber.Ctx) error {
	var patch store.SettingsPatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	settings, err := h.loyalty.UpdateSettings(c.UserContext(), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    settings,
	})
}

// ListUsers returns customers ordered by points with pagination and search.
func (h *LoyaltyHandler) ListUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	users, total, err := h.loyalty.ListUsers(c.UserContext(), c.Query("search"), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       users,
		"pagination": pg.Meta(total),
	})
}

func parseUserID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}
	return id, nil
}

type pointsRequest struct {
	Points *int `json:"points"`
}

// SetPoints sets a customer's balance. Gold members stay Gold.
func (h *LoyaltyHandler) SetPoints(c *fiber.Ctx) error {
	id, err := parseUserID(c.Params("id"))
	if err != nil {
		return err
	}

	var req pointsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Points == nil {
		return fiber.NewError(fiber.StatusBadRequest, "points is required")
	}

	member, err := h.loyalty.AdjustPoints(c.UserContext(), id, *req.Points)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    member,
	})
}

type orderRequest struct {
	UserID string   `json:"userId"`
	Total  *float64 `json:"total"`
}

// RecordOrder credits a completed order.
func (h *LoyaltyHandler) RecordOrder(c *fiber.Ctx) error {
	var req orderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	id, err := parseUserID(req.UserID)
	if err != nil {
		return err
	}
	if req.Total == nil {
		return fiber.NewError(fiber.StatusBadRequest, "total is required")
	}

	member, err := h.loyalty.RecordOrder(c.UserContext(), id, *req.Total)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    member,
	})
}

// Tier computes the tier and perks for a points balance.
func (h *LoyaltyHandler) Tier(c *fiber.Ctx) error {
	points, err := strconv.Atoi(c.Query("points"))
	if err != nil || points < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "points must be a non-negative integer")
	}

	settings := h.loyalty.Settings()
	tier := loyalty.TierForPoints(points, settings)
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"points":          points,
			"membershipLevel": tier,
			"perks":           loyalty.PerksFor(tier, settings),
			"redeemable":      loyalty.Redeemable(points, settings),
		},
	})
}
