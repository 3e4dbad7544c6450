package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/gelato/internal/models"
	"github.com/example/gelato/internal/store"
)

// ZoneHandler manages delivery zones and city fee overrides.
type ZoneHandler struct {
	profiles *store.ProfileStore
}

// NewZoneHandler constructs ZoneHandler.
func NewZoneHandler(profiles *store.ProfileStore) *ZoneHandler {
	return &ZoneHandler{profiles: profiles}
}

// ListZones returns zones in match order together with any skipped by
// normalization.
func (h *ZoneHandler) ListZones(c *fiber.Ctx) error {
	list, err := h.profiles.Zones()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"data":     list,
		"warnings": h.profiles.Warnings(),
	})
}

// CreateZone appends a zone.
func (h *ZoneHandler) CreateZone(c *fiber.Ctx) error {
	var input models.DeliveryZone
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	input.ID = ""

	zone, err := h.profiles.AddZone(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    zone,
	})
}

// UpdateZone applies a partial update. Omitted or null fields keep their
// stored value.
func (h *ZoneHandler) UpdateZone(c *fiber.Ctx) error {
	var patch store.ZonePatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	zone, err := h.profiles.UpdateZone(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    zone,
	})
}

// DeleteZone removes a zone.
func (h *ZoneHandler) DeleteZone(c *fiber.Ctx) error {
	if err := h.profiles.DeleteZone(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// ReorderZones sets the match order.
func (h *ZoneHandler) ReorderZones(c *fiber.Ctx) error {
	var req reorderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.profiles.ReorderZones(c.UserContext(), req.IDs); err != nil {
		return err
	}
	list, err := h.profiles.Zones()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    list,
	})
}

// ListCityFees returns the city overrides.
func (h *ZoneHandler) ListCityFees(c *fiber.Ctx) error {
	fees, err := h.profiles.CityFees()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fees,
	})
}

// CreateCityFee appends a city override.
func (h *ZoneHandler) CreateCityFee(c *fiber.Ctx) error {
	var input models.CityFee
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	input.ID = ""

	fee, err := h.profiles.AddCityFee(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    fee,
	})
}

// UpdateCityFee applies a partial update to a city override.
func (h *ZoneHandler) UpdateCityFee(c *fiber.Ctx) error {
	var patch store.CityFeePatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	fee, err := h.profiles.UpdateCityFee(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fee,
	})
}

// DeleteCityFee removes a city override.
func (h *ZoneHandler) DeleteCityFee(c *fiber.Ctx) error {
	if err := h.profiles.DeleteCityFee(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
