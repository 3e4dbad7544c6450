package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/gelato/internal/schedule"
	"github.com/example/gelato/internal/store"
)

// StoreProfileHandler manages hours, manual overrides and payment toggles.
type StoreProfileHandler struct {
	profiles *store.ProfileStore
}

// NewStoreProfileHandler constructs StoreProfileHandler.
func NewStoreProfileHandler(profiles *store.ProfileStore) *StoreProfileHandler {
	return &StoreProfileHandler{profiles: profiles}
}

// Status reports whether pickup and delivery accept orders right now.
func (h *StoreProfileHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"now":            h.profiles.Now(),
			"pickup":         h.profiles.Status(schedule.Pickup),
			"delivery":       h.profiles.Status(schedule.Delivery),
			"paymentMethods": h.profiles.PaymentMethods(),
		},
	})
}

// GetProfile returns the whole store profile.
func (h *StoreProfileHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.profiles.Profile()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    profile,
	})
}

// UpdateHours replaces the weekly schedule of the mode in the path.
func (h *StoreProfileHandler) UpdateHours(c *fiber.Ctx) error {
	mode, err := schedule.ParseMode(c.Params("mode"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var hours schedule.WeeklyHours
	if err := c.BodyParser(&hours); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.profiles.SetHours(c.UserContext(), mode, hours); err != nil {
		return err
	}
	return h.GetProfile(c)
}

type closedRequest struct {
	Closed *bool `json:"closed"`
}

func parseClosed(c *fiber.Ctx) (bool, error) {
	var req closedRequest
	if err := c.BodyParser(&req); err != nil {
		return false, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Closed == nil {
		return false, fiber.NewError(fiber.StatusBadRequest, "closed is required")
	}
	return *req.Closed, nil
}

// SetManualClosed toggles the master override.
func (h *StoreProfileHandler) SetManualClosed(c *fiber.Ctx) error {
	closed, err := parseClosed(c)
	if err != nil {
		return err
	}
	if err := h.profiles.SetManualClosed(c.UserContext(), closed); err != nil {
		return err
	}
	return h.Status(c)
}

// SetDeliveryManualClosed toggles the delivery-only override.
func (h *StoreProfileHandler) SetDeliveryManualClosed(c *fiber.Ctx) error {
	closed, err := parseClosed(c)
	if err != nil {
		return err
	}
	if err := h.profiles.SetDeliveryManualClosed(c.UserContext(), closed); err != nil {
		return err
	}
	return h.Status(c)
}

// SetPaymentMethods merges payment method toggles.
func (h *StoreProfileHandler) SetPaymentMethods(c *fiber.Ctx) error {
	var methods map[string]bool
	if err := c.BodyParser(&methods); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.profiles.SetPaymentMethods(c.UserContext(), methods); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.profiles.PaymentMethods(),
	})
}

// PatchProfile merges top-level settings in one write. Null members are
// ignored.
func (h *StoreProfileHandler) PatchProfile(c *fiber.Ctx) error {
	var patch map[string]any
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.profiles.ApplyPatch(c.UserContext(), patch); err != nil {
		return err
	}
	return h.GetProfile(c)
}
