package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/gelato/internal/services"
	"github.com/example/gelato/internal/store"
	"github.com/example/gelato/internal/zones"
)

// ErrorHandler renders every error as {"success": false, "error": msg} and
// maps domain errors to statuses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	var ve *store.ValidationError
	switch {
	case errors.As(err, &fe):
		code, msg = fe.Code, fe.Message
	case errors.As(err, &ve):
		code, msg = fiber.StatusBadRequest, ve.Msg
	case errors.Is(err, store.ErrNotFound):
		code, msg = fiber.StatusNotFound, "not found"
	case errors.Is(err, zones.ErrDeliveryUnavailable):
		code, msg = fiber.StatusUnprocessableEntity, zones.ErrDeliveryUnavailable.Error()
	case errors.Is(err, services.ErrPlaceNotFound):
		code, msg = fiber.StatusNotFound, services.ErrPlaceNotFound.Error()
	case errors.Is(err, services.ErrSearchSuperseded):
		code, msg = fiber.StatusConflict, services.ErrSearchSuperseded.Error()
	case errors.Is(err, services.ErrGeocodingFailed):
		code, msg = fiber.StatusBadGateway, services.ErrGeocodingFailed.Error()
	case errors.Is(err, store.ErrNotLoaded):
		code, msg = fiber.StatusServiceUnavailable, store.ErrNotLoaded.Error()
	}

	if code >= fiber.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}
