package handlers

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/gelato/internal/middleware"
	"github.com/example/gelato/internal/services"
)

// GeocodeHandler resolves place names for zone editing. Each administrator
// gets one session, so a newer search supersedes their older one.
type GeocodeHandler struct {
	searcher services.Searcher

	mu       sync.Mutex
	sessions map[uuid.UUID]*services.GeocodeSession
}

// NewGeocodeHandler constructs GeocodeHandler.
func NewGeocodeHandler(searcher services.Searcher) *GeocodeHandler {
	return &GeocodeHandler{
		searcher: searcher,
		sessions: make(map[uuid.UUID]*services.GeocodeSession),
	}
}

func (h *GeocodeHandler) session(adminID uuid.UUID) *services.GeocodeSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[adminID]
	if !ok {
		s = services.NewGeocodeSession(h.searcher)
		h.sessions[adminID] = s
	}
	return s
}

// Search returns place candidates for the q query parameter.
func (h *GeocodeHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "q is required")
	}

	adminID, _ := middleware.GetCurrentAdminID(c)
	places, err := h.session(adminID).Search(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    places,
	})
}
