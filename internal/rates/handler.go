package rates

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the exchange-rates screen data.
type Handler struct {
	service *Service
}

// NewHandler builds a rates handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Current returns the cached rate snapshot, refreshing when stale.
func (h *Handler) Current(c *fiber.Ctx) error {
	snap, err := h.service.Current(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	}
	return c.Status(http.StatusOK).JSON(snap)
}
