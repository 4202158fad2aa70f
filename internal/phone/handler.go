package phone

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tuma-pay/tuma_pay/internal/session"
	"github.com/tuma-pay/tuma_pay/internal/validate"
)

// Handler exposes phone capture over HTTP.
type Handler struct {
	capture *Capture
}

// NewHandler builds a phone capture handler.
func NewHandler(capture *Capture) *Handler {
	return &Handler{capture: capture}
}

type submitRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// Submit normalizes and stores the entered phone number for the identity.
func (h *Handler) Submit(c *fiber.Ctx) error {
	identity, err := session.ContextOracle{}.Current(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "no active session")
	}

	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	number, err := h.capture.Submit(c.UserContext(), identity.ID, req.Phone)
	if errors.Is(err, ErrInvalid) {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"phoneNumber": number})
}
