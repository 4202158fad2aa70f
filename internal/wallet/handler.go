package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tuma-pay/tuma_pay/internal/backend"
	"github.com/tuma-pay/tuma_pay/internal/payment"
	"github.com/tuma-pay/tuma_pay/internal/session"
	"github.com/tuma-pay/tuma_pay/internal/validate"
)

// Handler exposes the wallet home view and deposit initiation.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Home returns balances and transaction history for the authenticated
// identity.
func (h *Handler) Home(c *fiber.Ctx) error {
	identity, err := session.ContextOracle{}.Current(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "no active session")
	}
	view, err := h.service.Home(c.UserContext(), identity)
	if err != nil {
		return backendError(err)
	}
	return c.Status(http.StatusOK).JSON(view)
}

type depositRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
}

// Deposit initiates an M-Pesa push for the stored phone number.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	identity, err := session.ContextOracle{}.Current(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "no active session")
	}
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, payment.ErrBadAmount.Error())
	}
	if err := h.service.Deposit(c.UserContext(), identity.ID, req.AmountCents); err != nil {
		switch {
		case errors.Is(err, ErrNoPhone):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, payment.ErrBadAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return backendError(err)
		}
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"initiated": true})
}

func backendError(err error) error {
	switch {
	case errors.Is(err, backend.ErrTimeout):
		return fiber.NewError(http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, backend.ErrUnreachable), errors.Is(err, backend.ErrServer):
		return fiber.NewError(http.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
