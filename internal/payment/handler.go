package payment

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tuma-pay/tuma_pay/internal/backend"
	"github.com/tuma-pay/tuma_pay/internal/pin"
	"github.com/tuma-pay/tuma_pay/internal/session"
	"github.com/tuma-pay/tuma_pay/internal/validate"
)

// Handler exposes the transfer flow over HTTP. Every route requires an
// authenticated session; the flow itself is keyed by identity.
type Handler struct {
	service *Service
}

// NewHandler builds a payment flow handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type flowView struct {
	Step        string `json:"step"`
	Recipient   string `json:"recipient,omitempty"`
	AmountCents int64  `json:"amount_cents,omitempty"`
}

func viewOf(flow Flow) flowView {
	return flowView{Step: string(flow.Step), Recipient: flow.Recipient, AmountCents: flow.AmountCents}
}

func flowError(err error) error {
	switch {
	case errors.Is(err, ErrNoFlow):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrWrongStep):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrBadAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, pin.ErrRejected):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, backend.ErrTimeout):
		return fiber.NewError(http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, backend.ErrUnreachable), errors.Is(err, backend.ErrServer):
		return fiber.NewError(http.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

func identityOf(c *fiber.Ctx) (session.Identity, error) {
	identity, err := session.ContextOracle{}.Current(c.UserContext())
	if err != nil {
		return session.Identity{}, fiber.NewError(http.StatusUnauthorized, "no active session")
	}
	return identity, nil
}

// Start opens a fresh transfer flow, discarding any previous one.
func (h *Handler) Start(c *fiber.Ctx) error {
	identity, err := identityOf(c)
	if err != nil {
		return err
	}
	flow := h.service.Start(identity.ID, identity.Name)
	return c.Status(http.StatusCreated).JSON(viewOf(flow))
}

// Current returns the in-progress flow snapshot.
func (h *Handler) Current(c *fiber.Ctx) error {
	identity, err := identityOf(c)
	if err != nil {
		return err
	}
	flow, err := h.service.Current(identity.ID)
	if err != nil {
		return flowError(err)
	}
	return c.Status(http.StatusOK).JSON(viewOf(flow))
}

// Recipients proxies recipient search to the backend.
func (h *Handler) Recipients(c *fiber.Ctx) error {
	if _, err := identityOf(c); err != nil {
		return err
	}
	query := c.Query("q")
	if query == "" {
		return c.Status(http.StatusOK).JSON(fiber.Map{"recipients": []backend.Recipient{}})
	}
	recipients, err := h.service.Search(c.UserContext(), query)
	if err != nil {
		return flowError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"recipients": recipients})
}

type recipientRequest struct {
	Name string `json:"name" validate:"required"`
}

// SelectRecipient records the transfer target.
func (h *Handler) SelectRecipient(c *fiber.Ctx) error {
	identity, err := identityOf(c)
	if err != nil {
		return err
	}
	var req recipientRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	flow, err := h.service.SelectRecipient(identity.ID, req.Name)
	if err != nil {
		return flowError(err)
	}
	return c.Status(http.StatusOK).JSON(viewOf(flow))
}

type amountRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
}

// EnterAmount records the display-currency amount.
func (h *Handler) EnterAmount(c *fiber.Ctx) error {
	identity, err := identityOf(c)
	if err != nil {
		return err
	}
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, ErrBadAmount.Error())
	}
	flow, err := h.service.EnterAmount(identity.ID, req.AmountCents)
	if err != nil {
		return flowError(err)
	}
	return c.Status(http.StatusOK).JSON(viewOf(flow))
}

// Confirm acknowledges the summary and moves the flow to the PIN gate.
func (h *Handler) Confirm(c *fiber.Ctx) error {
	identity, err := identityOf(c)
	if err != nil {
		return err
	}
	flow, err := h.service.ConfirmDetails(identity.ID)
	if err != nil {
		return flowError(err)
	}
	return c.Status(http.StatusOK).JSON(viewOf(flow))
}

type pinRequest struct {
	Pin string `json:"pin" validate:"required,len=4,numeric"`
}

// SubmitPIN re-validates the PIN and releases the transfer on a match. A
// rejection keeps the flow on the pin step; the client clears the input and
// retries immediately.
func (h *Handler) SubmitPIN(c *fiber.Ctx) error {
	identity, err := identityOf(c)
	if err != nil {
		return err
	}
	var req pinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusUnauthorized, pin.ErrRejected.Error())
	}
	flow, err := h.service.SubmitPIN(c.UserContext(), identity.ID, req.Pin)
	if err != nil {
		return flowError(err)
	}
	return c.Status(http.StatusOK).JSON(viewOf(flow))
}

// Back steps the flow one screen backward.
func (h *Handler) Back(c *fiber.Ctx) error {
	identity, err := identityOf(c)
	if err != nil {
		return err
	}
	flow, err := h.service.Back(identity.ID)
	if err != nil {
		return flowError(err)
	}
	return c.Status(http.StatusOK).JSON(viewOf(flow))
}

// Close discards the in-progress flow.
func (h *Handler) Close(c *fiber.Ctx) error {
	identity, err := identityOf(c)
	if err != nil {
		return err
	}
	h.service.Close(identity.ID)
	return c.SendStatus(http.StatusNoContent)
}
