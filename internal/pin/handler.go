package pin

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/tuma-pay/tuma_pay/internal/session"
	"github.com/tuma-pay/tuma_pay/internal/validate"
)

// Provisioner creates the remote wallet once the PIN gate is complete.
type Provisioner interface {
	Provision(ctx context.Context, identity session.Identity, pinValue string) error
}

// Handler exposes the PIN gate HTTP endpoints. In-progress two-step creation
// attempts live only in process memory, mirroring the rule that nothing is
// persisted before confirmation.
type Handler struct {
	manager     *Manager
	registry    *session.Registry
	provisioner Provisioner

	attempts sync.Map // identityID -> Attempt
}

// NewHandler builds a PIN gate handler.
func NewHandler(manager *Manager, registry *session.Registry, provisioner Provisioner) *Handler {
	return &Handler{manager: manager, registry: registry, provisioner: provisioner}
}

type entryRequest struct {
	Pin string `json:"pin" validate:"required,len=4,numeric"`
}

// Begin opens a two-step creation attempt with the first entry.
func (h *Handler) Begin(c *fiber.Ctx) error {
	identity, err := session.ContextOracle{}.Current(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "no active session")
	}

	var req entryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, ErrMalformed.Error())
	}

	attempt, err := h.manager.Create(identity.ID, req.Pin)
	if errors.Is(err, ErrMalformed) {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	h.attempts.Store(identity.ID, attempt)
	return c.Status(http.StatusOK).JSON(fiber.Map{"step": "confirm"})
}

// Confirm closes the attempt with the second entry. On a match the PIN is
// persisted and the remote wallet is provisioned; a mismatch discards the
// attempt entirely so the user restarts from the first entry.
func (h *Handler) Confirm(c *fiber.Ctx) error {
	identity, err := session.ContextOracle{}.Current(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "no active session")
	}

	var req entryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	value, ok := h.attempts.Load(identity.ID)
	if !ok {
		return fiber.NewError(http.StatusConflict, "no pin creation in progress")
	}
	attempt := value.(Attempt)

	if err := h.manager.Confirm(c.UserContext(), attempt, req.Pin); err != nil {
		switch {
		case errors.Is(err, ErrMismatch), errors.Is(err, ErrMalformed):
			h.attempts.Delete(identity.ID)
			return fiber.NewError(http.StatusConflict, ErrMismatch.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	h.attempts.Delete(identity.ID)

	if h.provisioner != nil {
		if err := h.provisioner.Provision(c.UserContext(), identity, req.Pin); err != nil {
			// The local gate is complete either way; the wallet is provisioned
			// again on the next sign-in if the backend was unreachable.
			h.manager.logger.Warn("wallet provisioning failed", "identity", identity.ID, "error", err)
		}
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"created": true})
}

// Verify checks a candidate against the stored PIN and marks the session
// verified on a match. Attempts are unlimited; a rejection carries no
// lockout state.
func (h *Handler) Verify(c *fiber.Ctx) error {
	identity, err := session.ContextOracle{}.Current(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "no active session")
	}

	var req entryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.manager.Verify(c.UserContext(), identity.ID, req.Pin); err != nil {
		if errors.Is(err, ErrRejected) {
			return fiber.NewError(http.StatusUnauthorized, ErrRejected.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	h.registry.MarkVerified(identity.ID)
	return c.Status(http.StatusOK).JSON(fiber.Map{"verified": true})
}

// Reset deletes the stored PIN (forgot PIN) and clears the session's
// verified mark, routing the user back into creation.
func (h *Handler) Reset(c *fiber.Ctx) error {
	identity, err := session.ContextOracle{}.Current(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "no active session")
	}
	if err := h.manager.Reset(c.UserContext(), identity.ID); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	h.registry.Invalidate(identity.ID)
	h.attempts.Delete(identity.ID)
	return c.SendStatus(http.StatusNoContent)
}
