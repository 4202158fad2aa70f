package onboarding

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the first-run flags over HTTP. No session is required;
// onboarding belongs to the install, not an identity.
type Handler struct {
	tracker *Tracker
}

// NewHandler builds an onboarding handler.
func NewHandler(tracker *Tracker) *Handler {
	return &Handler{tracker: tracker}
}

// Status reports whether onboarding should be shown.
func (h *Handler) Status(c *fiber.Ctx) error {
	ctx := c.UserContext()
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"should_show": h.tracker.ShouldShow(ctx),
		"completed":   h.tracker.Completed(ctx),
	})
}

// Complete records that onboarding was shown.
func (h *Handler) Complete(c *fiber.Ctx) error {
	if err := h.tracker.MarkComplete(c.UserContext()); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}

type forceRequest struct {
	Force bool `json:"force"`
}

// Force toggles the debug override that replays onboarding.
func (h *Handler) Force(c *fiber.Ctx) error {
	var req forceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.tracker.SetForceShow(c.UserContext(), req.Force); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}
