package entry

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tuma-pay/tuma_pay/internal/pin"
	"github.com/tuma-pay/tuma_pay/internal/session"
)

// Handler exposes the entry evaluation over HTTP. The client reports its
// current screen and receives the state plus the screen it should be on.
type Handler struct {
	evaluator *Evaluator
	pins      *pin.Manager
}

// NewHandler builds an entry handler.
func NewHandler(evaluator *Evaluator, pins *pin.Manager) *Handler {
	return &Handler{evaluator: evaluator, pins: pins}
}

// Evaluate runs one level-triggered entry check. The session is optional;
// an absent or invalid token simply evaluates to the signed-out state.
func (h *Handler) Evaluate(c *fiber.Ctx) error {
	ctx := c.UserContext()

	// Fold the legacy credential location into the current one before the
	// stored-PIN read, so pre-migration installs route straight to
	// verification instead of re-creation.
	if identity, err := (session.ContextOracle{}).Current(ctx); err == nil {
		if err := h.pins.MigrateLegacy(ctx, identity.ID); err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	current := Screen(c.Query("screen"))
	decision := h.evaluator.Evaluate(ctx, current, nil)

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"state":      decision.State.String(),
		"target":     decision.Target,
		"redirected": decision.Redirected,
	})
}
