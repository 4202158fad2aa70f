package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tuma-pay/tuma_pay/internal/session"
)

// SessionRequired validates the provider-issued session token and attaches
// the resolved identity to the request context. Requests without a valid
// session are refused.
func SessionRequired(verifier *session.TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := resolveBearer(c, verifier)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "no active session")
		}
		attach(c, identity)
		return c.Next()
	}
}

// SessionOptional attaches the identity when a valid token is present and
// continues either way. The entry router distinguishes NoSession itself.
func SessionOptional(verifier *session.TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identity, ok := resolveBearer(c, verifier); ok {
			attach(c, identity)
		}
		return c.Next()
	}
}

func resolveBearer(c *fiber.Ctx, verifier *session.TokenVerifier) (session.Identity, bool) {
	authz := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return session.Identity{}, false
	}
	token := strings.TrimSpace(authz[len("Bearer "):])
	identity, err := verifier.Resolve(token)
	if err != nil {
		return session.Identity{}, false
	}
	return identity, true
}

func attach(c *fiber.Ctx, identity session.Identity) {
	c.Locals("identity_id", identity.ID)
	c.SetUserContext(session.WithIdentity(c.UserContext(), identity))
}
