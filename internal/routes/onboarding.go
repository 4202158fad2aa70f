package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tuma-pay/tuma_pay/internal/onboarding"
)

// RegisterOnboardingRoutes adds the first-run flag endpoints.
func RegisterOnboardingRoutes(router fiber.Router, handler *onboarding.Handler) {
	router.Get("/onboarding", handler.Status)
	router.Post("/onboarding/complete", handler.Complete)
	router.Post("/onboarding/force", handler.Force)
}
