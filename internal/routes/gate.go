package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tuma-pay/tuma_pay/internal/phone"
	"github.com/tuma-pay/tuma_pay/internal/pin"
)

// RegisterGateRoutes adds the phone capture and PIN gate endpoints.
func RegisterGateRoutes(router fiber.Router, pins *pin.Handler, phones *phone.Handler) {
	router.Post("/phone", phones.Submit)

	router.Post("/pin", pins.Begin)
	router.Post("/pin/confirm", pins.Confirm)
	router.Post("/pin/verify", pins.Verify)
	router.Delete("/pin", pins.Reset)
}
