package routes

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tuma-pay/tuma_pay/internal/middleware"
	"github.com/tuma-pay/tuma_pay/internal/payment"
)

// RegisterPaymentRoutes adds the transfer flow endpoints. The PIN submission
// releases money and is idempotency-key protected; recipient search hits the
// backend and is rate limited.
func RegisterPaymentRoutes(router fiber.Router, handler *payment.Handler, cache *redis.Client, idempotencyTTL time.Duration, logger *slog.Logger) {
	router.Post("/payments", handler.Start)
	router.Get("/payments", handler.Current)
	router.Post("/payments/recipient", handler.SelectRecipient)
	router.Post("/payments/amount", handler.EnterAmount)
	router.Post("/payments/confirm", handler.Confirm)
	router.Post("/payments/back", handler.Back)
	router.Delete("/payments", handler.Close)

	if cache != nil {
		router.Get("/payments/recipients", middleware.SearchRateLimit(cache, 30), handler.Recipients)
		router.Post("/payments/pin", middleware.Idempotency(cache, idempotencyTTL, logger), handler.SubmitPIN)
	} else {
		router.Get("/payments/recipients", handler.Recipients)
		router.Post("/payments/pin", handler.SubmitPIN)
	}
}
