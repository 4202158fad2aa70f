package routes

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tuma-pay/tuma_pay/internal/middleware"
	"github.com/tuma-pay/tuma_pay/internal/wallet"
)

// RegisterWalletRoutes adds the wallet home view and deposit initiation.
func RegisterWalletRoutes(router fiber.Router, handler *wallet.Handler, cache *redis.Client, idempotencyTTL time.Duration, logger *slog.Logger) {
	router.Get("/wallet/home", handler.Home)

	if cache != nil {
		router.Post("/deposits", middleware.Idempotency(cache, idempotencyTTL, logger), handler.Deposit)
	} else {
		router.Post("/deposits", handler.Deposit)
	}
}
