package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tuma-pay/tuma_pay/internal/backend"
	"github.com/tuma-pay/tuma_pay/internal/config"
	"github.com/tuma-pay/tuma_pay/internal/entry"
	"github.com/tuma-pay/tuma_pay/internal/middleware"
	"github.com/tuma-pay/tuma_pay/internal/onboarding"
	"github.com/tuma-pay/tuma_pay/internal/payment"
	"github.com/tuma-pay/tuma_pay/internal/phone"
	"github.com/tuma-pay/tuma_pay/internal/pin"
	"github.com/tuma-pay/tuma_pay/internal/rates"
	"github.com/tuma-pay/tuma_pay/internal/session"
	"github.com/tuma-pay/tuma_pay/internal/store"
	"github.com/tuma-pay/tuma_pay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if !d.Cfg.IsDev() {
		app.Use(middleware.Audit(d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Device state store: Redis when available, Postgres mirror otherwise,
	// in-memory as a dev fallback.
	var state store.Store
	switch {
	case d.Cache != nil:
		state = store.NewRedisStore(d.Cache)
	case d.DB != nil:
		state = store.NewPostgresStore(d.DB)
	default:
		state = store.NewMemoryStore()
		d.Logger.Warn("no redis or postgres configured, device state is in-memory only")
	}
	vault, err := store.NewSecureStore(state, d.Cfg.VaultSecret)
	if err != nil {
		return fmt.Errorf("build secure vault: %w", err)
	}

	verifier := session.NewTokenVerifier(d.Cfg.SessionSecret)
	registry := session.NewRegistry()

	// Services and handlers
	pins := pin.NewManager(state, vault, d.Logger)
	phones := phone.NewCapture(state, d.Cfg.DialingPrefix, d.Cfg.SubscriberLead)
	tracker := onboarding.NewTracker(state, d.Logger)

	var client backend.Client
	if d.Cfg.BackendURL != "" {
		client, err = backend.NewHTTPClient(d.Cfg.BackendURL, d.Cfg.BackendTimeout)
		if err != nil {
			return fmt.Errorf("build backend client: %w", err)
		}
	} else {
		client = &backend.StaticBackend{}
		d.Logger.Warn("no backend configured, wallet operations use the static stub")
	}

	rateSvc := rates.NewService(state, d.Cfg.RatesURL, d.Cfg.RatesCacheTTL, d.Cfg.SettlementRate, d.Cfg.BackendTimeout, d.Logger)

	evaluator := entry.NewEvaluator(session.ContextOracle{}, registry, pins, phones, d.Logger)
	paymentSvc := payment.NewService(pins, client, rateSvc, d.Logger)
	walletSvc := wallet.NewService(client, phones, rateSvc, d.Logger)

	entryHandler := entry.NewHandler(evaluator, pins)
	pinHandler := pin.NewHandler(pins, registry, walletSvc)
	phoneHandler := phone.NewHandler(phones)
	onboardingHandler := onboarding.NewHandler(tracker)
	paymentHandler := payment.NewHandler(paymentSvc)
	walletHandler := wallet.NewHandler(walletSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes: onboarding belongs to the install, and the entry check
	// resolves the session itself when a token is present.
	RegisterOnboardingRoutes(api, onboardingHandler)
	api.Get("/entry", middleware.SessionOptional(verifier), entryHandler.Evaluate)

	// Protected routes
	protected := api.Group("", middleware.SessionRequired(verifier))
	protected.Get("/rates", rates.NewHandler(rateSvc).Current)
	RegisterGateRoutes(protected, pinHandler, phoneHandler)
	RegisterPaymentRoutes(protected, paymentHandler, d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	RegisterWalletRoutes(protected, walletHandler, d.Cache, d.Cfg.IdempotencyTTL, d.Logger)

	return nil
}
