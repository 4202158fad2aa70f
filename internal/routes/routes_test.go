package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tuma-pay/tuma_pay/internal/config"
	"github.com/tuma-pay/tuma_pay/internal/logging"
	"github.com/tuma-pay/tuma_pay/internal/session"
)

func setupTestApp(t *testing.T) (*fiber.App, string) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	cfg := config.Config{
		AppName:        "TumaPay",
		AppEnv:         "development",
		Port:           "8080",
		SessionSecret:  "test-session-secret",
		VaultSecret:    "test-vault-secret",
		DialingPrefix:  "254",
		SubscriberLead: "7",
		BackendTimeout: 2 * time.Second,
		SettlementRate: 12900,
		RatesCacheTTL:  5 * time.Minute,
		IdempotencyTTL: time.Minute,
	}

	app := fiber.New()
	if err := Setup(app, Deps{Cfg: cfg, Cache: cache, Logger: logging.Discard()}); err != nil {
		t.Fatalf("setup routes: %v", err)
	}

	token, err := session.SignHS256(map[string]any{
		"sub":  "user-1",
		"name": "Alice",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}, []byte(cfg.SessionSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return app, token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if len(payload) > 0 {
		_ = json.Unmarshal(payload, &decoded)
	}
	return resp.StatusCode, decoded
}

func TestEntryWithoutSessionRoutesToSignIn(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doJSON(t, app, fiber.MethodGet, "/api/v1/entry?screen=home", "", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["state"] != "no_session" || body["target"] != "signin" || body["redirected"] != true {
		t.Fatalf("unexpected decision %+v", body)
	}
}

func TestGateProgressionOverHTTP(t *testing.T) {
	app, token := setupTestApp(t)

	// Fresh identity: phone capture first.
	status, body := doJSON(t, app, fiber.MethodGet, "/api/v1/entry", token, "", nil)
	if status != http.StatusOK || body["state"] != "needs_phone" || body["target"] != "phone" {
		t.Fatalf("fresh identity decision %d %+v", status, body)
	}

	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/phone", token, `{"phone":"0712345678"}`, nil)
	if status != http.StatusOK || body["phoneNumber"] != "254712345678" {
		t.Fatalf("phone submit %d %+v", status, body)
	}

	// Two-step creation: a mismatched confirmation restarts from scratch.
	if status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/pin", token, `{"pin":"1234"}`, nil); status != http.StatusOK {
		t.Fatalf("pin begin: %d", status)
	}
	if status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/pin/confirm", token, `{"pin":"4321"}`, nil); status != http.StatusConflict {
		t.Fatalf("mismatched confirm should 409, got %d", status)
	}
	if status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/pin/confirm", token, `{"pin":"4321"}`, nil); status != http.StatusConflict {
		t.Fatalf("confirm without open attempt should 409, got %d", status)
	}
	if status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/pin", token, `{"pin":"1234"}`, nil); status != http.StatusOK {
		t.Fatalf("pin begin retry: %d", status)
	}
	if status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/pin/confirm", token, `{"pin":"1234"}`, nil); status != http.StatusCreated {
		t.Fatalf("pin confirm: %d", status)
	}

	// Created but not yet verified this process.
	status, body = doJSON(t, app, fiber.MethodGet, "/api/v1/entry", token, "", nil)
	if status != http.StatusOK || body["state"] != "needs_verification" || body["target"] != "pinverification" {
		t.Fatalf("post-creation decision %d %+v", status, body)
	}

	if status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/pin/verify", token, `{"pin":"9999"}`, nil); status != http.StatusUnauthorized {
		t.Fatalf("wrong pin should 401, got %d", status)
	}
	if status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/pin/verify", token, `{"pin":"1234"}`, nil); status != http.StatusOK {
		t.Fatalf("pin verify: %d", status)
	}

	// Verified: already on home, no redirect.
	status, body = doJSON(t, app, fiber.MethodGet, "/api/v1/entry?screen=home", token, "", nil)
	if status != http.StatusOK || body["state"] != "authenticated" || body["redirected"] != false {
		t.Fatalf("authenticated decision %d %+v", status, body)
	}
}

func TestTransferFlowOverHTTP(t *testing.T) {
	app, token := setupTestApp(t)

	doJSON(t, app, fiber.MethodPost, "/api/v1/phone", token, `{"phone":"0712345678"}`, nil)
	doJSON(t, app, fiber.MethodPost, "/api/v1/pin", token, `{"pin":"1234"}`, nil)
	doJSON(t, app, fiber.MethodPost, "/api/v1/pin/confirm", token, `{"pin":"1234"}`, nil)

	status, body := doJSON(t, app, fiber.MethodPost, "/api/v1/payments", token, "", nil)
	if status != http.StatusCreated || body["step"] != "select" {
		t.Fatalf("start flow %d %+v", status, body)
	}

	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/payments/recipient", token, `{"name":"Bob"}`, nil)
	if status != http.StatusOK || body["step"] != "amount" {
		t.Fatalf("select recipient %d %+v", status, body)
	}

	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/payments/amount", token, `{"amount_cents":25800}`, nil)
	if status != http.StatusOK || body["step"] != "confirm" {
		t.Fatalf("enter amount %d %+v", status, body)
	}

	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/payments/confirm", token, "", nil)
	if status != http.StatusOK || body["step"] != "pin" {
		t.Fatalf("confirm %d %+v", status, body)
	}

	idem := map[string]string{"Idempotency-Key": "transfer-1"}
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/payments/pin", token, `{"pin":"9999"}`, idem)
	if status != http.StatusUnauthorized {
		t.Fatalf("wrong pin should 401, got %d", status)
	}

	idem = map[string]string{"Idempotency-Key": "transfer-2"}
	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/payments/pin", token, `{"pin":"1234"}`, idem)
	if status != http.StatusOK || body["step"] != "success" {
		t.Fatalf("release transfer %d %+v", status, body)
	}

	// Replaying the same key returns the stored response.
	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/payments/pin", token, `{"pin":"1234"}`, idem)
	if status != http.StatusOK || body["step"] != "success" {
		t.Fatalf("idempotent replay %d %+v", status, body)
	}
}

func TestWalletHomeAndDeposit(t *testing.T) {
	app, token := setupTestApp(t)

	doJSON(t, app, fiber.MethodPost, "/api/v1/phone", token, `{"phone":"0712345678"}`, nil)

	status, body := doJSON(t, app, fiber.MethodGet, "/api/v1/wallet/home", token, "", nil)
	if status != http.StatusOK {
		t.Fatalf("wallet home: %d", status)
	}
	if body["rate_hundredths"] != float64(12900) {
		t.Fatalf("unexpected rate %+v", body)
	}

	idem := map[string]string{"Idempotency-Key": "deposit-1"}
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/deposits", token, `{"amount_cents":25800}`, idem)
	if status != http.StatusAccepted {
		t.Fatalf("deposit: %d", status)
	}
}

func TestOnboardingFlags(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doJSON(t, app, fiber.MethodGet, "/api/v1/onboarding", "", "", nil)
	if status != http.StatusOK || body["should_show"] != true {
		t.Fatalf("initial onboarding %d %+v", status, body)
	}

	if status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/onboarding/complete", "", "", nil); status != http.StatusNoContent {
		t.Fatalf("complete: %d", status)
	}

	status, body = doJSON(t, app, fiber.MethodGet, "/api/v1/onboarding", "", "", nil)
	if status != http.StatusOK || body["should_show"] != false {
		t.Fatalf("completed onboarding %d %+v", status, body)
	}

	if status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/onboarding/force", "", `{"force":true}`, nil); status != http.StatusNoContent {
		t.Fatalf("force: %d", status)
	}
	status, body = doJSON(t, app, fiber.MethodGet, "/api/v1/onboarding", "", "", nil)
	if status != http.StatusOK || body["should_show"] != true {
		t.Fatalf("forced onboarding %d %+v", status, body)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	app, _ := setupTestApp(t)

	for _, route := range []struct {
		method string
		path   string
	}{
		{fiber.MethodPost, "/api/v1/phone"},
		{fiber.MethodPost, "/api/v1/pin"},
		{fiber.MethodPost, "/api/v1/payments"},
		{fiber.MethodGet, "/api/v1/wallet/home"},
	} {
		status, _ := doJSON(t, app, route.method, route.path, "", `{}`, nil)
		if status != http.StatusUnauthorized {
			t.Fatalf("%s %s without token: expected 401, got %d", route.method, route.path, status)
		}
	}
}
