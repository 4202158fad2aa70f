package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "TumaPay"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultBackendTimeout = 10 * time.Second
	defaultRatesCacheTTL  = 5 * time.Minute
	defaultDialingPrefix  = "254"
	defaultSubscriberLead = "7"
	defaultSettlementRate = 12900 // hundredths of KES per USDC

	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
	backendTimeoutEnvVar   = "BACKEND_TIMEOUT"
	settlementRateEnvVar   = "SETTLEMENT_RATE"
	ratesCacheTTLEnvVar    = "RATES_CACHE_TTL"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	// SessionSecret verifies the identity provider's HS256 session tokens.
	SessionSecret string
	// VaultSecret is the master secret for the encrypted credential vault.
	VaultSecret string

	// DialingPrefix and SubscriberLead define the local-market phone format,
	// e.g. 254 + a subscriber number starting with 7.
	DialingPrefix  string
	SubscriberLead string

	BackendURL     string
	BackendTimeout time.Duration

	// SettlementRate is the display-to-settlement conversion rate in
	// hundredths (12900 = 129.00 KES per USDC). Used when no fresher cached
	// rate is available.
	SettlementRate int64
	RatesURL       string
	RatesCacheTTL  time.Duration

	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		VaultSecret:    os.Getenv("VAULT_SECRET"),
		DialingPrefix:  getEnv("DIALING_PREFIX", defaultDialingPrefix),
		SubscriberLead: getEnv("SUBSCRIBER_LEAD", defaultSubscriberLead),
		BackendURL:     os.Getenv("BACKEND_URL"),
		BackendTimeout: defaultBackendTimeout,
		SettlementRate: defaultSettlementRate,
		RatesURL:       os.Getenv("RATES_URL"),
		RatesCacheTTL:  defaultRatesCacheTTL,
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(idemTTLSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLSecondsEnvVar, err)
		}
		cfg.IdempotencyTTL = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(idemTTLDurEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLDurEnvVar, err)
		}
		cfg.IdempotencyTTL = d
	}

	if v := os.Getenv(backendTimeoutEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", backendTimeoutEnvVar, err)
		}
		cfg.BackendTimeout = d
	}

	if v := os.Getenv(ratesCacheTTLEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", ratesCacheTTLEnvVar, err)
		}
		cfg.RatesCacheTTL = d
	}

	if v := os.Getenv(settlementRateEnvVar); v != "" {
		rate, err := strconv.ParseInt(v, 10, 64)
		if err != nil || rate <= 0 {
			return Config{}, fmt.Errorf("invalid %s: must be a positive integer in hundredths", settlementRateEnvVar)
		}
		cfg.SettlementRate = rate
	}

	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET must be set")
	}

	if cfg.VaultSecret == "" {
		return Config{}, fmt.Errorf("VAULT_SECRET must be set")
	}

	if !cfg.IsDev() {
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.BackendURL == "" {
			return Config{}, fmt.Errorf("BACKEND_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a development-like environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
