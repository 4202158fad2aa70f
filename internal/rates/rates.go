package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/tuma-pay/tuma_pay/internal/store"
)

// Currencies shown on the exchange-rates screen, quoted in KES.
var displayCurrencies = []string{"USD", "EUR", "GBP"}

// settlementCurrency is the provider code backing the display-to-settlement
// conversion (the backend settles in USDC, pegged 1:1 to USD).
const settlementCurrency = "USD"

// Snapshot is the cached rate set, stored as JSON under the rates cache key.
type Snapshot struct {
	Rates     map[string]string `json:"rates"`
	Timestamp int64             `json:"timestamp"`
}

// Service keeps a cached view of live exchange rates and falls back to the
// configured static rate whenever the cache and the provider both fail. It
// satisfies the payment flow's RateSource.
type Service struct {
	store    store.Store
	url      string
	ttl      time.Duration
	fallback int64 // hundredths of KES per settlement unit
	timeout  time.Duration
	client   *http.Client
	logger   *slog.Logger
}

// NewService builds the rate service. url may be empty, in which case only
// the cache and the fallback rate are consulted.
func NewService(s store.Store, url string, ttl time.Duration, fallback int64, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{store: s, url: url, ttl: ttl, fallback: fallback, timeout: timeout, client: &http.Client{}, logger: logger}
}

// Rate returns the current display-to-settlement rate in hundredths. Order:
// fresh cache, then a live refresh, then the static fallback. It never
// fails; conversion always has a deterministic rate to work with.
func (s *Service) Rate(ctx context.Context) int64 {
	if snap, err := s.cached(ctx); err == nil && s.fresh(snap) {
		if rate, ok := parseRate(snap.Rates[settlementCurrency]); ok {
			return rate
		}
	}

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("rate refresh failed, using fallback", "error", err)
		return s.fallback
	}
	snap, err := s.cached(ctx)
	if err != nil {
		return s.fallback
	}
	if rate, ok := parseRate(snap.Rates[settlementCurrency]); ok {
		return rate
	}
	return s.fallback
}

// Current returns the cached snapshot for the rates screen, refreshing when
// stale. A stale-but-present snapshot is still returned if refresh fails.
func (s *Service) Current(ctx context.Context) (Snapshot, error) {
	snap, err := s.cached(ctx)
	if err == nil && s.fresh(snap) {
		return snap, nil
	}

	if refreshErr := s.Refresh(ctx); refreshErr != nil {
		if err == nil {
			s.logger.Warn("rate refresh failed, serving stale snapshot", "error", refreshErr)
			return snap, nil
		}
		return Snapshot{}, refreshErr
	}
	return s.cached(ctx)
}

// Refresh fetches live rates from the provider and rewrites the cache.
func (s *Service) Refresh(ctx context.Context) error {
	if s.url == "" {
		return errors.New("no rates provider configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("build rates request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rates provider status %d", resp.StatusCode)
	}

	var payload struct {
		ConversionRates map[string]float64 `json:"conversion_rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode rates: %w", err)
	}

	snap := Snapshot{Rates: make(map[string]string), Timestamp: time.Now().Unix()}
	for _, code := range displayCurrencies {
		// The provider quotes currency-per-KES; the screen shows KES per
		// unit of foreign currency.
		perKES, ok := payload.ConversionRates[code]
		if !ok || perKES <= 0 {
			continue
		}
		snap.Rates[code] = strconv.FormatFloat(1/perKES, 'f', 2, 64)
	}
	if len(snap.Rates) == 0 {
		return errors.New("rates provider returned no usable rates")
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.store.Set(ctx, store.RatesCacheKey, string(raw)); err != nil {
		return fmt.Errorf("cache snapshot: %w", err)
	}
	return nil
}

func (s *Service) cached(ctx context.Context) (Snapshot, error) {
	raw, err := s.store.Get(ctx, store.RatesCacheKey)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode cached rates: %w", err)
	}
	return snap, nil
}

func (s *Service) fresh(snap Snapshot) bool {
	age := time.Since(time.Unix(snap.Timestamp, 0))
	return age >= 0 && age < s.ttl
}

func parseRate(display string) (int64, bool) {
	if display == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(display, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return int64(math.Round(value * 100)), true
}
