package rates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tuma-pay/tuma_pay/internal/logging"
	"github.com/tuma-pay/tuma_pay/internal/store"
)

func TestRateUsesFallbackWithoutProvider(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), "", time.Minute, 12900, time.Second, logging.Discard())
	if got := svc.Rate(context.Background()); got != 12900 {
		t.Fatalf("expected fallback 12900, got %d", got)
	}
}

func TestRateUsesFreshCache(t *testing.T) {
	s := store.NewMemoryStore()
	snap := Snapshot{Rates: map[string]string{"USD": "129.50"}, Timestamp: time.Now().Unix()}
	raw, _ := json.Marshal(snap)
	if err := s.Set(context.Background(), store.RatesCacheKey, string(raw)); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	svc := NewService(s, "", time.Minute, 12900, time.Second, logging.Discard())
	if got := svc.Rate(context.Background()); got != 12950 {
		t.Fatalf("expected cached 12950, got %d", got)
	}
}

func TestRefreshPopulatesCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"conversion_rates":{"USD":0.00775,"EUR":0.00713,"GBP":0.00617}}`))
	}))
	defer srv.Close()

	s := store.NewMemoryStore()
	svc := NewService(s, srv.URL, time.Minute, 12900, time.Second, logging.Discard())

	snap, err := svc.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	// 1/0.00775 = 129.03 KES per USD
	if snap.Rates["USD"] != "129.03" {
		t.Fatalf("unexpected USD rate %q", snap.Rates["USD"])
	}
	if snap.Rates["EUR"] == "" || snap.Rates["GBP"] == "" {
		t.Fatalf("expected all display currencies, got %+v", snap.Rates)
	}

	if got := svc.Rate(context.Background()); got != 12903 {
		t.Fatalf("expected live rate 12903, got %d", got)
	}
}

func TestCurrentServesStaleOnProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := store.NewMemoryStore()
	stale := Snapshot{Rates: map[string]string{"USD": "128.00"}, Timestamp: time.Now().Add(-time.Hour).Unix()}
	raw, _ := json.Marshal(stale)
	if err := s.Set(context.Background(), store.RatesCacheKey, string(raw)); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	svc := NewService(s, srv.URL, time.Minute, 12900, time.Second, logging.Discard())
	snap, err := svc.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if snap.Rates["USD"] != "128.00" {
		t.Fatalf("expected stale snapshot, got %+v", snap.Rates)
	}
}
