package phone

import (
	"context"
	"errors"
	"testing"

	"github.com/tuma-pay/tuma_pay/internal/store"
)

func newCapture() (*Capture, store.Store) {
	s := store.NewMemoryStore()
	return NewCapture(s, "254", "7"), s
}

func TestNormalize(t *testing.T) {
	c, _ := newCapture()
	cases := []struct {
		raw  string
		want string
	}{
		{"0712345678", "254712345678"},   // trunk zero truncated, prefix restored
		{"712345678", "254712345678"},    // bare subscriber number
		{"254712345678", "254712345678"}, // already normalized
		{"+254 712 345 678", "254712345678"},
		{"0712-345-678", "254712345678"},
		{"12345678", "25412345678"}, // partial deletion, anchored to prefix
	}
	for _, tc := range cases {
		if got := c.Normalize(tc.raw); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	c, _ := newCapture()
	once := c.Normalize("0712345678")
	if twice := c.Normalize(once); twice != once {
		t.Fatalf("normalization not idempotent: %q -> %q", once, twice)
	}
}

func TestValid(t *testing.T) {
	c, _ := newCapture()
	cases := []struct {
		number string
		ok     bool
	}{
		{"254712345678", true},
		{"254812345678", false}, // wrong subscriber lead
		{"25471234567", false},  // too short
		{"2547123456789", false},
		{"254712a45678", false},
	}
	for _, tc := range cases {
		if got := c.Valid(tc.number); got != tc.ok {
			t.Fatalf("Valid(%q) = %v, want %v", tc.number, got, tc.ok)
		}
	}
}

func TestSubmitStoresNormalized(t *testing.T) {
	c, s := newCapture()
	ctx := context.Background()

	number, err := c.Submit(ctx, "u1", "0712345678")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if number != "254712345678" {
		t.Fatalf("unexpected number %q", number)
	}

	stored, err := s.Get(ctx, store.PhoneKey("u1"))
	if err != nil || stored != "254712345678" {
		t.Fatalf("stored: %q %v", stored, err)
	}
}

func TestSubmitInvalidPersistsNothing(t *testing.T) {
	c, s := newCapture()
	ctx := context.Background()

	if _, err := c.Submit(ctx, "u1", "12345"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
	if _, err := s.Get(ctx, store.PhoneKey("u1")); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected nothing persisted, got %v", err)
	}
}

func TestExistsFailsOpenOnStorageError(t *testing.T) {
	c := NewCapture(store.FaultyStore{Err: errors.New("storage down")}, "254", "7")
	exists, err := c.Exists(context.Background(), "u1")
	if exists {
		t.Fatalf("expected false on storage failure")
	}
	if err == nil {
		t.Fatalf("expected surfaced error for logging")
	}
}
