package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := "test-session-secret"
	token, err := SignHS256(map[string]any{
		"sub":  "user-1",
		"name": "Alice",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}, []byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	identity, err := NewTokenVerifier(secret).Resolve(token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity.ID != "user-1" || identity.Name != "Alice" {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestTokenFailuresResolveToNoSession(t *testing.T) {
	secret := "test-session-secret"
	expired, err := SignHS256(map[string]any{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}, []byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	wrongKey, err := SignHS256(map[string]any{"sub": "user-1"}, []byte("other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	missingSub, err := SignHS256(map[string]any{"exp": time.Now().Add(time.Hour).Unix()}, []byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	verifier := NewTokenVerifier(secret)
	for name, token := range map[string]string{
		"expired":     expired,
		"wrong key":   wrongKey,
		"missing sub": missingSub,
		"garbage":     "not.a.token",
	} {
		if _, err := verifier.Resolve(token); !errors.Is(err, ErrNoSession) {
			t.Fatalf("%s: expected ErrNoSession, got %v", name, err)
		}
	}
}

func TestRegistryResetsPerInstance(t *testing.T) {
	registry := NewRegistry()
	if registry.Verified("user-1") {
		t.Fatal("fresh registry should hold no verifications")
	}

	registry.MarkVerified("user-1")
	if !registry.Verified("user-1") {
		t.Fatal("expected user-1 verified")
	}
	if registry.Verified("user-2") {
		t.Fatal("verification must not leak across identities")
	}

	registry.Invalidate("user-1")
	if registry.Verified("user-1") {
		t.Fatal("invalidate should clear the mark")
	}

	// A new registry models a process restart: all marks are gone.
	if NewRegistry().Verified("user-1") {
		t.Fatal("restart must demand re-verification")
	}
}

func TestContextOracle(t *testing.T) {
	if _, err := (ContextOracle{}).Current(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession on bare context, got %v", err)
	}

	ctx := WithIdentity(context.Background(), Identity{ID: "user-1", Name: "Alice"})
	identity, err := ContextOracle{}.Current(ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity.ID != "user-1" {
		t.Fatalf("unexpected identity %+v", identity)
	}
}
