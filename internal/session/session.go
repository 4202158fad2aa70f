package session

import (
	"context"
	"errors"
)

// ErrNoSession indicates no authenticated identity is present. The entry
// router treats it as the NoSession state, never as a failure.
var ErrNoSession = errors.New("no active session")

// Identity is the stable identifier the provider assigns at sign-in. This
// system only ever reads it; it never creates or destroys identities.
type Identity struct {
	ID string
	// Name is the display name the backend keys wallets by.
	Name string
}

// Oracle answers whether an authenticated identity exists and which one it
// is. The identity provider itself (OAuth exchange, token issuance) stays
// external; implementations here only observe its output.
type Oracle interface {
	Current(ctx context.Context) (Identity, error)
}

// StaticOracle is a fixed-answer oracle for tests and dev tooling.
type StaticOracle struct {
	Identity Identity
	Active   bool
}

// Current returns the configured identity, or ErrNoSession when inactive.
func (o StaticOracle) Current(context.Context) (Identity, error) {
	if !o.Active || o.Identity.ID == "" {
		return Identity{}, ErrNoSession
	}
	return o.Identity, nil
}

type contextKey struct{}

// WithIdentity stores a resolved identity on the context. The session
// middleware calls this after token verification.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// ContextOracle resolves the identity previously attached to the request
// context.
type ContextOracle struct{}

// Current returns the context identity, or ErrNoSession when absent.
func (ContextOracle) Current(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok || id.ID == "" {
		return Identity{}, ErrNoSession
	}
	return id, nil
}
