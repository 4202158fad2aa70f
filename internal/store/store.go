package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested key has never been written or was
// deleted. Callers treat it as "value absent", never as a failure.
var ErrNotFound = errors.New("key not found")

// Store is the device credential store: a durable string key-value space
// shared by the gate components. Each key is logically owned by exactly one
// component, so no two writers ever race on the same key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Key conventions. The per-identity keys are derived with PinKey/PhoneKey;
// the onboarding keys are process-wide.
const (
	pinKeyPrefix   = "userPin_"
	phoneKeyPrefix = "userPhone_"

	// LegacyPinKey is the historical non-namespaced PIN entry kept in the
	// secure vault by older installs.
	LegacyPinKey = "userPIN"

	// OnboardedKey records whether first-run onboarding screens were shown.
	OnboardedKey = "hasOnboarded"
	// ForceOnboardingKey overrides OnboardedKey for debugging/replays.
	ForceOnboardingKey = "forceShowOnboarding"

	// RatesCacheKey holds the serialized exchange-rate snapshot.
	RatesCacheKey = "exchange_rates_cache"
)

// PinKey derives the authoritative PIN storage key for an identity.
func PinKey(identityID string) string {
	return fmt.Sprintf("%s%s", pinKeyPrefix, identityID)
}

// PhoneKey derives the phone number storage key for an identity.
func PhoneKey(identityID string) string {
	return fmt.Sprintf("%s%s", phoneKeyPrefix, identityID)
}
