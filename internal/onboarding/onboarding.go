package onboarding

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tuma-pay/tuma_pay/internal/store"
)

// Tracker owns the process-wide first-run flags. They are independent of any
// identity: onboarding is shown per install, not per user.
type Tracker struct {
	store  store.Store
	logger *slog.Logger
}

// NewTracker builds an onboarding tracker.
func NewTracker(s store.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: s, logger: logger}
}

// Completed reports whether onboarding has been shown. Storage failures read
// as "not completed", so the worst case is showing onboarding again.
func (t *Tracker) Completed(ctx context.Context) bool {
	value, err := t.store.Get(ctx, store.OnboardedKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			t.logger.Warn("onboarding flag read failed", "error", err)
		}
		return false
	}
	return value == "true"
}

// MarkComplete records that onboarding was shown.
func (t *Tracker) MarkComplete(ctx context.Context) error {
	return t.store.Set(ctx, store.OnboardedKey, "true")
}

// Clear forgets completion so onboarding shows again.
func (t *Tracker) Clear(ctx context.Context) error {
	return t.store.Delete(ctx, store.OnboardedKey)
}

// SetForceShow overrides completion for debugging or replays.
func (t *Tracker) SetForceShow(ctx context.Context, force bool) error {
	value := "false"
	if force {
		value = "true"
	}
	return t.store.Set(ctx, store.ForceOnboardingKey, value)
}

// ForceShow reports whether the override is set; failures read as false.
func (t *Tracker) ForceShow(ctx context.Context) bool {
	value, err := t.store.Get(ctx, store.ForceOnboardingKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			t.logger.Warn("force onboarding flag read failed", "error", err)
		}
		return false
	}
	return value == "true"
}

// ShouldShow combines the completion flag with the override.
func (t *Tracker) ShouldShow(ctx context.Context) bool {
	if t.ForceShow(ctx) {
		return true
	}
	return !t.Completed(ctx)
}
