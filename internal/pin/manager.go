package pin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tuma-pay/tuma_pay/internal/store"
)

// Length is the fixed PIN length. Input boundaries hold shorter entries as
// in-progress and refuse longer ones, so the manager only ever sees
// candidates of exactly this length.
const Length = 4

var (
	// ErrMalformed indicates the candidate is not exactly 4 ASCII digits.
	ErrMalformed = errors.New("pin must be exactly 4 digits")

	// ErrMismatch indicates the confirmation entry differed from the first
	// entry. The whole two-step attempt restarts; there is no partial retry
	// of only the second entry.
	ErrMismatch = errors.New("pin confirmation mismatch")

	// ErrRejected indicates the candidate does not match the stored PIN, or
	// no PIN is stored. Attempts are unlimited with no backoff; callers
	// clear the input and allow an immediate retry.
	ErrRejected = errors.New("pin rejected")
)

// Attempt holds the first entry of a two-step PIN creation. Nothing is
// persisted until the attempt is confirmed; a zero Attempt is invalid.
type Attempt struct {
	identityID string
	firstEntry string
}

// IdentityID reports which identity the attempt belongs to.
func (a Attempt) IdentityID() string { return a.identityID }

// Manager owns creation, confirmation, verification and reset of the
// per-identity wallet PIN. The authoritative copy lives in the credential
// store under the per-identity key; the secure vault carries the legacy
// non-namespaced entry older installs wrote.
type Manager struct {
	store  store.Store
	vault  store.Store
	logger *slog.Logger

	migrated sync.Map // identityID -> struct{}
}

// NewManager builds a PIN manager over the authoritative store and the
// legacy secure vault.
func NewManager(s store.Store, vault store.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: s, vault: vault, logger: logger}
}

// WellFormed reports whether the candidate is exactly 4 ASCII digits.
func WellFormed(candidate string) bool {
	if len(candidate) != Length {
		return false
	}
	for i := 0; i < len(candidate); i++ {
		if candidate[i] < '0' || candidate[i] > '9' {
			return false
		}
	}
	return true
}

// Create validates the first entry and opens a two-step attempt. Nothing is
// persisted yet.
func (m *Manager) Create(identityID, candidate string) (Attempt, error) {
	if identityID == "" {
		return Attempt{}, fmt.Errorf("identity id is required")
	}
	if !WellFormed(candidate) {
		return Attempt{}, ErrMalformed
	}
	return Attempt{identityID: identityID, firstEntry: candidate}, nil
}

// Confirm compares the confirmation entry to the attempt's first entry and
// persists the PIN on an exact match. The write is a single Set, so no
// reader ever observes a half-written PIN.
func (m *Manager) Confirm(ctx context.Context, attempt Attempt, candidate string) error {
	if attempt.identityID == "" || attempt.firstEntry == "" {
		return fmt.Errorf("no pin creation in progress")
	}
	if !WellFormed(candidate) {
		return ErrMalformed
	}
	if candidate != attempt.firstEntry {
		return ErrMismatch
	}
	if err := m.store.Set(ctx, store.PinKey(attempt.identityID), attempt.firstEntry); err != nil {
		return fmt.Errorf("persist pin: %w", err)
	}
	return nil
}

// Verify checks the candidate against the stored PIN with exact string
// equality. An absent PIN rejects; a storage failure is returned to the
// caller because verification is always user-initiated.
func (m *Manager) Verify(ctx context.Context, identityID, candidate string) error {
	if !WellFormed(candidate) {
		return ErrRejected
	}
	stored, err := m.store.Get(ctx, store.PinKey(identityID))
	if errors.Is(err, store.ErrNotFound) {
		return ErrRejected
	}
	if err != nil {
		return fmt.Errorf("read pin: %w", err)
	}
	if candidate != stored {
		return ErrRejected
	}
	return nil
}

// VerifyWithLegacy is the payment re-gate check: the authoritative key is
// consulted first, then the legacy vault entry for installs that predate the
// startup migration.
func (m *Manager) VerifyWithLegacy(ctx context.Context, identityID, candidate string) error {
	err := m.Verify(ctx, identityID, candidate)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrRejected) {
		return err
	}
	legacy, legacyErr := m.vault.Get(ctx, store.LegacyPinKey)
	if legacyErr != nil {
		if !errors.Is(legacyErr, store.ErrNotFound) {
			m.logger.Warn("legacy pin read failed", "identity", identityID, "error", legacyErr)
		}
		return ErrRejected
	}
	if candidate != legacy {
		return ErrRejected
	}
	return nil
}

// Exists reports whether a PIN is stored for the identity. The error is
// returned alongside a false result so the router can log it and fail open
// toward the stricter state.
func (m *Manager) Exists(ctx context.Context, identityID string) (bool, error) {
	_, err := m.store.Get(ctx, store.PinKey(identityID))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read pin: %w", err)
	}
	return true, nil
}

// Reset deletes the stored PIN (forgot-PIN), routing the user back into PIN
// creation on the next evaluation.
func (m *Manager) Reset(ctx context.Context, identityID string) error {
	if err := m.store.Delete(ctx, store.PinKey(identityID)); err != nil {
		return fmt.Errorf("delete pin: %w", err)
	}
	return nil
}

// MigrateLegacy copies the legacy vault entry into the authoritative
// per-identity key when the latter is absent, then removes the legacy entry.
// It runs at most once per identity per process; older dual-location reads
// survive only in VerifyWithLegacy.
func (m *Manager) MigrateLegacy(ctx context.Context, identityID string) error {
	if _, done := m.migrated.LoadOrStore(identityID, struct{}{}); done {
		return nil
	}

	if _, err := m.store.Get(ctx, store.PinKey(identityID)); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("read pin: %w", err)
	}

	legacy, err := m.vault.Get(ctx, store.LegacyPinKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read legacy pin: %w", err)
	}
	if !WellFormed(legacy) {
		m.logger.Warn("legacy pin malformed, dropping", "identity", identityID)
		return m.vault.Delete(ctx, store.LegacyPinKey)
	}

	if err := m.store.Set(ctx, store.PinKey(identityID), legacy); err != nil {
		return fmt.Errorf("persist migrated pin: %w", err)
	}
	if err := m.vault.Delete(ctx, store.LegacyPinKey); err != nil {
		m.logger.Warn("legacy pin cleanup failed", "identity", identityID, "error", err)
	}
	m.logger.Info("migrated legacy pin", "identity", identityID)
	return nil
}
