package phone

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tuma-pay/tuma_pay/internal/store"
)

// subscriberDigits is the number of digits following the dialing prefix in a
// normalized number.
const subscriberDigits = 9

// ErrInvalid indicates the input does not normalize to a valid local-market
// mobile number. Nothing is persisted; the caller re-prompts in place.
var ErrInvalid = errors.New("invalid phone number")

// Capture records and validates the per-identity mobile number in normalized
// international form: dialing prefix + a fixed leading subscriber digit + 8
// more digits.
type Capture struct {
	store  store.Store
	prefix string
	lead   string
}

// NewCapture builds a phone capture for the given market, e.g. prefix "254"
// with subscriber lead "7" for Kenyan numbers.
func NewCapture(s store.Store, prefix, lead string) *Capture {
	return &Capture{store: s, prefix: prefix, lead: lead}
}

// Normalize strips non-digits and coerces the result into international
// form. A number already carrying the prefix passes through unchanged, so
// normalization is idempotent on valid input. A leading trunk digit is read
// as the start of the subscriber number; anything else is right-truncated to
// the last 9 digits before the prefix is prepended, which keeps
// partial-deletion edit states anchored to the prefix.
func (c *Capture) Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	if strings.HasPrefix(cleaned, c.prefix) {
		return cleaned
	}
	if strings.HasPrefix(cleaned, c.lead) {
		return c.prefix + cleaned
	}
	if len(cleaned) > subscriberDigits {
		cleaned = cleaned[len(cleaned)-subscriberDigits:]
	}
	return c.prefix + cleaned
}

// Valid reports whether the normalized number matches
// <prefix><lead><8 digits> exactly.
func (c *Capture) Valid(number string) bool {
	if len(number) != len(c.prefix)+subscriberDigits {
		return false
	}
	if !strings.HasPrefix(number, c.prefix+c.lead) {
		return false
	}
	for i := 0; i < len(number); i++ {
		if number[i] < '0' || number[i] > '9' {
			return false
		}
	}
	return true
}

// Submit normalizes and validates the raw input, then persists it under the
// identity's phone key. Stored numbers are never auto-deleted.
func (c *Capture) Submit(ctx context.Context, identityID, raw string) (string, error) {
	if identityID == "" {
		return "", fmt.Errorf("identity id is required")
	}
	number := c.Normalize(raw)
	if !c.Valid(number) {
		return "", ErrInvalid
	}
	if err := c.store.Set(ctx, store.PhoneKey(identityID), number); err != nil {
		return "", fmt.Errorf("persist phone: %w", err)
	}
	return number, nil
}

// Stored returns the persisted number for the identity, or store.ErrNotFound.
func (c *Capture) Stored(ctx context.Context, identityID string) (string, error) {
	return c.store.Get(ctx, store.PhoneKey(identityID))
}

// Exists reports whether a number is stored for the identity; the error is
// returned alongside a false result so the router can fail open.
func (c *Capture) Exists(ctx context.Context, identityID string) (bool, error) {
	_, err := c.store.Get(ctx, store.PhoneKey(identityID))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read phone: %w", err)
	}
	return true, nil
}
