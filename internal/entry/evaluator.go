package entry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tuma-pay/tuma_pay/internal/phone"
	"github.com/tuma-pay/tuma_pay/internal/pin"
	"github.com/tuma-pay/tuma_pay/internal/session"
)

// Navigator receives redirect requests. Redirecting to the screen already
// active must be a no-op; the evaluator may be re-entered while a previous
// redirect is still in flight, so duplicate calls are expected and harmless.
type Navigator interface {
	Redirect(ctx context.Context, target Screen)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(ctx context.Context, target Screen)

func (f NavigatorFunc) Redirect(ctx context.Context, target Screen) { f(ctx, target) }

// Decision is the outcome of a single evaluation.
type Decision struct {
	State      State
	Target     Screen
	Redirected bool
}

// Evaluator runs the level-triggered entry check: every trigger re-reads the
// full persisted state and recomputes the decision, so redundant invocations
// are idempotent.
type Evaluator struct {
	oracle   session.Oracle
	verified *session.Registry
	pins     *pin.Manager
	phones   *phone.Capture
	logger   *slog.Logger
}

// NewEvaluator wires the entry router over its collaborators.
func NewEvaluator(oracle session.Oracle, verified *session.Registry, pins *pin.Manager, phones *phone.Capture, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{oracle: oracle, verified: verified, pins: pins, phones: phones, logger: logger}
}

// Evaluate recomputes the required state against current persisted values
// and redirects nav when the current screen does not satisfy it. Storage
// read failures are logged and treated as "value absent", failing open
// toward the earlier, stricter state.
func (e *Evaluator) Evaluate(ctx context.Context, current Screen, nav Navigator) Decision {
	var in Inputs

	identity, err := e.oracle.Current(ctx)
	if err == nil {
		in.SessionActive = true
	} else if !errors.Is(err, session.ErrNoSession) {
		// Identity missing when expected is still just NoSession.
		e.logger.Warn("session lookup failed", "error", err)
	}

	if in.SessionActive {
		phoneStored, err := e.phones.Exists(ctx, identity.ID)
		if err != nil {
			e.logger.Warn("phone lookup failed, treating as absent", "identity", identity.ID, "error", err)
		}
		in.PhoneStored = phoneStored

		pinStored, err := e.pins.Exists(ctx, identity.ID)
		if err != nil {
			e.logger.Warn("pin lookup failed, treating as absent", "identity", identity.ID, "error", err)
		}
		in.PinStored = pinStored

		in.Verified = e.verified.Verified(identity.ID)
	}

	state := Decide(in)
	decision := Decision{State: state, Target: state.Target()}

	if !e.needsRedirect(state, current) {
		decision.Target = current
		return decision
	}

	decision.Redirected = true
	if nav != nil {
		nav.Redirect(ctx, decision.Target)
	}
	return decision
}

// needsRedirect applies the loop-avoidance rules: a screen that already
// satisfies the state, or that the user is legitimately mid-flow on, is left
// alone.
func (e *Evaluator) needsRedirect(state State, current Screen) bool {
	switch state {
	case NoSession:
		return current != ScreenSignIn
	case NeedsPhone:
		// Mid-flow exception: the user may already have advanced from phone
		// capture into PIN creation before the phone write landed.
		return current != ScreenPhoneCapture && current != ScreenPinCreation
	case NeedsPin:
		return current != ScreenPinCreation
	case NeedsVerification:
		return current != ScreenPinVerification
	default:
		return !current.InAuthenticatedArea()
	}
}
