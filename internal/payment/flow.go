package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tuma-pay/tuma_pay/internal/backend"
	"github.com/tuma-pay/tuma_pay/internal/pin"
)

// Step is the position in the transfer flow. The UI shows exactly one step
// at a time; the flow only advances through the steps in order.
type Step string

const (
	StepSelect  Step = "select"
	StepAmount  Step = "amount"
	StepConfirm Step = "confirm"
	StepPin     Step = "pin"
	StepSuccess Step = "success"
)

var (
	// ErrNoFlow indicates no transfer is in progress for the identity.
	ErrNoFlow = errors.New("no transfer in progress")
	// ErrWrongStep indicates the operation does not match the flow's
	// current step.
	ErrWrongStep = errors.New("operation out of order")
	// ErrBadAmount indicates a non-positive amount.
	ErrBadAmount = errors.New("amount must be positive")
)

// Flow is one in-progress transfer. A single flow exists per identity at a
// time; starting a new one discards the old.
type Flow struct {
	IdentityID  string
	SenderName  string
	Step        Step
	Recipient   string
	AmountCents int64 // display currency (KES cents)
}

// RateSource supplies the display-to-settlement conversion rate in
// hundredths. Injected so the rate is configurable and mockable.
type RateSource interface {
	Rate(ctx context.Context) int64
}

// StaticRate is a fixed-rate source for tests and dev mode.
type StaticRate int64

// Rate returns the fixed rate.
func (r StaticRate) Rate(context.Context) int64 { return int64(r) }

// Service drives the select → amount → confirm → pin → success transfer
// flow. Before anything reaches the backend, the stored PIN is re-checked —
// independently of the app-open verification — and only an exact match
// releases the transfer.
type Service struct {
	pins    *pin.Manager
	client  backend.Client
	rate    RateSource
	logger  *slog.Logger

	mu    sync.Mutex
	flows map[string]*Flow
}

// NewService builds the payment flow service.
func NewService(pins *pin.Manager, client backend.Client, rate RateSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{pins: pins, client: client, rate: rate, logger: logger, flows: make(map[string]*Flow)}
}

// Start opens a fresh flow for the identity, discarding any previous one.
func (s *Service) Start(identityID, senderName string) Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow := &Flow{IdentityID: identityID, SenderName: senderName, Step: StepSelect}
	s.flows[identityID] = flow
	return *flow
}

// Current returns a snapshot of the identity's in-progress flow.
func (s *Service) Current(identityID string) (Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[identityID]
	if !ok {
		return Flow{}, ErrNoFlow
	}
	return *flow, nil
}

// Search proxies recipient search to the backend.
func (s *Service) Search(ctx context.Context, query string) ([]backend.Recipient, error) {
	return s.client.SearchRecipients(ctx, query)
}

// SelectRecipient records the transfer target and advances to amount entry.
func (s *Service) SelectRecipient(identityID, name string) (Flow, error) {
	if name == "" {
		return Flow{}, fmt.Errorf("recipient name is required")
	}
	return s.advance(identityID, StepSelect, func(f *Flow) {
		f.Recipient = name
		f.Step = StepAmount
	})
}

// EnterAmount records the display-currency amount and advances to
// confirmation.
func (s *Service) EnterAmount(identityID string, amountCents int64) (Flow, error) {
	if amountCents <= 0 {
		return Flow{}, ErrBadAmount
	}
	return s.advance(identityID, StepAmount, func(f *Flow) {
		f.AmountCents = amountCents
		f.Step = StepConfirm
	})
}

// ConfirmDetails acknowledges the summary and advances to the PIN gate.
func (s *Service) ConfirmDetails(identityID string) (Flow, error) {
	return s.advance(identityID, StepConfirm, func(f *Flow) {
		f.Step = StepPin
	})
}

// SubmitPIN re-validates the PIN against the stored value (current location
// first, legacy fallback second) and, only on a match, converts the amount
// and sends the transfer. A rejection clears nothing server-side and leaves
// the flow on the pin step for an immediate retry; no backend call is made.
// Backend failures also leave the flow in place so the user can retry
// manually.
func (s *Service) SubmitPIN(ctx context.Context, identityID, candidate string) (Flow, error) {
	snapshot, err := s.snapshotAt(identityID, StepPin)
	if err != nil {
		return Flow{}, err
	}

	if err := s.pins.VerifyWithLegacy(ctx, identityID, candidate); err != nil {
		return snapshot, err
	}

	rate := s.rate.Rate(ctx)
	settlement := Convert(snapshot.AmountCents, rate)
	if settlement <= 0 {
		return snapshot, ErrBadAmount
	}

	req := backend.TransferRequest{
		SenderName:    snapshot.SenderName,
		PIN:           candidate,
		RecipientName: snapshot.Recipient,
		Amount:        settlement,
	}
	if err := s.client.Transfer(ctx, req); err != nil {
		s.logger.Warn("transfer failed", "identity", identityID, "recipient", snapshot.Recipient, "error", err)
		return snapshot, err
	}

	flow, err := s.advance(identityID, StepPin, func(f *Flow) {
		f.Step = StepSuccess
	})
	if err != nil {
		// The flow was discarded mid-submit; the transfer already landed, so
		// report success with the snapshot.
		snapshot.Step = StepSuccess
		return snapshot, nil
	}
	s.logger.Info("transfer completed", "identity", identityID, "recipient", flow.Recipient, "settlement_amount", settlement)
	return flow, nil
}

// Back steps the flow one screen backward, mirroring the UI's back buttons.
func (s *Service) Back(identityID string) (Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[identityID]
	if !ok {
		return Flow{}, ErrNoFlow
	}
	switch flow.Step {
	case StepAmount:
		flow.Step = StepSelect
		flow.Recipient = ""
	case StepConfirm:
		flow.Step = StepAmount
		flow.AmountCents = 0
	case StepPin:
		flow.Step = StepConfirm
	default:
		return *flow, ErrWrongStep
	}
	return *flow, nil
}

// Close discards the identity's flow, e.g. when the sheet is dismissed.
func (s *Service) Close(identityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, identityID)
}

func (s *Service) advance(identityID string, expect Step, mutate func(*Flow)) (Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[identityID]
	if !ok {
		return Flow{}, ErrNoFlow
	}
	if flow.Step != expect {
		return *flow, fmt.Errorf("%w: at %s", ErrWrongStep, flow.Step)
	}
	mutate(flow)
	return *flow, nil
}

func (s *Service) snapshotAt(identityID string, expect Step) (Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[identityID]
	if !ok {
		return Flow{}, ErrNoFlow
	}
	if flow.Step != expect {
		return *flow, fmt.Errorf("%w: at %s", ErrWrongStep, flow.Step)
	}
	return *flow, nil
}
