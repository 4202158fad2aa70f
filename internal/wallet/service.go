package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tuma-pay/tuma_pay/internal/backend"
	"github.com/tuma-pay/tuma_pay/internal/payment"
	"github.com/tuma-pay/tuma_pay/internal/phone"
	"github.com/tuma-pay/tuma_pay/internal/session"
	"github.com/tuma-pay/tuma_pay/internal/store"
)

// ErrNoPhone indicates the identity has no stored phone number yet, so
// deposit initiation and wallet provisioning cannot proceed.
var ErrNoPhone = errors.New("no phone number on record")

// HomeView is the authenticated wallet home payload: balances in both
// currencies plus the transaction history, all owned by the remote backend.
type HomeView struct {
	DisplayBalanceCents    int64                 `json:"display_balance_cents"`
	SettlementBalanceCents int64                 `json:"settlement_balance_cents"`
	RateHundredths         int64                 `json:"rate_hundredths"`
	Transactions           []backend.Transaction `json:"transactions"`
}

// Service composes backend reads with the display conversion. It holds no
// money state of its own.
type Service struct {
	client backend.Client
	phones *phone.Capture
	rate   payment.RateSource
	logger *slog.Logger
}

// NewService builds the wallet view service.
func NewService(client backend.Client, phones *phone.Capture, rate payment.RateSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, phones: phones, rate: rate, logger: logger}
}

// Home fetches the settlement balance and history and derives the display
// balance with the current rate.
func (s *Service) Home(ctx context.Context, identity session.Identity) (HomeView, error) {
	settlement, err := s.client.Balance(ctx, identity.Name)
	if err != nil {
		return HomeView{}, fmt.Errorf("fetch balance: %w", err)
	}
	transactions, err := s.client.Transactions(ctx, identity.Name)
	if err != nil {
		return HomeView{}, fmt.Errorf("fetch transactions: %w", err)
	}

	rate := s.rate.Rate(ctx)
	return HomeView{
		DisplayBalanceCents:    settlement * rate / 100,
		SettlementBalanceCents: settlement,
		RateHundredths:         rate,
		Transactions:           transactions,
	}, nil
}

// Deposit initiates an M-Pesa push for the stored phone number. The amount
// arrives in display cents and is converted before transmission; nothing is
// written locally before the backend confirms.
func (s *Service) Deposit(ctx context.Context, identityID string, displayCents int64) error {
	if displayCents <= 0 {
		return payment.ErrBadAmount
	}
	number, err := s.phones.Stored(ctx, identityID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoPhone
	}
	if err != nil {
		return fmt.Errorf("read phone: %w", err)
	}

	amount := payment.Convert(displayCents, s.rate.Rate(ctx))
	if amount <= 0 {
		return payment.ErrBadAmount
	}
	return s.client.InitiateDeposit(ctx, backend.DepositRequest{PhoneNumber: number, Amount: amount})
}

// Provision asks the backend to create the wallet once the PIN gate is
// complete. Provisioning failures are surfaced but leave local gate state
// untouched; the gate retries on the next completion.
func (s *Service) Provision(ctx context.Context, identity session.Identity, pinValue string) error {
	number, err := s.phones.Stored(ctx, identity.ID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoPhone
	}
	if err != nil {
		return fmt.Errorf("read phone: %w", err)
	}
	return s.client.CreateWallet(ctx, backend.CreateWalletRequest{
		Name:        identity.Name,
		PIN:         pinValue,
		PhoneNumber: number,
	})
}
