package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/tuma-pay/tuma_pay/internal/backend"
	"github.com/tuma-pay/tuma_pay/internal/logging"
	"github.com/tuma-pay/tuma_pay/internal/payment"
	"github.com/tuma-pay/tuma_pay/internal/phone"
	"github.com/tuma-pay/tuma_pay/internal/session"
	"github.com/tuma-pay/tuma_pay/internal/store"
)

func newService(be *backend.StaticBackend) (*Service, *phone.Capture) {
	phones := phone.NewCapture(store.NewMemoryStore(), "254", "7")
	return NewService(be, phones, payment.StaticRate(12900), logging.Discard()), phones
}

func TestHomeConvertsBalance(t *testing.T) {
	be := &backend.StaticBackend{
		StaticBalance:      200, // 2 USDC
		StaticTransactions: []backend.Transaction{{ID: "t1", Counterparty: "Levi Kigunda", Amount: 5, Currency: "USDC", Direction: "debit"}},
	}
	svc, _ := newService(be)

	view, err := svc.Home(context.Background(), session.Identity{ID: "u1", Name: "Alice"})
	if err != nil {
		t.Fatalf("home: %v", err)
	}
	if view.SettlementBalanceCents != 200 {
		t.Fatalf("settlement balance: %d", view.SettlementBalanceCents)
	}
	if view.DisplayBalanceCents != 25800 {
		t.Fatalf("display balance: %d", view.DisplayBalanceCents)
	}
	if len(view.Transactions) != 1 || view.Transactions[0].Counterparty != "Levi Kigunda" {
		t.Fatalf("transactions: %+v", view.Transactions)
	}
}

func TestDepositUsesStoredPhone(t *testing.T) {
	be := &backend.StaticBackend{}
	svc, phones := newService(be)
	ctx := context.Background()

	if err := svc.Deposit(ctx, "u1", 25800); !errors.Is(err, ErrNoPhone) {
		t.Fatalf("expected ErrNoPhone, got %v", err)
	}
	if len(be.Deposits) != 0 {
		t.Fatalf("no deposit should reach the backend without a phone")
	}

	if _, err := phones.Submit(ctx, "u1", "0712345678"); err != nil {
		t.Fatalf("submit phone: %v", err)
	}
	if err := svc.Deposit(ctx, "u1", 25800); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if len(be.Deposits) != 1 {
		t.Fatalf("expected one deposit, got %d", len(be.Deposits))
	}
	if be.Deposits[0].PhoneNumber != "254712345678" || be.Deposits[0].Amount != 200 {
		t.Fatalf("unexpected deposit %+v", be.Deposits[0])
	}
}

func TestProvisionSendsStoredPhoneAndPin(t *testing.T) {
	be := &backend.StaticBackend{}
	svc, phones := newService(be)
	ctx := context.Background()

	if _, err := phones.Submit(ctx, "u1", "712345678"); err != nil {
		t.Fatalf("submit phone: %v", err)
	}
	if err := svc.Provision(ctx, session.Identity{ID: "u1", Name: "Alice"}, "4321"); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if len(be.CreatedWallets) != 1 {
		t.Fatalf("expected one create-wallet call")
	}
	created := be.CreatedWallets[0]
	if created.Name != "Alice" || created.PIN != "4321" || created.PhoneNumber != "254712345678" {
		t.Fatalf("unexpected request %+v", created)
	}
}
