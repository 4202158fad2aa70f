package backend

import (
	"context"
	"errors"
	"time"
)

// The remote backend owns all money movement: wallet provisioning, M-Pesa
// deposits, USDC transfers, the ledger itself. This package only defines the
// calls the gate and payment flow issue to it.

var (
	// ErrTimeout indicates the call exceeded its deadline. There is no
	// automatic retry; the user retries manually.
	ErrTimeout = errors.New("backend timeout")
	// ErrUnreachable indicates a transport-level failure before any response.
	ErrUnreachable = errors.New("backend unreachable")
	// ErrServer indicates the backend answered with a failure payload or a
	// non-success status.
	ErrServer = errors.New("backend error")
)

// CreateWalletRequest provisions a wallet for a newly gated user.
type CreateWalletRequest struct {
	Name        string `json:"name"`
	PIN         string `json:"pin"`
	PhoneNumber string `json:"phoneNumber"`
}

// DepositRequest initiates an M-Pesa STK push for the stored phone number.
// Amount is in settlement units (USDC cents).
type DepositRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Amount      int64  `json:"amount"`
}

// TransferRequest executes a peer transfer. Amount is in settlement units,
// already converted from the display currency.
type TransferRequest struct {
	SenderName    string `json:"senderName"`
	PIN           string `json:"pin"`
	RecipientName string `json:"recipientName"`
	Amount        int64  `json:"amount"`
}

// Recipient is a transfer target returned by the search endpoint.
type Recipient struct {
	Name string `json:"name"`
}

// Transaction is one ledger entry in the identity's history.
type Transaction struct {
	ID           string    `json:"id"`
	Counterparty string    `json:"counterparty"`
	Amount       int64     `json:"amount"`
	Currency     string    `json:"currency"`
	Direction    string    `json:"direction"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Client is the narrow contract to the remote wallet backend.
type Client interface {
	CreateWallet(ctx context.Context, req CreateWalletRequest) error
	InitiateDeposit(ctx context.Context, req DepositRequest) error
	Transfer(ctx context.Context, req TransferRequest) error
	SearchRecipients(ctx context.Context, query string) ([]Recipient, error)
	Balance(ctx context.Context, name string) (int64, error)
	Transactions(ctx context.Context, name string) ([]Transaction, error)
}
