package backend

import (
	"context"
	"sync"
)

// StaticBackend simulates a healthy backend and records every call it
// receives, so tests can assert the re-gate never reached the wire.
type StaticBackend struct {
	mu sync.Mutex

	// Err, when set, is returned by all mutating calls.
	Err error

	// StaticBalance and StaticTransactions back the read endpoints.
	StaticBalance      int64
	StaticTransactions []Transaction
	Recipients         []Recipient

	CreatedWallets []CreateWalletRequest
	Deposits       []DepositRequest
	Transfers      []TransferRequest
	Searches       []string
}

// CreateWallet records the request.
func (b *StaticBackend) CreateWallet(_ context.Context, req CreateWalletRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	b.CreatedWallets = append(b.CreatedWallets, req)
	return nil
}

// InitiateDeposit records the request.
func (b *StaticBackend) InitiateDeposit(_ context.Context, req DepositRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	b.Deposits = append(b.Deposits, req)
	return nil
}

// Transfer records the request.
func (b *StaticBackend) Transfer(_ context.Context, req TransferRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	b.Transfers = append(b.Transfers, req)
	return nil
}

// SearchRecipients returns the configured recipients.
func (b *StaticBackend) SearchRecipients(_ context.Context, query string) ([]Recipient, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return nil, b.Err
	}
	b.Searches = append(b.Searches, query)
	return b.Recipients, nil
}

// Balance returns the configured balance.
func (b *StaticBackend) Balance(context.Context, string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return 0, b.Err
	}
	return b.StaticBalance, nil
}

// Transactions returns the configured history.
func (b *StaticBackend) Transactions(context.Context, string) ([]Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return nil, b.Err
	}
	return b.StaticTransactions, nil
}

// TransferCount reports how many transfers reached the backend.
func (b *StaticBackend) TransferCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Transfers)
}
