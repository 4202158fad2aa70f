package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient talks JSON to the remote wallet backend with an explicit
// per-call timeout. Failed calls never mutate local state.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewHTTPClient builds a backend client for the given base URL.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("backend url is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{},
	}, nil
}

type successEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CreateWallet provisions a wallet on the backend ledger.
func (c *HTTPClient) CreateWallet(ctx context.Context, req CreateWalletRequest) error {
	var out successEnvelope
	if err := c.post(ctx, "/api/create-wallet", req, &out); err != nil {
		return err
	}
	return checkSuccess(out)
}

// InitiateDeposit starts an M-Pesa STK push for the given number.
func (c *HTTPClient) InitiateDeposit(ctx context.Context, req DepositRequest) error {
	var out successEnvelope
	if err := c.post(ctx, "/api/mpesa-deposit", req, &out); err != nil {
		return err
	}
	return checkSuccess(out)
}

// Transfer executes a peer transfer in settlement units.
func (c *HTTPClient) Transfer(ctx context.Context, req TransferRequest) error {
	var out successEnvelope
	if err := c.post(ctx, "/api/send-money", req, &out); err != nil {
		return err
	}
	return checkSuccess(out)
}

// SearchRecipients looks up transfer targets by name fragment.
func (c *HTTPClient) SearchRecipients(ctx context.Context, query string) ([]Recipient, error) {
	var out struct {
		successEnvelope
		Users []Recipient `json:"users"`
	}
	if err := c.post(ctx, "/api/search-users", map[string]string{"query": query}, &out); err != nil {
		return nil, err
	}
	if err := checkSuccess(out.successEnvelope); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// Balance fetches the settlement-unit balance for the named wallet.
func (c *HTTPClient) Balance(ctx context.Context, name string) (int64, error) {
	var out struct {
		successEnvelope
		Balance int64 `json:"balance"`
	}
	if err := c.get(ctx, "/api/usdc-balance/"+url.PathEscape(name), &out); err != nil {
		return 0, err
	}
	if err := checkSuccess(out.successEnvelope); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// Transactions fetches the transaction history for the named wallet.
func (c *HTTPClient) Transactions(ctx context.Context, name string) ([]Transaction, error) {
	var out struct {
		successEnvelope
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.get(ctx, "/api/transactions/"+url.PathEscape(name), &out); err != nil {
		return nil, err
	}
	if err := checkSuccess(out.successEnvelope); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), out)
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return ErrTimeout
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrServer, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrServer, err)
	}
	return nil
}

func checkSuccess(env successEnvelope) error {
	if env.Success {
		return nil
	}
	if env.Message != "" {
		return fmt.Errorf("%w: %s", ErrServer, env.Message)
	}
	return ErrServer
}
