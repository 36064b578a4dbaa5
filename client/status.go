package client

import (
	"context"
	"strings"

	"github.com/goliatone/go-wallet-auth/poll"
)

// Status values reported by the API for balance logs and transactions
const (
	StatusPending = "Pending"
	StatusAccept  = "Accept"
	StatusReject  = "Reject"
	StatusCancel  = "Cancel"
)

// IsTerminalStatus reports whether the remote system has settled the
// record. Anything that is not accepted, rejected or cancelled is pending.
func IsTerminalStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "accept", "accepted", "reject", "rejected", "cancel", "cancelled", "canceled":
		return true
	default:
		return false
	}
}

// IsAccepted reports whether status is the accepted terminal value
func IsAccepted(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "accept", "accepted":
		return true
	default:
		return false
	}
}

// BalanceLog is a ledger entry written by the remote banking system
type BalanceLog struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Amount float64        `json:"amount"`
	Raw    map[string]any `json:"-"`
}

// Transaction is a deposit or withdrawal request tracked by the API
type Transaction struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Type   string         `json:"type"`
	Amount float64        `json:"amount"`
	Raw    map[string]any `json:"-"`
}

// BalanceLog fetches one balance log
func (c *Client) BalanceLog(ctx context.Context, id string) (*BalanceLog, error) {
	payload, err := c.getRecord(ctx, opBalanceLog, c.endpoints.BalanceLog, id)
	if err != nil {
		return nil, err
	}

	return &BalanceLog{
		ID:     stringField(payload, "id", "_id"),
		Status: stringField(payload, "status"),
		Amount: floatField(payload, "amount"),
		Raw:    payload,
	}, nil
}

// Transaction fetches one transaction
func (c *Client) Transaction(ctx context.Context, id string) (*Transaction, error) {
	payload, err := c.getRecord(ctx, opTransaction, c.endpoints.Transaction, id)
	if err != nil {
		return nil, err
	}

	return &Transaction{
		ID:     stringField(payload, "id", "_id"),
		Status: stringField(payload, "status"),
		Type:   stringField(payload, "type", "transactionType"),
		Amount: floatField(payload, "amount"),
		Raw:    payload,
	}, nil
}

// WaitForBalanceLog polls the balance log until it reaches a terminal status
func (c *Client) WaitForBalanceLog(ctx context.Context, id string, opts ...poll.Option) (*BalanceLog, error) {
	opts = append([]poll.Option{c.attemptLogger(opBalanceLog, id)}, opts...)
	return poll.Until(ctx,
		func(ctx context.Context) (*BalanceLog, error) {
			return c.BalanceLog(ctx, id)
		},
		func(log *BalanceLog) bool {
			return log != nil && IsTerminalStatus(log.Status)
		},
		opts...,
	)
}

// WaitForTransaction polls the transaction until it reaches a terminal status
func (c *Client) WaitForTransaction(ctx context.Context, id string, opts ...poll.Option) (*Transaction, error) {
	opts = append([]poll.Option{c.attemptLogger(opTransaction, id)}, opts...)
	return poll.Until(ctx,
		func(ctx context.Context) (*Transaction, error) {
			return c.Transaction(ctx, id)
		},
		func(tx *Transaction) bool {
			return tx != nil && IsTerminalStatus(tx.Status)
		},
		opts...,
	)
}

func (c *Client) attemptLogger(op, id string) poll.Option {
	return poll.WithOnAttempt(func(attempt int, err error) {
		if err != nil {
			c.logger.Debug("status poll failed", "operation", op, "id", id, "attempt", attempt, "error", err)
			return
		}
		c.logger.Debug("status polled", "operation", op, "id", id, "attempt", attempt)
	})
}

func (c *Client) getRecord(ctx context.Context, op, endpoint, id string) (map[string]any, error) {
	var payload map[string]any
	apiErr := &apiError{}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&payload).
		SetError(apiErr).
		Get(endpoint)
	if err != nil {
		return nil, transportError(op, endpoint, err)
	}

	if resp.IsError() {
		return nil, responseError(op, endpoint, resp.StatusCode(), apiErr)
	}

	if nested, ok := payload["data"].(map[string]any); ok && len(nested) > 0 {
		return nested, nil
	}
	return payload, nil
}

func stringField(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func floatField(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
