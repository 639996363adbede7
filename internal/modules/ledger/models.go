// Package ledger owns the append-only transaction log: executed trades and
// cash adjustments. Rows are created and deleted, never updated. Positions
// and balances are derived from this log at read time, so the log is the
// single source of truth.
package ledger

import (
	"fmt"
	"strings"
	"time"
)

// TradeSide represents the trade direction (BUY or SELL)
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// IsValid checks if the trade side is valid
func (ts TradeSide) IsValid() bool {
	return ts == TradeSideBuy || ts == TradeSideSell
}

// IsBuy returns true if this is a BUY trade
func (ts TradeSide) IsBuy() bool {
	return ts == TradeSideBuy
}

// IsSell returns true if this is a SELL trade
func (ts TradeSide) IsSell() bool {
	return ts == TradeSideSell
}

// TradeSideFromString creates a TradeSide from a string (case-insensitive)
func TradeSideFromString(value string) (TradeSide, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "BUY":
		return TradeSideBuy, nil
	case "SELL":
		return TradeSideSell, nil
	default:
		return "", fmt.Errorf("invalid trade side: %q", value)
	}
}

// CashKind represents the direction of a cash adjustment
type CashKind string

const (
	CashKindDeposit  CashKind = "DEPOSIT"
	CashKindWithdraw CashKind = "WITHDRAW"
)

// IsValid checks if the cash kind is valid
func (k CashKind) IsValid() bool {
	return k == CashKindDeposit || k == CashKindWithdraw
}

// CashKindFromString creates a CashKind from a string (case-insensitive)
func CashKindFromString(value string) (CashKind, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "DEPOSIT":
		return CashKindDeposit, nil
	case "WITHDRAW", "WITHDRAWAL":
		return CashKindWithdraw, nil
	default:
		return "", fmt.Errorf("invalid cash kind: %q", value)
	}
}

// Trade represents an executed spot trade. Immutable once created except for
// deletion. Note may carry a journal-entry back-reference tag ("[JE:<id>]").
type Trade struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Symbol    string    `json:"symbol"`
	Side      TradeSide `json:"side"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Fee       float64   `json:"fee"`
	Note      string    `json:"note,omitempty"`
	TradeAt   time.Time `json:"trade_at"`
	CreatedAt time.Time `json:"created_at"`
}

// CashDelta returns the signed settlement effect of the trade on the cash
// balance: buys cost quantity*price+fee, sells credit quantity*price-fee.
func (t Trade) CashDelta() float64 {
	if t.Side.IsBuy() {
		return -(t.Quantity*t.Price + t.Fee)
	}
	return t.Quantity*t.Price - t.Fee
}

// CashAdjustment represents a deposit or withdrawal of cash. Immutable once
// created except for deletion.
type CashAdjustment struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Kind      CashKind  `json:"kind"`
	Amount    float64   `json:"amount"`
	TradeAt   time.Time `json:"trade_at"`
	CreatedAt time.Time `json:"created_at"`
}

// CashDelta returns the signed effect on the cash balance.
func (c CashAdjustment) CashDelta() float64 {
	if c.Kind == CashKindDeposit {
		return c.Amount
	}
	return -c.Amount
}
