// Package portfolio derives positions and cash balances from the transaction
// log. Nothing in this package is persisted: every read folds over the ledger,
// which keeps the derived state incapable of drifting from history.
package portfolio

// Position is the derived holding for one (account, symbol) pair.
// AvgEntryPrice is defined only while Quantity > 0 and is always recomputed
// from scratch as Invested/Quantity, never updated incrementally.
type Position struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	InvestedUSD   float64 `json:"invested_usd"`
	AvgEntryPrice float64 `json:"avg_entry_price_usd"`
}

// CashBalance is the derived cash state for one account.
type CashBalance struct {
	AccountID  string  `json:"account_id"`
	BalanceUSD float64 `json:"balance_usd"`
}
