package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// ledgerSchema is the single source of truth for the ledger database.
// Trades and cash adjustments are append-only: rows are inserted and deleted,
// never updated. Balances and positions are derived at read time.
const ledgerSchema = `
CREATE TABLE IF NOT EXISTS trades (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    symbol TEXT NOT NULL,
    side TEXT NOT NULL CHECK(side IN ('BUY', 'SELL')),
    quantity REAL NOT NULL CHECK(quantity > 0),
    price REAL NOT NULL CHECK(price > 0),
    fee REAL NOT NULL DEFAULT 0 CHECK(fee >= 0),
    note TEXT,
    trade_at TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_account_symbol ON trades(account_id, symbol);
CREATE INDEX IF NOT EXISTS idx_trades_account_trade_at ON trades(account_id, trade_at);

CREATE TABLE IF NOT EXISTS cash_adjustments (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    kind TEXT NOT NULL CHECK(kind IN ('DEPOSIT', 'WITHDRAW')),
    amount REAL NOT NULL CHECK(amount > 0),
    trade_at TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cash_adjustments_account ON cash_adjustments(account_id);

CREATE TABLE IF NOT EXISTS journal_entries (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    symbol TEXT NOT NULL,
    side TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'PLANNED',
    entry_price REAL,
    exit_price REAL,
    amount REAL,
    notes TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_entries_account ON journal_entries(account_id);
`

// Migrate applies the ledger schema. Safe to call on every startup.
func (db *DB) Migrate() error {
	return WithTransaction(db.conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(ledgerSchema); err != nil {
			// Schema already applied on an older SQLite that predates
			// IF NOT EXISTS on indexes - not a failure.
			errStr := err.Error()
			if strings.Contains(errStr, "already exists") ||
				strings.Contains(errStr, "duplicate column") {
				return nil
			}
			return fmt.Errorf("failed to apply ledger schema: %w", err)
		}
		return nil
	})
}
