package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spotledger/spotledger/internal/domain"
)

// TradeRepository handles trade persistence in the ledger database.
// All queries are scoped by account ID; cross-account reads are not possible
// through this API.
type TradeRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(ledgerDB *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "trade").Logger(),
	}
}

// Create validates and inserts a new trade record. A missing ID is generated.
// The row is append-only: there is no update path.
func (r *TradeRepository) Create(trade Trade) (Trade, error) {
	if !trade.Side.IsValid() {
		return Trade{}, fmt.Errorf("%w: side must be BUY or SELL", domain.ErrInvalidInput)
	}
	if trade.AccountID == "" {
		return Trade{}, fmt.Errorf("%w: account id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(trade.Symbol) == "" {
		return Trade{}, fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}
	if trade.Quantity <= 0 {
		return Trade{}, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	if trade.Price <= 0 {
		return Trade{}, fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput)
	}
	if trade.Fee < 0 {
		return Trade{}, fmt.Errorf("%w: fee must not be negative", domain.ErrInvalidInput)
	}

	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	if trade.TradeAt.IsZero() {
		trade.TradeAt = time.Now().UTC()
	}
	trade.Symbol = strings.ToUpper(strings.TrimSpace(trade.Symbol))
	trade.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO trades
		(id, account_id, symbol, side, quantity, price, fee, note, trade_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.ledgerDB.Exec(query,
		trade.ID,
		trade.AccountID,
		trade.Symbol,
		string(trade.Side),
		trade.Quantity,
		trade.Price,
		trade.Fee,
		nullString(trade.Note),
		trade.TradeAt.Format(time.RFC3339Nano),
		trade.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Trade{}, fmt.Errorf("failed to create trade: %w", err)
	}

	r.log.Info().
		Str("trade_id", trade.ID).
		Str("account_id", trade.AccountID).
		Str("symbol", trade.Symbol).
		Str("side", string(trade.Side)).
		Float64("quantity", trade.Quantity).
		Float64("price", trade.Price).
		Msg("Trade created")

	return trade, nil
}

// GetByID retrieves a trade owned by the account.
// Returns domain.ErrNotFound if the row is absent or owned by another account.
func (r *TradeRepository) GetByID(accountID, tradeID string) (*Trade, error) {
	query := `
		SELECT id, account_id, symbol, side, quantity, price, fee, note, trade_at, created_at
		FROM trades
		WHERE id = ? AND account_id = ?
	`

	row := r.ledgerDB.QueryRow(query, tradeID, accountID)
	trade, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade %s: %w", tradeID, err)
	}

	return &trade, nil
}

// ListByAccount retrieves all trades for an account, oldest first.
func (r *TradeRepository) ListByAccount(accountID string) ([]Trade, error) {
	query := `
		SELECT id, account_id, symbol, side, quantity, price, fee, note, trade_at, created_at
		FROM trades
		WHERE account_id = ?
		ORDER BY trade_at ASC, created_at ASC
	`

	rows, err := r.ledgerDB.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

// ListBySymbol retrieves all trades for one account+symbol, oldest first.
// This is the input to the position fold, so ordering is deterministic.
func (r *TradeRepository) ListBySymbol(accountID, symbol string) ([]Trade, error) {
	query := `
		SELECT id, account_id, symbol, side, quantity, price, fee, note, trade_at, created_at
		FROM trades
		WHERE account_id = ? AND symbol = ?
		ORDER BY trade_at ASC, created_at ASC
	`

	rows, err := r.ledgerDB.Query(query, accountID, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return nil, fmt.Errorf("failed to list trades for symbol: %w", err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

// Delete removes a trade owned by the account.
// Returns domain.ErrNotFound when no row was removed.
func (r *TradeRepository) Delete(accountID, tradeID string) error {
	result, err := r.ledgerDB.Exec(
		"DELETE FROM trades WHERE id = ? AND account_id = ?",
		tradeID, accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete trade %s: %w", tradeID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	r.log.Info().
		Str("trade_id", tradeID).
		Str("account_id", accountID).
		Msg("Trade deleted")

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanTrade
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(s scanner) (Trade, error) {
	var trade Trade
	var side string
	var note sql.NullString
	var tradeAt, createdAt string

	err := s.Scan(
		&trade.ID,
		&trade.AccountID,
		&trade.Symbol,
		&side,
		&trade.Quantity,
		&trade.Price,
		&trade.Fee,
		&note,
		&tradeAt,
		&createdAt,
	)
	if err != nil {
		return Trade{}, err
	}

	trade.Side = TradeSide(side)
	trade.Note = note.String
	if t, err := time.Parse(time.RFC3339Nano, tradeAt); err == nil {
		trade.TradeAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		trade.CreatedAt = t
	}

	return trade, nil
}

func collectTrades(rows *sql.Rows) ([]Trade, error) {
	var trades []Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}
	return trades, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
