package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spotledger/spotledger/internal/domain"
)

// CashRepository handles cash adjustment persistence in the ledger database.
// Adjustments are append-only; the cash balance is never stored, it is derived
// from this table plus trade settlement effects.
type CashRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewCashRepository creates a new cash adjustment repository
func NewCashRepository(ledgerDB *sql.DB, log zerolog.Logger) *CashRepository {
	return &CashRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "cash_adjustment").Logger(),
	}
}

// Create validates and inserts a new cash adjustment. A missing ID is generated.
func (r *CashRepository) Create(adj CashAdjustment) (CashAdjustment, error) {
	if !adj.Kind.IsValid() {
		return CashAdjustment{}, fmt.Errorf("%w: kind must be DEPOSIT or WITHDRAW", domain.ErrInvalidInput)
	}
	if adj.AccountID == "" {
		return CashAdjustment{}, fmt.Errorf("%w: account id is required", domain.ErrInvalidInput)
	}
	if adj.Amount <= 0 {
		return CashAdjustment{}, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}

	if adj.ID == "" {
		adj.ID = uuid.NewString()
	}
	if adj.TradeAt.IsZero() {
		adj.TradeAt = time.Now().UTC()
	}
	adj.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO cash_adjustments (id, account_id, kind, amount, trade_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.ledgerDB.Exec(query,
		adj.ID,
		adj.AccountID,
		string(adj.Kind),
		adj.Amount,
		adj.TradeAt.Format(time.RFC3339Nano),
		adj.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return CashAdjustment{}, fmt.Errorf("failed to create cash adjustment: %w", err)
	}

	r.log.Info().
		Str("adjustment_id", adj.ID).
		Str("account_id", adj.AccountID).
		Str("kind", string(adj.Kind)).
		Float64("amount", adj.Amount).
		Msg("Cash adjustment created")

	return adj, nil
}

// ListByAccount retrieves all cash adjustments for an account, oldest first.
func (r *CashRepository) ListByAccount(accountID string) ([]CashAdjustment, error) {
	query := `
		SELECT id, account_id, kind, amount, trade_at, created_at
		FROM cash_adjustments
		WHERE account_id = ?
		ORDER BY trade_at ASC, created_at ASC
	`

	rows, err := r.ledgerDB.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cash adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []CashAdjustment
	for rows.Next() {
		var adj CashAdjustment
		var kind, tradeAt, createdAt string

		err := rows.Scan(&adj.ID, &adj.AccountID, &kind, &adj.Amount, &tradeAt, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cash adjustment: %w", err)
		}

		adj.Kind = CashKind(kind)
		if t, err := time.Parse(time.RFC3339Nano, tradeAt); err == nil {
			adj.TradeAt = t
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			adj.CreatedAt = t
		}

		adjustments = append(adjustments, adj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cash adjustments: %w", err)
	}

	return adjustments, nil
}

// Delete removes a cash adjustment owned by the account.
// Returns domain.ErrNotFound when no row was removed.
func (r *CashRepository) Delete(accountID, adjustmentID string) error {
	result, err := r.ledgerDB.Exec(
		"DELETE FROM cash_adjustments WHERE id = ? AND account_id = ?",
		adjustmentID, accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete cash adjustment %s: %w", adjustmentID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	r.log.Info().
		Str("adjustment_id", adjustmentID).
		Str("account_id", accountID).
		Msg("Cash adjustment deleted")

	return nil
}
