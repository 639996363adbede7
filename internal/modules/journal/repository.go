package journal

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

// Repository handles journal entry persistence.
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new journal entry repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "journal").Logger(),
	}
}

// Create validates and inserts a new journal entry. A missing ID is generated
// and an empty status defaults to PLANNED.
func (r *Repository) Create(entry Entry) (Entry, error) {
	if entry.AccountID == "" {
		return Entry{}, fmt.Errorf("%w: account id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(entry.Symbol) == "" {
		return Entry{}, fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}
	if entry.Status == "" {
		entry.Status = StatusPlanned
	}
	if !entry.Status.IsValid() {
		return Entry{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, entry.Status)
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Symbol = strings.ToUpper(strings.TrimSpace(entry.Symbol))
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	query := `
		INSERT INTO journal_entries
		(id, account_id, symbol, side, status, entry_price, exit_price, amount, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.ledgerDB.Exec(query,
		entry.ID,
		entry.AccountID,
		entry.Symbol,
		entry.Side,
		string(entry.Status),
		entry.EntryPrice,
		entry.ExitPrice,
		entry.Amount,
		nullString(entry.Notes),
		entry.CreatedAt.Format(time.RFC3339Nano),
		entry.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to create journal entry: %w", err)
	}

	r.log.Info().
		Str("entry_id", entry.ID).
		Str("account_id", entry.AccountID).
		Str("symbol", entry.Symbol).
		Msg("Journal entry created")

	return entry, nil
}

// GetByID retrieves a journal entry owned by the account.
// Returns domain.ErrNotFound if absent or owned by another account.
func (r *Repository) GetByID(accountID, entryID string) (*Entry, error) {
	query := `
		SELECT id, account_id, symbol, side, status, entry_price, exit_price, amount, notes, created_at, updated_at
		FROM journal_entries
		WHERE id = ? AND account_id = ?
	`

	row := r.ledgerDB.QueryRow(query, entryID, accountID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry %s: %w", entryID, err)
	}

	return &entry, nil
}

// ListByAccount retrieves all journal entries for an account, newest first.
func (r *Repository) ListByAccount(accountID string) ([]Entry, error) {
	query := `
		SELECT id, account_id, symbol, side, status, entry_price, exit_price, amount, notes, created_at, updated_at
		FROM journal_entries
		WHERE account_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.ledgerDB.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal entries: %w", err)
	}

	return entries, nil
}

// UpdateStatus moves an entry through its lifecycle.
// Returns domain.ErrNotFound when no row was updated.
func (r *Repository) UpdateStatus(accountID, entryID string, status EntryStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	result, err := r.ledgerDB.Exec(
		"UPDATE journal_entries SET status = ?, updated_at = ? WHERE id = ? AND account_id = ?",
		string(status), time.Now().UTC().Format(time.RFC3339Nano), entryID, accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update journal entry status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// DeleteByID removes a journal entry. The operation is idempotent: deleting an
// entry that is already gone is not an error. Returns whether a row was removed.
func (r *Repository) DeleteByID(accountID, entryID string) (bool, error) {
	result, err := r.ledgerDB.Exec(
		"DELETE FROM journal_entries WHERE id = ? AND account_id = ?",
		entryID, accountID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete journal entry %s: %w", entryID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		r.log.Info().
			Str("entry_id", entryID).
			Str("account_id", accountID).
			Msg("Journal entry deleted")
	}

	return rowsAffected > 0, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (Entry, error) {
	var entry Entry
	var status string
	var notes sql.NullString
	var entryPrice, exitPrice, amount sql.NullFloat64
	var createdAt, updatedAt string

	err := s.Scan(
		&entry.ID,
		&entry.AccountID,
		&entry.Symbol,
		&entry.Side,
		&status,
		&entryPrice,
		&exitPrice,
		&amount,
		&notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return Entry{}, err
	}

	entry.Status = EntryStatus(status)
	entry.Notes = notes.String
	if entryPrice.Valid {
		entry.EntryPrice = &entryPrice.Float64
	}
	if exitPrice.Valid {
		entry.ExitPrice = &exitPrice.Float64
	}
	if amount.Valid {
		entry.Amount = &amount.Float64
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		entry.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		entry.UpdatedAt = t
	}

	return entry, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
