// Package journal stores trade-plan entries. The ledger does not own their
// lifecycle, but deleting a trade that carries a journal back-reference
// cascades into this store.
package journal

import (
	"fmt"
	"strings"
	"time"
)

// EntryStatus tracks a plan through its lifecycle.
type EntryStatus string

const (
	StatusPlanned  EntryStatus = "PLANNED"
	StatusExecuted EntryStatus = "EXECUTED"
	StatusClosed   EntryStatus = "CLOSED"
)

// IsValid checks if the status is one of the known values
func (s EntryStatus) IsValid() bool {
	return s == StatusPlanned || s == StatusExecuted || s == StatusClosed
}

// EntryStatusFromString creates an EntryStatus from a string (case-insensitive)
func EntryStatusFromString(value string) (EntryStatus, error) {
	status := EntryStatus(strings.ToUpper(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid journal entry status: %q", value)
	}
	return status, nil
}

// Entry represents a planned or executed trade record.
type Entry struct {
	ID         string      `json:"id"`
	AccountID  string      `json:"account_id"`
	Symbol     string      `json:"symbol"`
	Side       string      `json:"side"`
	Status     EntryStatus `json:"status"`
	EntryPrice *float64    `json:"entry_price,omitempty"`
	ExitPrice  *float64    `json:"exit_price,omitempty"`
	Amount     *float64    `json:"amount,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
