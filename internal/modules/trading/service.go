package trading

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/spotledger/spotledger/internal/domain"
	"github.com/spotledger/spotledger/internal/events"
	"github.com/spotledger/spotledger/internal/modules/ledger"
)

// TradeStore is the trade persistence surface the mutation service needs.
type TradeStore interface {
	Create(trade ledger.Trade) (ledger.Trade, error)
	GetByID(accountID, tradeID string) (*ledger.Trade, error)
	Delete(accountID, tradeID string) error
}

// CashStore is the cash adjustment persistence surface.
type CashStore interface {
	Create(adj ledger.CashAdjustment) (ledger.CashAdjustment, error)
	Delete(accountID, adjustmentID string) error
}

// JournalStore is the journal entry surface consumed by the deletion cascade.
// DeleteByID is idempotent: a missing entry reports (false, nil).
type JournalStore interface {
	DeleteByID(accountID, entryID string) (bool, error)
}

// TradeInput carries a proposed trade mutation.
type TradeInput struct {
	Symbol   string
	Side     ledger.TradeSide
	Quantity float64
	Price    float64
	Fee      float64
	Note     string
	TradeAt  time.Time
}

// Service orchestrates ledger mutations: validate against derived state, then
// append. The validate-then-append sequence spans two store operations, so a
// per-account mutex serializes mutations for the same account; without it two
// concurrent sells could each validate against the same pre-mutation snapshot
// and together overdraw the position. Different accounts never contend.
type Service struct {
	tradeStore   TradeStore
	cashStore    CashStore
	journalStore JournalStore
	safety       *SafetyService
	eventManager *events.Manager
	log          zerolog.Logger

	mu           sync.Mutex
	accountLocks map[string]*sync.Mutex
}

// NewService creates a new trading service
func NewService(
	tradeStore TradeStore,
	cashStore CashStore,
	journalStore JournalStore,
	safety *SafetyService,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Service {
	return &Service{
		tradeStore:   tradeStore,
		cashStore:    cashStore,
		journalStore: journalStore,
		safety:       safety,
		eventManager: eventManager,
		log:          log.With().Str("service", "trading").Logger(),
		accountLocks: make(map[string]*sync.Mutex),
	}
}

// lockAccount returns the mutex serializing mutations for one account.
func (s *Service) lockAccount(accountID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.accountLocks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.accountLocks[accountID] = lock
	}
	return lock
}

// RecordTrade validates and appends a trade. Buys are checked for cash
// sufficiency, sells for held quantity. On success the appended trade is
// returned; on failure nothing is persisted.
func (s *Service) RecordTrade(accountID string, input TradeInput) (ledger.Trade, error) {
	if !input.Side.IsValid() {
		return ledger.Trade{}, fmt.Errorf("%w: side must be BUY or SELL", domain.ErrInvalidInput)
	}
	if input.Quantity <= 0 {
		return ledger.Trade{}, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	if input.Price <= 0 {
		return ledger.Trade{}, fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput)
	}
	if input.Fee < 0 {
		return ledger.Trade{}, fmt.Errorf("%w: fee must not be negative", domain.ErrInvalidInput)
	}

	lock := s.lockAccount(accountID)
	lock.Lock()
	defer lock.Unlock()

	if input.Side.IsSell() {
		if err := s.safety.ValidateSell(accountID, input.Symbol, input.Quantity); err != nil {
			return ledger.Trade{}, err
		}
	} else {
		cost := input.Quantity*input.Price + input.Fee
		if err := s.safety.ValidateBuy(accountID, cost); err != nil {
			return ledger.Trade{}, err
		}
	}

	trade, err := s.tradeStore.Create(ledger.Trade{
		AccountID: accountID,
		Symbol:    input.Symbol,
		Side:      input.Side,
		Quantity:  input.Quantity,
		Price:     input.Price,
		Fee:       input.Fee,
		Note:      input.Note,
		TradeAt:   input.TradeAt,
	})
	if err != nil {
		return ledger.Trade{}, err
	}

	s.eventManager.Emit(events.TradeRecorded, "trading", map[string]interface{}{
		"trade_id":   trade.ID,
		"account_id": accountID,
		"symbol":     trade.Symbol,
		"side":       string(trade.Side),
		"quantity":   trade.Quantity,
		"price":      trade.Price,
	})

	return trade, nil
}

// Deposit appends a cash deposit. Deposits need no sufficiency check.
func (s *Service) Deposit(accountID string, amount float64, tradeAt time.Time) (ledger.CashAdjustment, error) {
	if amount <= 0 {
		return ledger.CashAdjustment{}, fmt.Errorf("%w: deposit amount must be positive", domain.ErrInvalidInput)
	}

	lock := s.lockAccount(accountID)
	lock.Lock()
	defer lock.Unlock()

	adj, err := s.cashStore.Create(ledger.CashAdjustment{
		AccountID: accountID,
		Kind:      ledger.CashKindDeposit,
		Amount:    amount,
		TradeAt:   tradeAt,
	})
	if err != nil {
		return ledger.CashAdjustment{}, err
	}

	s.eventManager.Emit(events.CashDeposited, "trading", map[string]interface{}{
		"adjustment_id": adj.ID,
		"account_id":    accountID,
		"amount":        amount,
	})

	return adj, nil
}

// Withdraw validates and appends a cash withdrawal.
func (s *Service) Withdraw(accountID string, amount float64, tradeAt time.Time) (ledger.CashAdjustment, error) {
	if amount <= 0 {
		return ledger.CashAdjustment{}, fmt.Errorf("%w: withdrawal amount must be positive", domain.ErrInvalidInput)
	}

	lock := s.lockAccount(accountID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.safety.ValidateWithdraw(accountID, amount); err != nil {
		return ledger.CashAdjustment{}, err
	}

	adj, err := s.cashStore.Create(ledger.CashAdjustment{
		AccountID: accountID,
		Kind:      ledger.CashKindWithdraw,
		Amount:    amount,
		TradeAt:   tradeAt,
	})
	if err != nil {
		return ledger.CashAdjustment{}, err
	}

	s.eventManager.Emit(events.CashWithdrawn, "trading", map[string]interface{}{
		"adjustment_id": adj.ID,
		"account_id":    accountID,
		"amount":        amount,
	})

	return adj, nil
}

// DeleteTrade removes a trade and cascades into the journal entry referenced
// by its note tag, if any. The cascade is idempotent: a journal entry that is
// already gone, or that fails to delete, never blocks removal of the trade.
// Cascade failures are logged and absorbed.
func (s *Service) DeleteTrade(accountID, tradeID string) error {
	lock := s.lockAccount(accountID)
	lock.Lock()
	defer lock.Unlock()

	trade, err := s.tradeStore.GetByID(accountID, tradeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to load trade for deletion: %w", err)
	}

	if entryID := JournalRef(trade.Note); entryID != "" {
		deleted, err := s.journalStore.DeleteByID(accountID, entryID)
		if err != nil {
			s.log.Warn().
				Err(err).
				Str("trade_id", tradeID).
				Str("entry_id", entryID).
				Msg("Journal entry cascade delete failed, continuing with trade deletion")
		} else if deleted {
			s.eventManager.Emit(events.JournalEntryCascade, "trading", map[string]interface{}{
				"trade_id":   tradeID,
				"entry_id":   entryID,
				"account_id": accountID,
			})
		}
	}

	if err := s.tradeStore.Delete(accountID, tradeID); err != nil {
		return err
	}

	s.eventManager.Emit(events.TradeDeleted, "trading", map[string]interface{}{
		"trade_id":   tradeID,
		"account_id": accountID,
	})

	return nil
}

// DeleteCashAdjustment removes a cash adjustment owned by the account.
func (s *Service) DeleteCashAdjustment(accountID, adjustmentID string) error {
	lock := s.lockAccount(accountID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.cashStore.Delete(accountID, adjustmentID); err != nil {
		return err
	}

	s.eventManager.Emit(events.CashEntryDeleted, "trading", map[string]interface{}{
		"adjustment_id": adjustmentID,
		"account_id":    accountID,
	})

	return nil
}
