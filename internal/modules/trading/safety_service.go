package trading

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/spotledger/spotledger/internal/domain"
	"github.com/spotledger/spotledger/internal/modules/portfolio"
)

// Aggregator is the derived-state surface the gate validates against.
type Aggregator interface {
	ComputePosition(accountID, symbol string) (*portfolio.Position, error)
	ComputeCashBalance(accountID string) (float64, error)
}

// SafetyService validates proposed mutations against currently derived state
// before they are appended to the ledger. All checks are read-only; the caller
// appends only after a passing result. Sufficiency comparisons use an absolute
// tolerance (domain.Epsilon) so accumulated float rounding from repeated
// fractional trades cannot reject an exact-quantity sell.
type SafetyService struct {
	aggregator Aggregator
	log        zerolog.Logger
}

// NewSafetyService creates a new trade safety service
func NewSafetyService(aggregator Aggregator, log zerolog.Logger) *SafetyService {
	return &SafetyService{
		aggregator: aggregator,
		log:        log.With().Str("service", "trade_safety").Logger(),
	}
}

// ValidateSell rejects a sell whose quantity exceeds the held position beyond
// tolerance. Returns domain.ErrInsufficientAsset on rejection.
func (s *SafetyService) ValidateSell(accountID, symbol string, requestedQty float64) error {
	if requestedQty <= 0 {
		return fmt.Errorf("%w: sell quantity must be positive", domain.ErrInvalidInput)
	}

	position, err := s.aggregator.ComputePosition(accountID, symbol)
	if err != nil {
		return fmt.Errorf("failed to compute position for sell validation: %w", err)
	}

	held := 0.0
	if position != nil {
		held = position.Quantity
	}

	if requestedQty > held+domain.Epsilon {
		s.log.Warn().
			Str("account_id", accountID).
			Str("symbol", symbol).
			Float64("requested", requestedQty).
			Float64("held", held).
			Msg("Sell rejected: insufficient asset quantity")
		return fmt.Errorf("%w: requested %.8f of %s, holding %.8f",
			domain.ErrInsufficientAsset, requestedQty, symbol, held)
	}

	return nil
}

// ValidateWithdraw rejects a withdrawal exceeding the cash balance beyond
// tolerance. Returns domain.ErrInsufficientCash on rejection.
func (s *SafetyService) ValidateWithdraw(accountID string, requestedAmount float64) error {
	if requestedAmount <= 0 {
		return fmt.Errorf("%w: withdrawal amount must be positive", domain.ErrInvalidInput)
	}

	balance, err := s.aggregator.ComputeCashBalance(accountID)
	if err != nil {
		return fmt.Errorf("failed to compute balance for withdrawal validation: %w", err)
	}

	if requestedAmount > balance+domain.Epsilon {
		s.log.Warn().
			Str("account_id", accountID).
			Float64("requested", requestedAmount).
			Float64("balance", balance).
			Msg("Withdrawal rejected: insufficient cash")
		return fmt.Errorf("%w: requested %.8f, balance %.8f",
			domain.ErrInsufficientCash, requestedAmount, balance)
	}

	return nil
}

// ValidateBuy rejects a buy whose settlement cost exceeds the cash balance
// beyond tolerance. The cash balance must stay non-negative after every
// accepted mutation, and a buy settles immediately.
func (s *SafetyService) ValidateBuy(accountID string, cost float64) error {
	if cost <= 0 {
		return fmt.Errorf("%w: buy cost must be positive", domain.ErrInvalidInput)
	}

	balance, err := s.aggregator.ComputeCashBalance(accountID)
	if err != nil {
		return fmt.Errorf("failed to compute balance for buy validation: %w", err)
	}

	if cost > balance+domain.Epsilon {
		s.log.Warn().
			Str("account_id", accountID).
			Float64("cost", cost).
			Float64("balance", balance).
			Msg("Buy rejected: insufficient cash")
		return fmt.Errorf("%w: buy costs %.8f, balance %.8f",
			domain.ErrInsufficientCash, cost, balance)
	}

	return nil
}
