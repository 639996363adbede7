package portfolio

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/spotledger/spotledger/internal/modules/ledger"
)

// TradeReader is the slice of the trade repository the aggregators need.
type TradeReader interface {
	ListByAccount(accountID string) ([]ledger.Trade, error)
	ListBySymbol(accountID, symbol string) ([]ledger.Trade, error)
}

// CashReader is the slice of the cash repository the aggregators need.
type CashReader interface {
	ListByAccount(accountID string) ([]ledger.CashAdjustment, error)
}

// Service computes derived portfolio state. It holds no mutable state of its
// own; every call re-folds the ledger, so there is no cache to invalidate and
// no stored balance that can drift from the transaction history.
type Service struct {
	tradeReader TradeReader
	cashReader  CashReader
	log         zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(tradeReader TradeReader, cashReader CashReader, log zerolog.Logger) *Service {
	return &Service{
		tradeReader: tradeReader,
		cashReader:  cashReader,
		log:         log.With().Str("service", "portfolio").Logger(),
	}
}

// ComputePosition derives the current position for one account+symbol.
// Returns nil when the folded quantity is zero or below: a fully sold
// position does not exist.
func (s *Service) ComputePosition(accountID, symbol string) (*Position, error) {
	trades, err := s.tradeReader.ListBySymbol(accountID, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades for position: %w", err)
	}

	return FoldPosition(symbol, trades), nil
}

// ComputePositions derives all open positions for an account, sorted by symbol.
func (s *Service) ComputePositions(accountID string) ([]Position, error) {
	trades, err := s.tradeReader.ListByAccount(accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades for positions: %w", err)
	}

	// Group per symbol, preserving the repository's trade_at ordering.
	bySymbol := make(map[string][]ledger.Trade)
	for _, trade := range trades {
		bySymbol[trade.Symbol] = append(bySymbol[trade.Symbol], trade)
	}

	positions := make([]Position, 0, len(bySymbol))
	for symbol, symbolTrades := range bySymbol {
		if pos := FoldPosition(symbol, symbolTrades); pos != nil {
			positions = append(positions, *pos)
		}
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})

	return positions, nil
}

// ComputeCashBalance derives the signed cash balance for an account: deposits
// add, withdrawals subtract, and every trade contributes its settlement effect
// (buy: -(qty*price+fee), sell: +(qty*price-fee)).
func (s *Service) ComputeCashBalance(accountID string) (float64, error) {
	adjustments, err := s.cashReader.ListByAccount(accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to load cash adjustments: %w", err)
	}

	trades, err := s.tradeReader.ListByAccount(accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to load trades for cash balance: %w", err)
	}

	deltas := make([]float64, 0, len(adjustments)+len(trades))
	for _, adj := range adjustments {
		deltas = append(deltas, adj.CashDelta())
	}
	for _, trade := range trades {
		deltas = append(deltas, trade.CashDelta())
	}

	return floats.Sum(deltas), nil
}

// FoldPosition folds an ordered trade history into a position using
// weighted-average cost accounting. Buys add quantity and quantity*price to
// invested capital (fees affect cash only, not the cost basis). Sells reduce
// invested capital proportionally, so the average entry price of the
// remaining position is unchanged by a partial sell.
func FoldPosition(symbol string, trades []ledger.Trade) *Position {
	var quantity, invested float64

	for _, trade := range trades {
		if trade.Side.IsBuy() {
			quantity += trade.Quantity
			invested += trade.Quantity * trade.Price
		} else {
			if quantity > 0 {
				sold := trade.Quantity
				if sold > quantity {
					sold = quantity
				}
				invested -= invested * (sold / quantity)
			}
			quantity -= trade.Quantity
		}
	}

	if quantity <= 0 {
		return nil
	}
	if invested < 0 {
		invested = 0
	}

	return &Position{
		Symbol:        symbol,
		Quantity:      quantity,
		InvestedUSD:   invested,
		AvgEntryPrice: invested / quantity,
	}
}
