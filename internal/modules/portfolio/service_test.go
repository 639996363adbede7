package portfolio

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotledger/spotledger/internal/modules/ledger"
)

// fakeLedger implements TradeReader over an in-memory slice.
type fakeLedger struct {
	trades []ledger.Trade
}

func (f *fakeLedger) ListByAccount(accountID string) ([]ledger.Trade, error) {
	var out []ledger.Trade
	for _, t := range f.trades {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListBySymbol(accountID, symbol string) ([]ledger.Trade, error) {
	var out []ledger.Trade
	for _, t := range f.trades {
		if t.AccountID == accountID && t.Symbol == symbol {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeCash struct {
	adjustments []ledger.CashAdjustment
}

func (f *fakeCash) ListByAccount(accountID string) ([]ledger.CashAdjustment, error) {
	var out []ledger.CashAdjustment
	for _, a := range f.adjustments {
		if a.AccountID == accountID {
			out = append(out, a)
		}
	}
	return out, nil
}

func newTestService(trades []ledger.Trade, adjustments []ledger.CashAdjustment) *Service {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewService(&fakeLedger{trades: trades}, &fakeCash{adjustments: adjustments}, log)
}

func buy(account, symbol string, qty, price float64) ledger.Trade {
	return ledger.Trade{AccountID: account, Symbol: symbol, Side: ledger.TradeSideBuy, Quantity: qty, Price: price}
}

func sell(account, symbol string, qty, price float64) ledger.Trade {
	return ledger.Trade{AccountID: account, Symbol: symbol, Side: ledger.TradeSideSell, Quantity: qty, Price: price}
}

func TestComputePosition_BuysAccumulate(t *testing.T) {
	svc := newTestService([]ledger.Trade{
		buy("acc-1", "BTC", 1, 40000),
		buy("acc-1", "BTC", 2, 46000),
		buy("acc-1", "BTC", 0.5, 44000),
	}, nil)

	pos, err := svc.ComputePosition("acc-1", "BTC")
	require.NoError(t, err)
	require.NotNil(t, pos)

	assert.Equal(t, 3.5, pos.Quantity)
	assert.InDelta(t, 154000.0, pos.InvestedUSD, 1e-9)
	// Average entry price is exactly invested/quantity, recomputed from scratch
	assert.Equal(t, pos.InvestedUSD/pos.Quantity, pos.AvgEntryPrice)
}

func TestComputePosition_PartialSellKeepsAvgEntryPrice(t *testing.T) {
	// Buy 10 @ $100 (invested $1000, avg $100), sell 4:
	// remaining quantity 6, invested $600, avg still $100.
	svc := newTestService([]ledger.Trade{
		buy("acc-1", "ABC", 10, 100),
		sell("acc-1", "ABC", 4, 130),
	}, nil)

	pos, err := svc.ComputePosition("acc-1", "ABC")
	require.NoError(t, err)
	require.NotNil(t, pos)

	assert.InDelta(t, 6.0, pos.Quantity, 1e-12)
	assert.InDelta(t, 600.0, pos.InvestedUSD, 1e-9)
	assert.InDelta(t, 100.0, pos.AvgEntryPrice, 1e-9)
}

func TestComputePosition_FeeExcludedFromCostBasis(t *testing.T) {
	trades := []ledger.Trade{
		{AccountID: "acc-1", Symbol: "XYZ", Side: ledger.TradeSideBuy, Quantity: 10, Price: 100, Fee: 7.5},
	}
	svc := newTestService(trades, nil)

	pos, err := svc.ComputePosition("acc-1", "XYZ")
	require.NoError(t, err)
	require.NotNil(t, pos)

	assert.InDelta(t, 1000.0, pos.InvestedUSD, 1e-9, "fee must not enter invested capital")
}

func TestComputePosition_FullySoldReturnsNil(t *testing.T) {
	svc := newTestService([]ledger.Trade{
		buy("acc-1", "DOGE", 100, 0.1),
		sell("acc-1", "DOGE", 100, 0.2),
	}, nil)

	pos, err := svc.ComputePosition("acc-1", "DOGE")
	require.NoError(t, err)
	assert.Nil(t, pos, "a fully sold position does not exist")
}

func TestComputePosition_NoTradesReturnsNil(t *testing.T) {
	svc := newTestService(nil, nil)

	pos, err := svc.ComputePosition("acc-1", "BTC")
	require.NoError(t, err)
	assert.Nil(t, pos)
}

func TestComputePositions_GroupsAndSorts(t *testing.T) {
	svc := newTestService([]ledger.Trade{
		buy("acc-1", "ETH", 1, 2000),
		buy("acc-1", "BTC", 1, 40000),
		buy("acc-1", "SOL", 10, 150),
		sell("acc-1", "SOL", 10, 160), // flat, must disappear
		buy("acc-2", "ADA", 100, 1),   // other account
	}, nil)

	positions, err := svc.ComputePositions("acc-1")
	require.NoError(t, err)
	require.Len(t, positions, 2)

	assert.Equal(t, "BTC", positions[0].Symbol)
	assert.Equal(t, "ETH", positions[1].Symbol)
}

func TestComputeCashBalance_RoundTrip(t *testing.T) {
	// Deposit $500, buy 1 unit @ $500 with $0 fee:
	// cash balance $0, position quantity 1 invested $500.
	tradeAt := time.Now().UTC()
	svc := newTestService(
		[]ledger.Trade{
			{AccountID: "acc-1", Symbol: "ABC", Side: ledger.TradeSideBuy, Quantity: 1, Price: 500, TradeAt: tradeAt},
		},
		[]ledger.CashAdjustment{
			{AccountID: "acc-1", Kind: ledger.CashKindDeposit, Amount: 500, TradeAt: tradeAt},
		},
	)

	balance, err := svc.ComputeCashBalance("acc-1")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, balance, 1e-9)

	pos, err := svc.ComputePosition("acc-1", "ABC")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, 1.0, pos.Quantity)
	assert.Equal(t, 500.0, pos.InvestedUSD)
}

func TestComputeCashBalance_DepositThenWithdrawRestoresPrior(t *testing.T) {
	prior := []ledger.CashAdjustment{
		{AccountID: "acc-1", Kind: ledger.CashKindDeposit, Amount: 123.45},
	}
	svc := newTestService(nil, prior)

	before, err := svc.ComputeCashBalance("acc-1")
	require.NoError(t, err)

	svc = newTestService(nil, append(prior,
		ledger.CashAdjustment{AccountID: "acc-1", Kind: ledger.CashKindDeposit, Amount: 777.77},
		ledger.CashAdjustment{AccountID: "acc-1", Kind: ledger.CashKindWithdraw, Amount: 777.77},
	))

	after, err := svc.ComputeCashBalance("acc-1")
	require.NoError(t, err)
	assert.Equal(t, before, after, "deposit then withdraw of the same amount must restore the prior balance exactly")
}

func TestComputeCashBalance_TradeSettlements(t *testing.T) {
	svc := newTestService(
		[]ledger.Trade{
			{AccountID: "acc-1", Symbol: "BTC", Side: ledger.TradeSideBuy, Quantity: 2, Price: 100, Fee: 1},
			{AccountID: "acc-1", Symbol: "BTC", Side: ledger.TradeSideSell, Quantity: 1, Price: 120, Fee: 1},
		},
		[]ledger.CashAdjustment{
			{AccountID: "acc-1", Kind: ledger.CashKindDeposit, Amount: 1000},
		},
	)

	balance, err := svc.ComputeCashBalance("acc-1")
	require.NoError(t, err)
	// 1000 - (200+1) + (120-1)
	assert.InDelta(t, 918.0, balance, 1e-9)
}

func TestFoldPosition_RepeatedFractionalTrades(t *testing.T) {
	// Accumulated rounding must stay well inside the sufficiency tolerance.
	var trades []ledger.Trade
	for i := 0; i < 1000; i++ {
		trades = append(trades, buy("acc-1", "FRAC", 0.1, 3.33))
	}
	for i := 0; i < 999; i++ {
		trades = append(trades, sell("acc-1", "FRAC", 0.1, 3.33))
	}

	pos := FoldPosition("FRAC", trades)
	require.NotNil(t, pos)
	assert.InDelta(t, 0.1, pos.Quantity, 1e-8)
	assert.InDelta(t, 3.33, pos.AvgEntryPrice, 1e-6)
}
