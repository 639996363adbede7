package ledger

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotledger/spotledger/internal/domain"
)

func setupLedgerDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "Failed to open test database")
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE trades (
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
		CREATE TABLE cash_adjustments (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			kind TEXT NOT NULL CHECK(kind IN ('DEPOSIT', 'WITHDRAW')),
			amount REAL NOT NULL CHECK(amount > 0),
			trade_at TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
	`)
	require.NoError(t, err, "Failed to create test tables")

	return db
}

func TestTradeCreate_ValidatesInput(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewTradeRepository(setupLedgerDB(t), log)

	testCases := []struct {
		name  string
		trade Trade
	}{
		{
			name:  "zero quantity",
			trade: Trade{AccountID: "acc-1", Symbol: "BTC", Side: TradeSideBuy, Quantity: 0, Price: 100},
		},
		{
			name:  "negative quantity",
			trade: Trade{AccountID: "acc-1", Symbol: "BTC", Side: TradeSideBuy, Quantity: -1, Price: 100},
		},
		{
			name:  "zero price",
			trade: Trade{AccountID: "acc-1", Symbol: "BTC", Side: TradeSideBuy, Quantity: 1, Price: 0},
		},
		{
			name:  "negative fee",
			trade: Trade{AccountID: "acc-1", Symbol: "BTC", Side: TradeSideBuy, Quantity: 1, Price: 100, Fee: -0.5},
		},
		{
			name:  "missing symbol",
			trade: Trade{AccountID: "acc-1", Symbol: "  ", Side: TradeSideBuy, Quantity: 1, Price: 100},
		},
		{
			name:  "missing account",
			trade: Trade{Symbol: "BTC", Side: TradeSideBuy, Quantity: 1, Price: 100},
		},
		{
			name:  "invalid side",
			trade: Trade{AccountID: "acc-1", Symbol: "BTC", Side: "HOLD", Quantity: 1, Price: 100},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := repo.Create(tc.trade)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestTradeCreate_GeneratesIDAndRoundTrips(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewTradeRepository(setupLedgerDB(t), log)

	created, err := repo.Create(Trade{
		AccountID: "acc-1",
		Symbol:    "eth",
		Side:      TradeSideBuy,
		Quantity:  2.5,
		Price:     1800,
		Fee:       1.25,
		Note:      "scaling in [JE:abc123]",
		TradeAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "ETH", created.Symbol, "symbol should be normalized to upper case")

	got, err := repo.GetByID("acc-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, TradeSideBuy, got.Side)
	assert.Equal(t, 2.5, got.Quantity)
	assert.Equal(t, 1800.0, got.Price)
	assert.Equal(t, 1.25, got.Fee)
	assert.Equal(t, "scaling in [JE:abc123]", got.Note)
	assert.True(t, got.TradeAt.Equal(created.TradeAt))
}

func TestTradeGetByID_ScopedByAccount(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewTradeRepository(setupLedgerDB(t), log)

	created, err := repo.Create(Trade{
		AccountID: "acc-1", Symbol: "BTC", Side: TradeSideBuy, Quantity: 1, Price: 50000,
	})
	require.NoError(t, err)

	// Another account must not see the row
	_, err = repo.GetByID("acc-2", created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Nor delete it
	err = repo.Delete("acc-2", created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Owner still can
	_, err = repo.GetByID("acc-1", created.ID)
	assert.NoError(t, err)
}

func TestTradeDelete_NotFoundWhenAbsent(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewTradeRepository(setupLedgerDB(t), log)

	err := repo.Delete("acc-1", "no-such-trade")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTradeListBySymbol_OrderedByTradeAt(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewTradeRepository(setupLedgerDB(t), log)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Insert out of chronological order
	for _, offset := range []int{2, 0, 1} {
		_, err := repo.Create(Trade{
			AccountID: "acc-1",
			Symbol:    "BTC",
			Side:      TradeSideBuy,
			Quantity:  float64(offset + 1),
			Price:     100,
			TradeAt:   base.Add(time.Duration(offset) * time.Hour),
		})
		require.NoError(t, err)
	}

	// A different symbol and account must not leak in
	_, err := repo.Create(Trade{AccountID: "acc-1", Symbol: "ETH", Side: TradeSideBuy, Quantity: 1, Price: 100})
	require.NoError(t, err)
	_, err = repo.Create(Trade{AccountID: "acc-2", Symbol: "BTC", Side: TradeSideBuy, Quantity: 1, Price: 100})
	require.NoError(t, err)

	trades, err := repo.ListBySymbol("acc-1", "btc")
	require.NoError(t, err)
	require.Len(t, trades, 3)

	for i := 1; i < len(trades); i++ {
		assert.False(t, trades[i].TradeAt.Before(trades[i-1].TradeAt),
			"trades must be ordered ascending by trade_at")
	}
}
