package ledger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotledger/spotledger/internal/domain"
)

func TestCashCreate_ValidatesInput(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewCashRepository(setupLedgerDB(t), log)

	testCases := []struct {
		name string
		adj  CashAdjustment
	}{
		{name: "zero amount", adj: CashAdjustment{AccountID: "acc-1", Kind: CashKindDeposit, Amount: 0}},
		{name: "negative amount", adj: CashAdjustment{AccountID: "acc-1", Kind: CashKindWithdraw, Amount: -100}},
		{name: "invalid kind", adj: CashAdjustment{AccountID: "acc-1", Kind: "TRANSFER", Amount: 100}},
		{name: "missing account", adj: CashAdjustment{Kind: CashKindDeposit, Amount: 100}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := repo.Create(tc.adj)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCashCreateListDelete(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewCashRepository(setupLedgerDB(t), log)

	deposit, err := repo.Create(CashAdjustment{AccountID: "acc-1", Kind: CashKindDeposit, Amount: 500})
	require.NoError(t, err)
	assert.NotEmpty(t, deposit.ID)

	withdraw, err := repo.Create(CashAdjustment{AccountID: "acc-1", Kind: CashKindWithdraw, Amount: 200})
	require.NoError(t, err)

	// Other account's rows stay invisible
	_, err = repo.Create(CashAdjustment{AccountID: "acc-2", Kind: CashKindDeposit, Amount: 999})
	require.NoError(t, err)

	adjustments, err := repo.ListByAccount("acc-1")
	require.NoError(t, err)
	require.Len(t, adjustments, 2)
	assert.Equal(t, 500.0, adjustments[0].CashDelta())
	assert.Equal(t, -200.0, adjustments[1].CashDelta())

	require.NoError(t, repo.Delete("acc-1", withdraw.ID))

	err = repo.Delete("acc-1", withdraw.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "second delete must report not found")

	adjustments, err = repo.ListByAccount("acc-1")
	require.NoError(t, err)
	assert.Len(t, adjustments, 1)
}

func TestTradeCashDelta(t *testing.T) {
	buy := Trade{Side: TradeSideBuy, Quantity: 2, Price: 100, Fee: 1}
	assert.InDelta(t, -201.0, buy.CashDelta(), 1e-12)

	sell := Trade{Side: TradeSideSell, Quantity: 2, Price: 100, Fee: 1}
	assert.InDelta(t, 199.0, sell.CashDelta(), 1e-12)
}
