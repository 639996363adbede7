package trading

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/spotledger/spotledger/internal/domain"
	"github.com/spotledger/spotledger/internal/modules/portfolio"
)

// fakeAggregator returns fixed derived state.
type fakeAggregator struct {
	position *portfolio.Position
	balance  float64
}

func (f *fakeAggregator) ComputePosition(accountID, symbol string) (*portfolio.Position, error) {
	return f.position, nil
}

func (f *fakeAggregator) ComputeCashBalance(accountID string) (float64, error) {
	return f.balance, nil
}

func newSafety(position *portfolio.Position, balance float64) *SafetyService {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewSafetyService(&fakeAggregator{position: position, balance: balance}, log)
}

func TestValidateSell_ToleranceBoundary(t *testing.T) {
	held := &portfolio.Position{Symbol: "ABC", Quantity: 6, InvestedUSD: 600, AvgEntryPrice: 100}

	testCases := []struct {
		name      string
		requested float64
		wantErr   error
	}{
		{name: "well within holdings", requested: 3, wantErr: nil},
		{name: "exact holdings", requested: 6, wantErr: nil},
		{name: "just under holdings", requested: 6 - 1e-9, wantErr: nil},
		{name: "within tolerance above", requested: 6 + 5e-9, wantErr: nil},
		{name: "beyond tolerance", requested: 6.0000001, wantErr: domain.ErrInsufficientAsset},
		{name: "far beyond holdings", requested: 10, wantErr: domain.ErrInsufficientAsset},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := newSafety(held, 0).ValidateSell("acc-1", "ABC", tc.requested)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestValidateSell_NoPosition(t *testing.T) {
	err := newSafety(nil, 0).ValidateSell("acc-1", "ABC", 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientAsset)
}

func TestValidateSell_InvalidQuantity(t *testing.T) {
	err := newSafety(nil, 0).ValidateSell("acc-1", "ABC", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = newSafety(nil, 0).ValidateSell("acc-1", "ABC", -2)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidateWithdraw_ToleranceBoundary(t *testing.T) {
	testCases := []struct {
		name      string
		balance   float64
		requested float64
		wantErr   error
	}{
		{name: "within balance", balance: 1000, requested: 500, wantErr: nil},
		{name: "exact balance", balance: 1000, requested: 1000, wantErr: nil},
		{name: "within tolerance above", balance: 1000, requested: 1000 + 5e-9, wantErr: nil},
		{name: "beyond tolerance", balance: 1000, requested: 1000.0000001, wantErr: domain.ErrInsufficientCash},
		{name: "zero balance", balance: 0, requested: 1, wantErr: domain.ErrInsufficientCash},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := newSafety(nil, tc.balance).ValidateWithdraw("acc-1", tc.requested)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestValidateBuy_CashSufficiency(t *testing.T) {
	assert.NoError(t, newSafety(nil, 1000).ValidateBuy("acc-1", 999))
	assert.NoError(t, newSafety(nil, 1000).ValidateBuy("acc-1", 1000))
	assert.ErrorIs(t, newSafety(nil, 1000).ValidateBuy("acc-1", 1000.01), domain.ErrInsufficientCash)
	assert.ErrorIs(t, newSafety(nil, 1000).ValidateBuy("acc-1", 0), domain.ErrInvalidInput)
}
