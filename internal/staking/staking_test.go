package staking

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binary-trader/internal/errors"
	"binary-trader/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBaseStake(t *testing.T) {
	got := BaseStake(dec("1000"), dec("0.05"))
	assert.True(t, got.Equal(dec("50")), "base stake = %s", got)

	got = BaseStake(dec("850.50"), dec("0.05"))
	assert.True(t, got.Equal(dec("42.525")), "base stake = %s", got)
}

func TestPnL(t *testing.T) {
	pnl, err := PnL(dec("200"), models.ResultITM, dec("0.8"))
	require.NoError(t, err)
	assert.True(t, pnl.Equal(dec("160")), "ITM pnl = %s", pnl)

	pnl, err = PnL(dec("50"), models.ResultOTM, dec("0.8"))
	require.NoError(t, err)
	assert.True(t, pnl.Equal(dec("-50")), "OTM pnl = %s", pnl)

	// Loss is the full stake regardless of payout.
	pnl, err = PnL(dec("50"), models.ResultOTM, dec("0.99"))
	require.NoError(t, err)
	assert.True(t, pnl.Equal(dec("-50")))
}

func TestPnLRejectsInvalidInput(t *testing.T) {
	_, err := PnL(dec("50"), models.ResultITM, dec("1.5"))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = PnL(dec("50"), models.ResultITM, dec("-0.1"))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = PnL(dec("50"), models.Result("DRAW"), dec("0.8"))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestNextStakeEscalatesAfterLoss(t *testing.T) {
	stake, step := NextStake(dec("950"), dec("0.05"), dec("50"), 0, 3, models.ResultOTM)
	assert.True(t, stake.Equal(dec("100")), "stake = %s", stake)
	assert.Equal(t, 1, step)

	stake, step = NextStake(dec("850"), dec("0.05"), dec("100"), 1, 3, models.ResultOTM)
	assert.True(t, stake.Equal(dec("200")), "stake = %s", stake)
	assert.Equal(t, 2, step)
}

func TestNextStakeResetsAfterWin(t *testing.T) {
	stake, step := NextStake(dec("1010"), dec("0.05"), dec("200"), 2, 3, models.ResultITM)
	assert.True(t, stake.Equal(dec("50.5")), "stake = %s", stake)
	assert.Equal(t, 0, step)
}

func TestNextStakeResetsWhenStepsExhausted(t *testing.T) {
	stake, step := NextStake(dec("250"), dec("0.05"), dec("400"), 3, 3, models.ResultOTM)
	assert.True(t, stake.Equal(dec("12.5")), "stake = %s", stake)
	assert.Equal(t, 0, step)
}

func TestNextStakeClampsToCapital(t *testing.T) {
	// Doubling 400 would stake 800 with only 300 left.
	stake, step := NextStake(dec("300"), dec("0.05"), dec("400"), 1, 3, models.ResultOTM)
	assert.True(t, stake.Equal(dec("300")), "stake = %s", stake)
	assert.Equal(t, 2, step)
}

func TestNextStakeZeroMaxStepsNeverEscalates(t *testing.T) {
	stake, step := NextStake(dec("900"), dec("0.05"), dec("100"), 0, 0, models.ResultOTM)
	assert.True(t, stake.Equal(dec("45")), "stake = %s", stake)
	assert.Equal(t, 0, step)
}
