// Package staking provides the pure stake-sizing and PnL arithmetic for
// the martingale staking discipline. All functions are stateless and
// safe for concurrent use; all money values are fixed-point decimals.
package staking

import (
	"github.com/shopspring/decimal"

	"binary-trader/internal/errors"
	"binary-trader/internal/models"
)

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// BaseStake computes the stake for the first trade of a session, or for
// any trade following a martingale reset: currentCapital * riskPerTradePct.
func BaseStake(currentCapital, riskPerTradePct decimal.Decimal) decimal.Decimal {
	return currentCapital.Mul(riskPerTradePct)
}

// PnL computes the signed profit or loss of a trade: +stake*payout on a
// win, -stake on a loss. The payout fraction must lie in [0, 1].
func PnL(stake decimal.Decimal, result models.Result, payoutFraction decimal.Decimal) (decimal.Decimal, error) {
	if payoutFraction.IsNegative() || payoutFraction.GreaterThan(one) {
		return decimal.Zero, errors.NewValidationError("payout_fraction", payoutFraction.String(), "must be between 0 and 1")
	}
	switch result {
	case models.ResultITM:
		return stake.Mul(payoutFraction), nil
	case models.ResultOTM:
		return stake.Neg(), nil
	default:
		return decimal.Zero, errors.NewValidationError("result", string(result), "must be ITM or OTM")
	}
}

// NextStake derives the stake and martingale step for the next trade
// from the previous trade's outcome. A loss inside the allowed step
// count doubles the previous stake; a win, an exhausted escalation, or
// the absence of a prior trade resets to the base stake at step 0. The
// stake is clamped so it never exceeds the available capital.
//
// This is the sole authority for stake progression: both the preview
// shown to the client and the amount charged at registration come from
// here, so the two can never diverge.
func NextStake(currentCapital, riskPerTradePct, lastStake decimal.Decimal, lastMartingaleStep, maxMartingaleSteps int, lastResult models.Result) (decimal.Decimal, int) {
	var stake decimal.Decimal
	step := 0

	if lastResult == models.ResultOTM && lastMartingaleStep < maxMartingaleSteps {
		step = lastMartingaleStep + 1
		stake = lastStake.Mul(two)
	} else {
		stake = BaseStake(currentCapital, riskPerTradePct)
	}

	if stake.GreaterThan(currentCapital) {
		stake = currentCapital
	}

	return stake, step
}
