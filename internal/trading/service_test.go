package trading

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binary-trader/internal/errors"
	"binary-trader/internal/models"
	"binary-trader/internal/store"
)

// fixedClock pins the trading day so session-date logic is deterministic.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }
func (c fixedClock) Today() time.Time {
	return time.Date(c.now.Year(), c.now.Month(), c.now.Day(), 0, 0, 0, 0, c.now.Location())
}

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := fixedClock{now: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)}
	return NewService(st, clock, zerolog.Nop()), st
}

func testPeriodParams() PeriodParams {
	return PeriodParams{
		StartDate:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		InitialCapital:  decimal.NewFromInt(1000),
		DailyTargetPct:  dec("0.15"),
		PayoutPct:       dec("0.8"),
		RiskPerTradePct: dec("0.05"),
		MartingaleSteps: 3,
		MaxDailyLossPct: dec("0.06"),
		Nickname:        "march run",
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreatePeriod(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	period, err := svc.CreatePeriod(ctx, 1, testPeriodParams())
	require.NoError(t, err)

	assert.NotZero(t, period.ID)
	assert.Equal(t, models.PeriodActive, period.Status)
	assert.True(t, period.CurrentCapital.Equal(period.InitialCapital))
}

func TestCreatePeriodValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*PeriodParams)
	}{
		{"zero capital", func(p *PeriodParams) { p.InitialCapital = decimal.Zero }},
		{"negative capital", func(p *PeriodParams) { p.InitialCapital = decimal.NewFromInt(-10) }},
		{"end before start", func(p *PeriodParams) { p.EndDate = p.StartDate.AddDate(0, 0, -1) }},
		{"risk above one", func(p *PeriodParams) { p.RiskPerTradePct = dec("1.5") }},
		{"negative steps", func(p *PeriodParams) { p.MartingaleSteps = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := testPeriodParams()
			tt.mutate(&params)

			_, err := svc.CreatePeriod(ctx, 1, params)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}
}

func TestUpdatePeriodCapitalReset(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	period, err := svc.CreatePeriod(ctx, 1, testPeriodParams())
	require.NoError(t, err)

	// No sessions yet: changing initial capital also resets current capital.
	newCap := decimal.NewFromInt(2000)
	updated, err := svc.UpdatePeriod(ctx, 1, period.ID, PeriodUpdate{InitialCapital: &newCap})
	require.NoError(t, err)
	assert.True(t, updated.CurrentCapital.Equal(newCap))

	// With a session recorded, current capital belongs to session history.
	_, err = svc.GetOrCreateSession(ctx, 1, period.ID, time.Time{})
	require.NoError(t, err)

	otherCap := decimal.NewFromInt(3000)
	updated, err = svc.UpdatePeriod(ctx, 1, period.ID, PeriodUpdate{InitialCapital: &otherCap})
	require.NoError(t, err)
	assert.True(t, updated.InitialCapital.Equal(otherCap))
	assert.True(t, updated.CurrentCapital.Equal(newCap), "current capital must not reset once sessions exist")
}

func TestPeriodOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	period, err := svc.CreatePeriod(ctx, 1, testPeriodParams())
	require.NoError(t, err)

	_, err = svc.GetPeriod(ctx, 2, period.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = svc.GetPeriod(ctx, 1, period.ID)
	assert.NoError(t, err)
}

func TestGetOrCreateSessionIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	period, err := svc.CreatePeriod(ctx, 1, testPeriodParams())
	require.NoError(t, err)

	first, err := svc.GetOrCreateSession(ctx, 1, period.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, first.Status)
	assert.True(t, first.StartingCapital.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "2024-03-15", first.Date.Format(models.DateFormat))

	second, err := svc.GetOrCreateSession(ctx, 1, period.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetOrCreateSessionForeignTraderSeesNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	period, err := svc.CreatePeriod(ctx, 1, testPeriodParams())
	require.NoError(t, err)

	sess, err := svc.GetOrCreateSession(ctx, 1, period.ID, time.Time{})
	require.NoError(t, err)

	// The existing session must not leak to a trader who does not own
	// the period.
	_, err = svc.GetOrCreateSession(ctx, 2, period.ID, time.Time{})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	own, err := svc.GetOrCreateSession(ctx, 1, period.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, sess.ID, own.ID)
}

func TestGetOrCreateSessionRejectsInactivePeriod(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	period, err := svc.CreatePeriod(ctx, 1, testPeriodParams())
	require.NoError(t, err)

	paused := models.PeriodPaused
	_, err = svc.UpdatePeriod(ctx, 1, period.ID, PeriodUpdate{Status: &paused})
	require.NoError(t, err)

	_, err = svc.GetOrCreateSession(ctx, 1, period.ID, time.Time{})
	assert.ErrorIs(t, err, errors.ErrInvalidState)
}

func TestGetOrCreateSessionRejectsOutOfRangeDate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	period, err := svc.CreatePeriod(ctx, 1, testPeriodParams())
	require.NoError(t, err)

	outside := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	_, err = svc.GetOrCreateSession(ctx, 1, period.ID, outside)
	assert.ErrorIs(t, err, errors.ErrInvalidState)
}

// openSession creates the standard period (1000 capital, 5% risk,
// 3 martingale steps, 15% target, 6% max loss) and today's session.
func openSession(t *testing.T, svc *Service) (*models.Period, *models.Session) {
	t.Helper()
	ctx := context.Background()

	period, err := svc.CreatePeriod(ctx, 1, testPeriodParams())
	require.NoError(t, err)

	sess, err := svc.GetOrCreateSession(ctx, 1, period.ID, time.Time{})
	require.NoError(t, err)
	return period, sess
}

func TestRegisterTradeFirstLoss(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, sess := openSession(t, svc)

	out, err := svc.RegisterTrade(ctx, 1, sess.ID, models.ResultOTM, "EUR/USD", dec("0.8"))
	require.NoError(t, err)

	assert.True(t, out.Trade.Stake.Equal(dec("50")), "base stake is 5%% of 1000")
	assert.True(t, out.Trade.PnL.Equal(dec("-50")))
	assert.Equal(t, 0, out.Trade.MartingaleStep)
	assert.Equal(t, 1, out.Trade.TradeNumber)
	assert.Equal(t, models.SessionInProgress, out.Session.Status)
	assert.True(t, out.CurrentCapital.Equal(dec("950")))

	assert.True(t, out.CanContinue)
	assert.True(t, out.NextStake.Equal(dec("100")), "martingale doubles after loss")
	assert.Equal(t, 1, out.NextMartingaleStep)
}

func TestRegisterTradeMartingaleSequence(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, sess := openSession(t, svc)

	// Loss streak escalates 50 -> 100; daily pnl hits -150 which breaches
	// the 60 max-daily-loss line, but the open escalation keeps the
	// session alive until step 3 is spent.
	out, err := svc.RegisterTrade(ctx, 1, sess.ID, models.ResultOTM, "EUR/USD", dec("0.8"))
	require.NoError(t, err)
	require.True(t, out.Trade.Stake.Equal(dec("50")))

	out, err = svc.RegisterTrade(ctx, 1, sess.ID, models.ResultOTM, "EUR/USD", dec("0.8"))
	require.NoError(t, err)
	assert.True(t, out.Trade.Stake.Equal(dec("100")))
	assert.Equal(t, 1, out.Trade.MartingaleStep)
	assert.True(t, out.Session.DailyPnL.Equal(dec("-150")))
	assert.Equal(t, models.SessionInProgress, out.Session.Status)
	assert.True(t, out.CanContinue)
	assert.True(t, out.NextStake.Equal(dec("200")))
	assert.Equal(t, 2, out.NextMartingaleStep)

	// Recovery win at 200 stake: +160, daily pnl back to +10, and the
	// next stake resets to the base on the updated capital.
	out, err = svc.RegisterTrade(ctx, 1, sess.ID, models.ResultITM, "EUR/USD", dec("0.8"))
	require.NoError(t, err)
	assert.True(t, out.Trade.Stake.Equal(dec("200")))
	assert.Equal(t, 2, out.Trade.MartingaleStep)
	assert.True(t, out.Trade.PnL.Equal(dec("160")))
	assert.True(t, out.Session.DailyPnL.Equal(dec("10")))
	assert.True(t, out.CurrentCapital.Equal(dec("1010")))
	assert.Equal(t, models.SessionInProgress, out.Session.Status)

	assert.True(t, out.NextStake.Equal(dec("50.5")), "base stake recomputed on live capital")
	assert.Equal(t, 0, out.NextMartingaleStep)
}

func TestRegisterTradeStopsAfterExhaustedMartingale(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	period, sess := openSession(t, svc)

	// Four straight losses: 50, 100, 200, 400 spends steps 0..3. The
	// fourth loss lands with the escalation exhausted, so the stop
	// engages.
	var out *TradeOutcome
	var err error
	for i := 0; i < 4; i++ {
		out, err = svc.RegisterTrade(ctx, 1, sess.ID, models.ResultOTM, "EUR/USD", dec("0.8"))
		require.NoError(t, err)
	}

	assert.True(t, out.Trade.Stake.Equal(dec("400")))
	assert.Equal(t, 3, out.Trade.MartingaleStep)
	assert.True(t, out.Session.DailyPnL.Equal(dec("-750")))
	assert.Equal(t, models.SessionStoppedLoss, out.Session.Status)
	assert.False(t, out.CanContinue)
	assert.True(t, out.NextStake.IsZero())

	// Terminal status settles the period capital in the same write.
	updated, err := svc.GetPeriod(ctx, 1, period.ID)
	require.NoError(t, err)
	assert.True(t, updated.CurrentCapital.Equal(dec("250")))

	// A stopped session accepts no further trades.
	_, err = svc.RegisterTrade(ctx, 1, sess.ID, models.ResultITM, "EUR/USD", dec("0.8"))
	assert.ErrorIs(t, err, errors.ErrInvalidState)
}

func TestRegisterTradeTargetHit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	period, sess := openSession(t, svc)

	// Wins of 40 each (5% stake, 0.8 payout). The 150 target needs
	// cumulative pnl >= 150; stakes grow with capital so the fourth win
	// crosses it.
	var out *TradeOutcome
	var err error
	for i := 0; i < 4; i++ {
		out, err = svc.RegisterTrade(ctx, 1, sess.ID, models.ResultITM, "EUR/USD", dec("0.8"))
		require.NoError(t, err)
	}

	assert.Equal(t, models.SessionTargetHit, out.Session.Status)
	assert.True(t, out.Session.DailyPnL.GreaterThanOrEqual(dec("150")))

	// target_hit settles the period but still allows further trades.
	updated, err := svc.GetPeriod(ctx, 1, period.ID)
	require.NoError(t, err)
	assert.True(t, updated.CurrentCapital.Equal(out.CurrentCapital))
	assert.True(t, out.CanContinue)
	assert.False(t, out.NextStake.IsZero())

	_, err = svc.RegisterTrade(ctx, 1, sess.ID, models.ResultITM, "EUR/USD", dec("0.8"))
	assert.NoError(t, err)
}

func TestRegisterTradeConcurrentNumbering(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, sess := openSession(t, svc)

	// Wins only, so no racing trade can stop the session mid-run.
	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RegisterTrade(ctx, 1, sess.ID, models.ResultITM, "EUR/USD", dec("0.8"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	view, err := svc.SessionStatus(ctx, 1, sess.ID)
	require.NoError(t, err)
	require.Len(t, view.Trades, n)

	total := decimal.Zero
	for i, tr := range view.Trades {
		assert.Equal(t, i+1, tr.TradeNumber, "trade numbers are gapless 1..n")
		total = total.Add(tr.PnL)
	}
	assert.Equal(t, n, view.Session.NumTrades)
	assert.True(t, view.Session.DailyPnL.Equal(total), "daily pnl equals the trade pnl sum")
}

func TestRegisterTradeValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, sess := openSession(t, svc)

	_, err := svc.RegisterTrade(ctx, 1, sess.ID, "WIN", "EUR/USD", dec("0.8"))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = svc.RegisterTrade(ctx, 1, sess.ID, models.ResultITM, "  ", dec("0.8"))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = svc.RegisterTrade(ctx, 1, sess.ID, models.ResultITM, "EUR/USD", dec("1.2"))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = svc.RegisterTrade(ctx, 2, sess.ID, models.ResultITM, "EUR/USD", dec("0.8"))
	assert.ErrorIs(t, err, errors.ErrNotFound, "foreign trader sees no session")

	_, err = svc.RegisterTrade(ctx, 1, 9999, models.ResultITM, "EUR/USD", dec("0.8"))
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestRegisterTradeNormalizesPair(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, sess := openSession(t, svc)

	out, err := svc.RegisterTrade(ctx, 1, sess.ID, models.ResultITM, " eur/usd ", dec("0.8"))
	require.NoError(t, err)
	assert.Equal(t, "EUR/USD", out.Trade.CurrencyPair)
}

func TestCloseSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	period, sess := openSession(t, svc)

	_, err := svc.RegisterTrade(ctx, 1, sess.ID, models.ResultITM, "EUR/USD", dec("0.8"))
	require.NoError(t, err)

	closed, err := svc.CloseSession(ctx, 1, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionClosed, closed.Status)
	assert.True(t, closed.EndingCapital.Equal(dec("1040")))

	updated, err := svc.GetPeriod(ctx, 1, period.ID)
	require.NoError(t, err)
	assert.True(t, updated.CurrentCapital.Equal(dec("1040")))

	// Close is not idempotent.
	_, err = svc.CloseSession(ctx, 1, sess.ID)
	assert.ErrorIs(t, err, errors.ErrAlreadyClosed)

	// Nor does a closed session accept trades.
	_, err = svc.RegisterTrade(ctx, 1, sess.ID, models.ResultITM, "EUR/USD", dec("0.8"))
	assert.ErrorIs(t, err, errors.ErrInvalidState)
}

func TestNextSessionStartsFromSettledCapital(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	period, sess := openSession(t, svc)

	_, err := svc.RegisterTrade(ctx, 1, sess.ID, models.ResultITM, "EUR/USD", dec("0.8"))
	require.NoError(t, err)
	_, err = svc.CloseSession(ctx, 1, sess.ID)
	require.NoError(t, err)

	next, err := svc.GetOrCreateSession(ctx, 1, period.ID, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, next.StartingCapital.Equal(dec("1040")))
}

func TestSessionStatusPreviewMatchesRegistration(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, sess := openSession(t, svc)

	// Fresh session: preview is the base stake.
	view, err := svc.SessionStatus(ctx, 1, sess.ID)
	require.NoError(t, err)
	assert.True(t, view.NextStake.Equal(dec("50")))
	assert.Equal(t, 0, view.NextMartingaleStep)
	assert.True(t, view.CanContinue)
	assert.True(t, view.DailyTarget.Equal(dec("150")))
	assert.True(t, view.MaxDailyLoss.Equal(dec("60")))

	out, err := svc.RegisterTrade(ctx, 1, sess.ID, models.ResultOTM, "EUR/USD", dec("0.8"))
	require.NoError(t, err)
	assert.True(t, out.Trade.Stake.Equal(view.NextStake), "registration charges exactly the previewed stake")

	// After the loss the preview shows the escalated stake.
	view, err = svc.SessionStatus(ctx, 1, sess.ID)
	require.NoError(t, err)
	assert.True(t, view.NextStake.Equal(dec("100")))
	assert.Equal(t, 1, view.NextMartingaleStep)
	assert.Len(t, view.Trades, 1)
}

func TestSessionStatusStoppedSessionHasNoPreview(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, sess := openSession(t, svc)

	for i := 0; i < 4; i++ {
		_, err := svc.RegisterTrade(ctx, 1, sess.ID, models.ResultOTM, "EUR/USD", dec("0.8"))
		require.NoError(t, err)
	}

	view, err := svc.SessionStatus(ctx, 1, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStoppedLoss, view.Session.Status)
	assert.False(t, view.CanContinue)
	assert.True(t, view.NextStake.IsZero())
}
