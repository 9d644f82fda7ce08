package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binary-trader/internal/models"
	"binary-trader/internal/store"
	"binary-trader/internal/trading"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }
func (c fixedClock) Today() time.Time {
	return time.Date(c.now.Year(), c.now.Month(), c.now.Day(), 0, 0, 0, 0, c.now.Location())
}

func setup(t *testing.T) (*Reporter, *trading.Service, *models.Period) {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := fixedClock{now: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	svc := trading.NewService(st, clock, zerolog.Nop())

	period, err := svc.CreatePeriod(ctx, 1, trading.PeriodParams{
		StartDate:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		InitialCapital:  decimal.NewFromInt(1000),
		DailyTargetPct:  decimal.RequireFromString("0.15"),
		PayoutPct:       decimal.RequireFromString("0.8"),
		RiskPerTradePct: decimal.RequireFromString("0.05"),
		MartingaleSteps: 3,
		MaxDailyLossPct: decimal.RequireFromString("0.06"),
	})
	require.NoError(t, err)

	return NewReporter(st), svc, period
}

func TestTraderStats(t *testing.T) {
	ctx := context.Background()
	reporter, svc, period := setup(t)

	// Day one: one winning trade, closed manually (+40).
	day1, err := svc.GetOrCreateSession(ctx, 1, period.ID, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = svc.RegisterTrade(ctx, 1, day1.ID, models.ResultITM, "EUR/USD", decimal.RequireFromString("0.8"))
	require.NoError(t, err)
	_, err = svc.CloseSession(ctx, 1, day1.ID)
	require.NoError(t, err)

	// Day two: four straight losses exhaust the martingale and stop the day.
	day2, err := svc.GetOrCreateSession(ctx, 1, period.ID, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err = svc.RegisterTrade(ctx, 1, day2.ID, models.ResultOTM, "GBP/USD", decimal.RequireFromString("0.8"))
		require.NoError(t, err)
	}

	stats, err := reporter.TraderStats(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalPeriods)
	assert.Equal(t, 1, stats.ActivePeriods)
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 2, stats.TerminalSessions)
	assert.Equal(t, 5, stats.TotalTrades)
	assert.Equal(t, 1, stats.TradesWon)
	assert.Equal(t, 0, stats.SessionsWithTarget)
	assert.Equal(t, 1, stats.SessionsWithStop)
	assert.True(t, stats.SessionWinRate.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, stats.TradeWinRate.Equal(decimal.RequireFromString("0.2")))
}

func TestTraderStatsEmpty(t *testing.T) {
	ctx := context.Background()
	reporter, _, _ := setup(t)

	stats, err := reporter.TraderStats(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalPeriods)
	assert.Equal(t, 0, stats.TotalTrades)
	assert.True(t, stats.TotalPnL.IsZero())
	assert.True(t, stats.SessionWinRate.IsZero())
}

func TestPeriodReportOrder(t *testing.T) {
	ctx := context.Background()
	reporter, svc, period := setup(t)

	for _, day := range []int{14, 13, 15} {
		sess, err := svc.GetOrCreateSession(ctx, 1, period.ID, time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		_, err = svc.CloseSession(ctx, 1, sess.ID)
		require.NoError(t, err)
	}

	rows, err := reporter.PeriodReport(ctx, period.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2024-03-13", rows[0].Date)
	assert.Equal(t, "2024-03-14", rows[1].Date)
	assert.Equal(t, "2024-03-15", rows[2].Date)
}

func TestExportSessionCSV(t *testing.T) {
	ctx := context.Background()
	reporter, svc, period := setup(t)

	sess, err := svc.GetOrCreateSession(ctx, 1, period.ID, time.Time{})
	require.NoError(t, err)
	_, err = svc.RegisterTrade(ctx, 1, sess.ID, models.ResultOTM, "EUR/USD", decimal.RequireFromString("0.8"))
	require.NoError(t, err)
	_, err = svc.RegisterTrade(ctx, 1, sess.ID, models.ResultITM, "EUR/USD", decimal.RequireFromString("0.8"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, reporter.ExportSessionCSV(ctx, sess.ID, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "trade_number")
	assert.Contains(t, lines[0], "martingale_step")
	assert.Contains(t, lines[1], "OTM")
	assert.Contains(t, lines[2], "ITM")
}

func TestExportPeriodCSV(t *testing.T) {
	ctx := context.Background()
	reporter, svc, period := setup(t)

	sess, err := svc.GetOrCreateSession(ctx, 1, period.ID, time.Time{})
	require.NoError(t, err)
	_, err = svc.CloseSession(ctx, 1, sess.ID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, reporter.ExportPeriodCSV(ctx, period.ID, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "starting_capital")
	assert.Contains(t, lines[1], "closed")
}
