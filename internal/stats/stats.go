// Package stats aggregates journal statistics across a trader's
// periods and sessions, and exports report rows as CSV.
package stats

import (
	"context"

	"github.com/shopspring/decimal"

	"binary-trader/internal/models"
	"binary-trader/internal/store"
)

// TraderStats are aggregate figures over a trader's whole journal.
// Session-level rates count only terminal sessions; a day still in
// progress has no outcome to score.
type TraderStats struct {
	TotalPeriods       int             `json:"total_periods"`
	ActivePeriods      int             `json:"active_periods"`
	TotalSessions      int             `json:"total_sessions"`
	TerminalSessions   int             `json:"terminal_sessions"`
	TotalTrades        int             `json:"total_trades"`
	TradesWon          int             `json:"trades_won"`
	TotalPnL           decimal.Decimal `json:"total_pnl"`
	SessionsWithTarget int             `json:"sessions_with_target"`
	SessionsWithStop   int             `json:"sessions_with_stop"`
	SessionWinRate     decimal.Decimal `json:"session_win_rate"`
	TradeWinRate       decimal.Decimal `json:"trade_win_rate"`
}

// Reporter computes statistics from the store.
type Reporter struct {
	store store.Store
}

// NewReporter creates a statistics reporter.
func NewReporter(st store.Store) *Reporter {
	return &Reporter{store: st}
}

// TraderStats aggregates over every period owned by the trader. A
// session counts toward the target tally when it ended at or above its
// daily target, and toward the stop tally when it hit the loss stop;
// both are judged by stored status plus sign of the day's PnL for
// sessions rolled into closed by the scheduler.
func (r *Reporter) TraderStats(ctx context.Context, traderID int64) (*TraderStats, error) {
	periods, err := r.store.ListPeriods(ctx, store.PeriodFilter{TraderID: traderID})
	if err != nil {
		return nil, err
	}

	stats := &TraderStats{
		TotalPnL:       decimal.Zero,
		SessionWinRate: decimal.Zero,
		TradeWinRate:   decimal.Zero,
	}
	stats.TotalPeriods = len(periods)

	for _, p := range periods {
		if p.Status == models.PeriodActive {
			stats.ActivePeriods++
		}

		sessions, err := r.store.ListSessions(ctx, store.SessionFilter{PeriodID: p.ID})
		if err != nil {
			return nil, err
		}
		stats.TotalSessions += len(sessions)

		for _, sess := range sessions {
			stats.TotalTrades += sess.NumTrades
			stats.TotalPnL = stats.TotalPnL.Add(sess.DailyPnL)

			if !sess.Status.Terminal() {
				continue
			}
			stats.TerminalSessions++

			switch sess.Status {
			case models.SessionTargetHit:
				stats.SessionsWithTarget++
			case models.SessionStoppedLoss:
				stats.SessionsWithStop++
			case models.SessionClosed:
				// Scheduler-closed days keep their outcome in the PnL.
				target := sess.StartingCapital.Mul(p.DailyTargetPct)
				maxLoss := sess.StartingCapital.Mul(p.MaxDailyLossPct)
				if sess.DailyPnL.GreaterThanOrEqual(target) {
					stats.SessionsWithTarget++
				} else if sess.DailyPnL.LessThanOrEqual(maxLoss.Neg()) {
					stats.SessionsWithStop++
				}
			}

			trades, err := r.store.ListTrades(ctx, sess.ID)
			if err != nil {
				return nil, err
			}
			for _, tr := range trades {
				if tr.Result == models.ResultITM {
					stats.TradesWon++
				}
			}
		}
	}

	if stats.TerminalSessions > 0 {
		positive := 0
		// Session win rate is the share of terminal sessions that ended
		// the day with a positive PnL.
		for _, p := range periods {
			sessions, err := r.store.ListSessions(ctx, store.SessionFilter{PeriodID: p.ID})
			if err != nil {
				return nil, err
			}
			for _, sess := range sessions {
				if sess.Status.Terminal() && sess.DailyPnL.IsPositive() {
					positive++
				}
			}
		}
		stats.SessionWinRate = decimal.NewFromInt(int64(positive)).
			Div(decimal.NewFromInt(int64(stats.TerminalSessions))).Round(4)
	}
	if stats.TotalTrades > 0 {
		stats.TradeWinRate = decimal.NewFromInt(int64(stats.TradesWon)).
			Div(decimal.NewFromInt(int64(stats.TotalTrades))).Round(4)
	}

	return stats, nil
}

// SessionRow is one line of a period report: a session with its
// derived capital figures.
type SessionRow struct {
	SessionID       int64           `json:"session_id" csv:"session_id"`
	Date            string          `json:"date" csv:"date"`
	StartingCapital decimal.Decimal `json:"starting_capital" csv:"starting_capital"`
	EndingCapital   decimal.Decimal `json:"ending_capital" csv:"ending_capital"`
	DailyPnL        decimal.Decimal `json:"daily_pnl" csv:"daily_pnl"`
	NumTrades       int             `json:"num_trades" csv:"num_trades"`
	Status          string          `json:"status" csv:"status"`
}

// PeriodReport lists a period's sessions oldest first, each with its
// capital figures.
func (r *Reporter) PeriodReport(ctx context.Context, periodID int64) ([]SessionRow, error) {
	sessions, err := r.store.ListSessions(ctx, store.SessionFilter{PeriodID: periodID})
	if err != nil {
		return nil, err
	}

	// Store returns newest first; reports read top to bottom in time.
	rows := make([]SessionRow, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		sess := sessions[i]
		rows = append(rows, SessionRow{
			SessionID:       sess.ID,
			Date:            sess.Date.Format(models.DateFormat),
			StartingCapital: sess.StartingCapital,
			EndingCapital:   sess.EndingCapital,
			DailyPnL:        sess.DailyPnL,
			NumTrades:       sess.NumTrades,
			Status:          string(sess.Status),
		})
	}
	return rows, nil
}

// TradeRow is one line of a session report: a registered trade.
type TradeRow struct {
	TradeNumber    int             `json:"trade_number" csv:"trade_number"`
	CurrencyPair   string          `json:"currency_pair" csv:"currency_pair"`
	Stake          decimal.Decimal `json:"stake" csv:"stake"`
	Result         string          `json:"result" csv:"result"`
	PnL            decimal.Decimal `json:"pnl" csv:"pnl"`
	CapitalAfter   decimal.Decimal `json:"capital_after" csv:"capital_after"`
	MartingaleStep int             `json:"martingale_step" csv:"martingale_step"`
	PayoutReal     decimal.Decimal `json:"payout_real" csv:"payout_real"`
}

// SessionReport lists a session's trades in execution order.
func (r *Reporter) SessionReport(ctx context.Context, sessionID int64) ([]TradeRow, error) {
	trades, err := r.store.ListTrades(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rows := make([]TradeRow, 0, len(trades))
	for _, tr := range trades {
		rows = append(rows, TradeRow{
			TradeNumber:    tr.TradeNumber,
			CurrencyPair:   tr.CurrencyPair,
			Stake:          tr.Stake,
			Result:         string(tr.Result),
			PnL:            tr.PnL,
			CapitalAfter:   tr.CapitalAfter,
			MartingaleStep: tr.MartingaleStep,
			PayoutReal:     tr.PayoutReal,
		})
	}
	return rows, nil
}
