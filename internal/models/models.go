// Package models defines the core domain types for the trading journal.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the canonical calendar-date layout used for session and
// period dates. Dates carry no time component.
const DateFormat = "2006-01-02"

// PeriodStatus represents the lifecycle status of a trading period.
type PeriodStatus string

const (
	PeriodActive    PeriodStatus = "active"
	PeriodCompleted PeriodStatus = "completed"
	PeriodPaused    PeriodStatus = "paused"
)

// Valid reports whether the status is a known period status.
func (s PeriodStatus) Valid() bool {
	switch s {
	case PeriodActive, PeriodCompleted, PeriodPaused:
		return true
	}
	return false
}

// SessionStatus represents the state of a daily trading session.
type SessionStatus string

const (
	SessionInProgress  SessionStatus = "in_progress"
	SessionTargetHit   SessionStatus = "target_hit"
	SessionStoppedLoss SessionStatus = "stopped_loss"
	SessionClosed      SessionStatus = "closed"
)

// Terminal reports whether the status settles the period capital.
// Closed, target_hit and stopped_loss all propagate session capital
// into the owning period.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionTargetHit, SessionStoppedLoss, SessionClosed:
		return true
	}
	return false
}

// Result represents a binary-options trade outcome.
type Result string

const (
	ResultITM Result = "ITM" // in the money (win)
	ResultOTM Result = "OTM" // out of the money (loss)
)

// Valid reports whether the result is ITM or OTM.
func (r Result) Valid() bool {
	return r == ResultITM || r == ResultOTM
}

// SignalDirection represents the direction of an ingested trade signal.
type SignalDirection string

const (
	DirectionCall SignalDirection = "CALL"
	DirectionPut  SignalDirection = "PUT"
)

// Period is a capital-risk configuration window spanning multiple
// trading days. CurrentCapital is mutated only when one of its sessions
// reaches a terminal status.
type Period struct {
	ID              int64           `json:"id"`
	TraderID        int64           `json:"trader_id"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	InitialCapital  decimal.Decimal `json:"initial_capital"`
	CurrentCapital  decimal.Decimal `json:"current_capital"`
	DailyTargetPct  decimal.Decimal `json:"daily_target_pct"`
	PayoutPct       decimal.Decimal `json:"payout_pct"`
	RiskPerTradePct decimal.Decimal `json:"risk_per_trade_pct"`
	MartingaleSteps int             `json:"martingale_steps"`
	MaxDailyLossPct decimal.Decimal `json:"max_daily_loss_pct"`
	Status          PeriodStatus    `json:"status"`
	Nickname        string          `json:"nickname,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ContainsDate reports whether a calendar date falls inside the
// period's [start, end] range.
func (p *Period) ContainsDate(date time.Time) bool {
	d := date.Format(DateFormat)
	return d >= p.StartDate.Format(DateFormat) && d <= p.EndDate.Format(DateFormat)
}

// Session is one calendar day's trading activity under a period.
// At most one session exists per (period, date) pair.
type Session struct {
	ID              int64           `json:"id"`
	PeriodID        int64           `json:"period_id"`
	Date            time.Time       `json:"date"`
	StartingCapital decimal.Decimal `json:"starting_capital"`
	EndingCapital   decimal.Decimal `json:"ending_capital"`
	DailyPnL        decimal.Decimal `json:"daily_pnl"`
	NumTrades       int             `json:"num_trades"`
	Status          SessionStatus   `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CurrentCapital returns the live session capital: the immutable
// starting snapshot plus accumulated PnL.
func (s *Session) CurrentCapital() decimal.Decimal {
	return s.StartingCapital.Add(s.DailyPnL)
}

// Trade is one executed stake decision and its outcome. Trades are
// immutable once registered and numbered gaplessly within a session.
type Trade struct {
	ID             int64           `json:"id"`
	SessionID      int64           `json:"session_id"`
	TradeNumber    int             `json:"trade_number"`
	Stake          decimal.Decimal `json:"stake"`
	Result         Result          `json:"result"`
	PnL            decimal.Decimal `json:"pnl"`
	CapitalAfter   decimal.Decimal `json:"capital_after"`
	MartingaleStep int             `json:"martingale_step"`
	CurrencyPair   string          `json:"currency_pair"`
	PayoutReal     decimal.Decimal `json:"payout_real"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Signal is a trade signal ingested from an external messaging
// channel. Parsing happens upstream; the journal only stores the
// structured fields alongside the raw text.
type Signal struct {
	ID         int64           `json:"id"`
	Date       time.Time       `json:"date"`
	MessageID  string          `json:"message_id,omitempty"`
	RawMessage string          `json:"raw_message"`
	Pair       string          `json:"pair,omitempty"`
	Direction  SignalDirection `json:"direction,omitempty"`
	Strategy   string          `json:"strategy,omitempty"`
	Conditions string          `json:"conditions,omitempty"`
	Expiration string          `json:"expiration,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
