// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"binary-trader/internal/models"
)

// Store defines the interface for journal persistence. Lookups that
// miss return (nil, nil) rather than an error; composite writes
// (trade registration, session close) are applied in one transaction
// so a session's terminal transition and the period-capital update can
// never be observed half-applied.
type Store interface {
	// Periods
	CreatePeriod(ctx context.Context, p *models.Period) error
	GetPeriod(ctx context.Context, id int64) (*models.Period, error)
	ListPeriods(ctx context.Context, filter PeriodFilter) ([]models.Period, error)
	UpdatePeriod(ctx context.Context, p *models.Period) error
	CountSessions(ctx context.Context, periodID int64) (int, error)

	// Sessions
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id int64) (*models.Session, error)
	SessionByPeriodDate(ctx context.Context, periodID int64, date time.Time) (*models.Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]models.Session, error)

	// Trades
	ListTrades(ctx context.Context, sessionID int64) ([]models.Trade, error)
	LatestTrade(ctx context.Context, sessionID int64) (*models.Trade, error)

	// Composite transactional writes. period may be nil when the
	// session did not reach a terminal status.
	SaveTradeResult(ctx context.Context, trade *models.Trade, session *models.Session, period *models.Period) error
	CloseSession(ctx context.Context, session *models.Session, period *models.Period) error

	// Signals
	SaveSignal(ctx context.Context, sig *models.Signal) error
	ListSignals(ctx context.Context, filter SignalFilter) ([]models.Signal, error)

	// Lifecycle
	Close() error
}

// PeriodFilter represents filters for querying trading periods.
type PeriodFilter struct {
	TraderID int64
	Status   models.PeriodStatus
}

// SessionFilter represents filters for querying daily sessions.
type SessionFilter struct {
	PeriodID int64
	Statuses []models.SessionStatus
	Before   time.Time // sessions dated strictly before this calendar date
	Limit    int
}

// SignalFilter represents filters for querying ingested trade signals.
type SignalFilter struct {
	From     time.Time
	To       time.Time
	Pair     string // substring match
	Strategy string
	Limit    int
}
