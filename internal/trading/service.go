// Package trading implements the staking and session-state engine: stake
// derivation, trade registration, target/stop detection and session
// closing for the daily-session state machine.
package trading

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"binary-trader/internal/errors"
	"binary-trader/internal/models"
	"binary-trader/internal/staking"
	"binary-trader/internal/store"
)

// Service coordinates periods, daily sessions and trades on top of the
// store. Trade registration is serialized per session: at most one
// registration runs against a given session at a time, while different
// sessions proceed in parallel.
type Service struct {
	store  store.Store
	clock  Clock
	logger zerolog.Logger

	mu           sync.Mutex
	sessionLocks map[int64]*sync.Mutex // entries are released when the session closes
}

// NewService creates a new trading service.
func NewService(st store.Store, clock Clock, logger zerolog.Logger) *Service {
	return &Service{
		store:        st,
		clock:        clock,
		logger:       logger,
		sessionLocks: make(map[int64]*sync.Mutex),
	}
}

// sessionLock returns the mutex serializing writes to one session.
func (s *Service) sessionLock(sessionID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.sessionLocks[sessionID] = lock
	}
	return lock
}

// releaseSessionLock drops a session's lock entry. Safe only once the
// session is closed: closed sessions reject every write, so a late
// waiter on the old mutex and a holder of a fresh one can no longer
// conflict.
func (s *Service) releaseSessionLock(sessionID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessionLocks, sessionID)
}

// ============================================================================
// Periods
// ============================================================================

// PeriodParams holds the parameters for creating a trading period.
// Zero percentage fields fall back to the given defaults.
type PeriodParams struct {
	StartDate       time.Time
	EndDate         time.Time
	InitialCapital  decimal.Decimal
	DailyTargetPct  decimal.Decimal
	PayoutPct       decimal.Decimal
	RiskPerTradePct decimal.Decimal
	MartingaleSteps int
	MaxDailyLossPct decimal.Decimal
	Nickname        string
}

// CreatePeriod creates a trading period for a trader. Current capital
// starts equal to the initial capital.
func (s *Service) CreatePeriod(ctx context.Context, traderID int64, params PeriodParams) (*models.Period, error) {
	if traderID <= 0 {
		return nil, errors.NewValidationError("trader_id", traderID, "must be positive")
	}
	if params.StartDate.IsZero() || params.EndDate.IsZero() {
		return nil, errors.NewValidationError("dates", "", "start and end dates are required")
	}
	if params.EndDate.Format(models.DateFormat) < params.StartDate.Format(models.DateFormat) {
		return nil, errors.NewValidationError("end_date", params.EndDate.Format(models.DateFormat), "must not precede start date")
	}
	if !params.InitialCapital.IsPositive() {
		return nil, errors.NewValidationError("initial_capital", params.InitialCapital.String(), "must be positive")
	}
	if params.MartingaleSteps < 0 {
		return nil, errors.NewValidationError("martingale_steps", params.MartingaleSteps, "must not be negative")
	}
	for _, pct := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"daily_target_pct", params.DailyTargetPct},
		{"payout_pct", params.PayoutPct},
		{"risk_per_trade_pct", params.RiskPerTradePct},
		{"max_daily_loss_pct", params.MaxDailyLossPct},
	} {
		if pct.value.IsNegative() || pct.value.GreaterThan(decimal.NewFromInt(1)) {
			return nil, errors.NewValidationError(pct.name, pct.value.String(), "must be between 0 and 1")
		}
	}

	period := &models.Period{
		TraderID:        traderID,
		StartDate:       params.StartDate,
		EndDate:         params.EndDate,
		InitialCapital:  params.InitialCapital,
		CurrentCapital:  params.InitialCapital,
		DailyTargetPct:  params.DailyTargetPct,
		PayoutPct:       params.PayoutPct,
		RiskPerTradePct: params.RiskPerTradePct,
		MartingaleSteps: params.MartingaleSteps,
		MaxDailyLossPct: params.MaxDailyLossPct,
		Status:          models.PeriodActive,
		Nickname:        params.Nickname,
	}

	if err := s.store.CreatePeriod(ctx, period); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("period_id", period.ID).
		Int64("trader_id", traderID).
		Str("initial_capital", period.InitialCapital.String()).
		Msg("Trading period created")

	return period, nil
}

// PeriodUpdate holds optional changes to a trading period. Nil fields
// are left untouched.
type PeriodUpdate struct {
	StartDate       *time.Time
	EndDate         *time.Time
	InitialCapital  *decimal.Decimal
	DailyTargetPct  *decimal.Decimal
	PayoutPct       *decimal.Decimal
	RiskPerTradePct *decimal.Decimal
	MartingaleSteps *int
	MaxDailyLossPct *decimal.Decimal
	Status          *models.PeriodStatus
	Nickname        *string
}

// UpdatePeriod applies changes to a period owned by the trader. An
// initial-capital change also resets the running capital, but only
// while the period has no sessions yet; once a session snapshotted the
// capital the running figure belongs to the session history.
func (s *Service) UpdatePeriod(ctx context.Context, traderID, periodID int64, upd PeriodUpdate) (*models.Period, error) {
	period, err := s.ownedPeriod(ctx, traderID, periodID)
	if err != nil {
		return nil, err
	}

	if upd.StartDate != nil {
		period.StartDate = *upd.StartDate
	}
	if upd.EndDate != nil {
		period.EndDate = *upd.EndDate
	}
	if upd.InitialCapital != nil {
		if !upd.InitialCapital.IsPositive() {
			return nil, errors.NewValidationError("initial_capital", upd.InitialCapital.String(), "must be positive")
		}
		period.InitialCapital = *upd.InitialCapital
		count, err := s.store.CountSessions(ctx, periodID)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			period.CurrentCapital = *upd.InitialCapital
		}
	}
	if upd.DailyTargetPct != nil {
		period.DailyTargetPct = *upd.DailyTargetPct
	}
	if upd.PayoutPct != nil {
		period.PayoutPct = *upd.PayoutPct
	}
	if upd.RiskPerTradePct != nil {
		period.RiskPerTradePct = *upd.RiskPerTradePct
	}
	if upd.MartingaleSteps != nil {
		if *upd.MartingaleSteps < 0 {
			return nil, errors.NewValidationError("martingale_steps", *upd.MartingaleSteps, "must not be negative")
		}
		period.MartingaleSteps = *upd.MartingaleSteps
	}
	if upd.MaxDailyLossPct != nil {
		period.MaxDailyLossPct = *upd.MaxDailyLossPct
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, errors.NewValidationError("status", string(*upd.Status), "must be active, completed or paused")
		}
		period.Status = *upd.Status
	}
	if upd.Nickname != nil {
		period.Nickname = *upd.Nickname
	}
	if period.EndDate.Format(models.DateFormat) < period.StartDate.Format(models.DateFormat) {
		return nil, errors.NewValidationError("end_date", period.EndDate.Format(models.DateFormat), "must not precede start date")
	}

	if err := s.store.UpdatePeriod(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

// GetPeriod retrieves a period owned by the trader.
func (s *Service) GetPeriod(ctx context.Context, traderID, periodID int64) (*models.Period, error) {
	return s.ownedPeriod(ctx, traderID, periodID)
}

// ListPeriods retrieves all periods of a trader, newest first.
func (s *Service) ListPeriods(ctx context.Context, traderID int64) ([]models.Period, error) {
	return s.store.ListPeriods(ctx, store.PeriodFilter{TraderID: traderID})
}

// ownedPeriod loads a period and enforces ownership. A period owned by
// another trader is reported as absent, not as forbidden.
func (s *Service) ownedPeriod(ctx context.Context, traderID, periodID int64) (*models.Period, error) {
	period, err := s.store.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil || period.TraderID != traderID {
		return nil, errors.Wrapf(errors.ErrNotFound, "period %d", periodID)
	}
	return period, nil
}

// ============================================================================
// Sessions
// ============================================================================

// GetOrCreateSession returns the session for (period, date), creating
// it when absent. Creation requires an active period whose date range
// contains the requested date; the new session snapshots the period's
// current capital as its immutable starting capital. A zero date means
// today in the trading timezone.
func (s *Service) GetOrCreateSession(ctx context.Context, traderID, periodID int64, date time.Time) (*models.Session, error) {
	if date.IsZero() {
		date = s.clock.Today()
	}

	// Ownership comes first so a foreign period never leaks an existing
	// session through the lookup branch.
	period, err := s.ownedPeriod(ctx, traderID, periodID)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.SessionByPeriodDate(ctx, periodID, date)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}
	if period.Status != models.PeriodActive {
		return nil, errors.NewStateError("period", periodID, string(period.Status), "open session for")
	}
	if !period.ContainsDate(date) {
		return nil, errors.NewStateError("period", periodID, string(period.Status), "open out-of-range session for")
	}

	sess = &models.Session{
		PeriodID:        periodID,
		Date:            date,
		StartingCapital: period.CurrentCapital,
		DailyPnL:        decimal.Zero,
		NumTrades:       0,
		Status:          models.SessionInProgress,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		// A concurrent caller may have created the session between the
		// lookup and the insert; the unique (period, date) index makes
		// the race safe to resolve by re-reading.
		existing, lookupErr := s.store.SessionByPeriodDate(ctx, periodID, date)
		if lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}

	s.logger.Info().
		Int64("session_id", sess.ID).
		Int64("period_id", periodID).
		Str("date", date.Format(models.DateFormat)).
		Str("starting_capital", sess.StartingCapital.String()).
		Msg("Daily session opened")

	return sess, nil
}

// TradeOutcome is the result of registering a trade: the immutable
// trade record, the updated session, the live capital figures, and the
// preview of the next stake so the client always sees the same number
// the engine will charge.
type TradeOutcome struct {
	Trade              models.Trade    `json:"trade"`
	Session            models.Session  `json:"session"`
	CurrentCapital     decimal.Decimal `json:"current_capital"`
	DailyTarget        decimal.Decimal `json:"daily_target"`
	MaxDailyLoss       decimal.Decimal `json:"max_daily_loss"`
	CanContinue        bool            `json:"can_continue"`
	NextStake          decimal.Decimal `json:"next_stake"`
	NextMartingaleStep int             `json:"next_martingale_step"`
}

// RegisterTrade records the outcome of one executed stake decision. The
// stake is derived from the session's trade history, never supplied by
// the caller. On a terminal status the session capital settles into the
// owning period in the same transaction.
func (s *Service) RegisterTrade(ctx context.Context, traderID, sessionID int64, result models.Result, currencyPair string, payoutFraction decimal.Decimal) (*TradeOutcome, error) {
	if !result.Valid() {
		return nil, errors.NewValidationError("result", string(result), "must be ITM or OTM")
	}
	pair := strings.ToUpper(strings.TrimSpace(currencyPair))
	if pair == "" {
		return nil, errors.NewValidationError("currency_pair", currencyPair, "is required")
	}
	if payoutFraction.IsNegative() || payoutFraction.GreaterThan(decimal.NewFromInt(1)) {
		return nil, errors.NewValidationError("payout_fraction", payoutFraction.String(), "must be between 0 and 1")
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, period, err := s.ownedSession(ctx, traderID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.SessionStoppedLoss || sess.Status == models.SessionClosed {
		return nil, errors.NewStateError("session", sessionID, string(sess.Status), "register trade in")
	}

	currentCapital := sess.CurrentCapital()

	last, err := s.store.LatestTrade(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var stake decimal.Decimal
	step := 0
	if last != nil {
		stake, step = staking.NextStake(currentCapital, period.RiskPerTradePct,
			last.Stake, last.MartingaleStep, period.MartingaleSteps, last.Result)
	} else {
		stake = staking.BaseStake(currentCapital, period.RiskPerTradePct)
		if stake.GreaterThan(currentCapital) {
			stake = currentCapital
		}
	}

	// NextStake clamps already; re-validated in case history was edited
	// out from under us.
	if stake.GreaterThan(currentCapital) {
		return nil, errors.NewCapitalError(sessionID, stake.String(), currentCapital.String())
	}

	pnl, err := staking.PnL(stake, result, payoutFraction)
	if err != nil {
		return nil, err
	}

	currentCapital = currentCapital.Add(pnl)
	newDailyPnL := sess.DailyPnL.Add(pnl)

	// Stops are evaluated against the fixed session snapshot, not the
	// live capital.
	dailyTarget := sess.StartingCapital.Mul(period.DailyTargetPct)
	maxDailyLoss := sess.StartingCapital.Mul(period.MaxDailyLossPct)

	newStatus := sess.Status
	switch {
	case newDailyPnL.GreaterThanOrEqual(dailyTarget):
		newStatus = models.SessionTargetHit
	case newDailyPnL.LessThanOrEqual(maxDailyLoss.Neg()):
		// A loss inside an unexhausted martingale escalation may play
		// out to its last step before the stop engages.
		if result == models.ResultOTM && step < period.MartingaleSteps {
			newStatus = sess.Status
		} else {
			newStatus = models.SessionStoppedLoss
		}
	}

	tradeNumber := 1
	if last != nil {
		tradeNumber = last.TradeNumber + 1
	}

	trade := &models.Trade{
		SessionID:      sessionID,
		TradeNumber:    tradeNumber,
		Stake:          stake,
		Result:         result,
		PnL:            pnl,
		CapitalAfter:   currentCapital,
		MartingaleStep: step,
		CurrencyPair:   pair,
		PayoutReal:     payoutFraction,
	}

	sess.DailyPnL = newDailyPnL
	sess.NumTrades = tradeNumber
	sess.Status = newStatus

	// Terminal sessions settle into the period immediately so the
	// ledger reflects the outcome without waiting for an explicit close.
	var settled *models.Period
	if newStatus.Terminal() {
		period.CurrentCapital = currentCapital
		settled = period
	}

	if err := s.store.SaveTradeResult(ctx, trade, sess, settled); err != nil {
		return nil, err
	}

	canContinue := newStatus == models.SessionInProgress || newStatus == models.SessionTargetHit

	nextStake := decimal.Zero
	nextStep := 0
	if canContinue {
		nextStake, nextStep = staking.NextStake(currentCapital, period.RiskPerTradePct,
			stake, step, period.MartingaleSteps, result)
	}

	s.logger.Info().
		Int64("session_id", sessionID).
		Int("trade_number", tradeNumber).
		Str("result", string(result)).
		Str("stake", stake.String()).
		Str("pnl", pnl.String()).
		Int("martingale_step", step).
		Str("status", string(newStatus)).
		Msg("Trade registered")

	return &TradeOutcome{
		Trade:              *trade,
		Session:            *sess,
		CurrentCapital:     currentCapital,
		DailyTarget:        dailyTarget,
		MaxDailyLoss:       maxDailyLoss,
		CanContinue:        canContinue,
		NextStake:          nextStake,
		NextMartingaleStep: nextStep,
	}, nil
}

// CloseSession closes a session: ending capital is fixed as starting
// capital plus the day's PnL and written into the owning period in the
// same transaction. Closing an already closed session fails.
func (s *Service) CloseSession(ctx context.Context, traderID, sessionID int64) (*models.Session, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, period, err := s.ownedSession(ctx, traderID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.SessionClosed {
		return nil, errors.Wrapf(errors.ErrAlreadyClosed, "session %d", sessionID)
	}

	endingCapital := sess.CurrentCapital()
	sess.EndingCapital = endingCapital
	sess.Status = models.SessionClosed
	period.CurrentCapital = endingCapital

	if err := s.store.CloseSession(ctx, sess, period); err != nil {
		return nil, err
	}
	s.releaseSessionLock(sessionID)

	s.logger.Info().
		Int64("session_id", sessionID).
		Int64("period_id", period.ID).
		Str("ending_capital", endingCapital.String()).
		Str("daily_pnl", sess.DailyPnL.String()).
		Msg("Daily session closed")

	return sess, nil
}

// PeriodTerms is the subset of period parameters a session view exposes.
type PeriodTerms struct {
	PayoutPct       decimal.Decimal `json:"payout_pct"`
	RiskPerTradePct decimal.Decimal `json:"risk_per_trade_pct"`
	MartingaleSteps int             `json:"martingale_steps"`
}

// SessionView is a read-only snapshot of a session with its derived
// capital figures and the next-stake preview.
type SessionView struct {
	Session            models.Session  `json:"session"`
	Trades             []models.Trade  `json:"trades"`
	CurrentCapital     decimal.Decimal `json:"current_capital"`
	DailyTarget        decimal.Decimal `json:"daily_target"`
	MaxDailyLoss       decimal.Decimal `json:"max_daily_loss"`
	CanContinue        bool            `json:"can_continue"`
	NextStake          decimal.Decimal `json:"next_stake"`
	NextMartingaleStep int             `json:"next_martingale_step"`
	Period             PeriodTerms     `json:"period"`
}

// SessionStatus returns a session snapshot with the next-stake preview.
// The preview uses the same derivation as RegisterTrade, so the number
// shown here is exactly the number a registration would charge.
func (s *Service) SessionStatus(ctx context.Context, traderID, sessionID int64) (*SessionView, error) {
	sess, period, err := s.ownedSession(ctx, traderID, sessionID)
	if err != nil {
		return nil, err
	}

	trades, err := s.store.ListTrades(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	currentCapital := sess.CurrentCapital()
	canContinue := sess.Status == models.SessionInProgress || sess.Status == models.SessionTargetHit

	nextStake := decimal.Zero
	nextStep := 0
	if canContinue {
		if len(trades) > 0 {
			last := trades[len(trades)-1]
			nextStake, nextStep = staking.NextStake(currentCapital, period.RiskPerTradePct,
				last.Stake, last.MartingaleStep, period.MartingaleSteps, last.Result)
		} else {
			nextStake = staking.BaseStake(currentCapital, period.RiskPerTradePct)
			if nextStake.GreaterThan(currentCapital) {
				nextStake = currentCapital
			}
		}
	}

	return &SessionView{
		Session:            *sess,
		Trades:             trades,
		CurrentCapital:     currentCapital,
		DailyTarget:        sess.StartingCapital.Mul(period.DailyTargetPct),
		MaxDailyLoss:       sess.StartingCapital.Mul(period.MaxDailyLossPct),
		CanContinue:        canContinue,
		NextStake:          nextStake,
		NextMartingaleStep: nextStep,
		Period: PeriodTerms{
			PayoutPct:       period.PayoutPct,
			RiskPerTradePct: period.RiskPerTradePct,
			MartingaleSteps: period.MartingaleSteps,
		},
	}, nil
}

// ownedSession loads a session together with its period and enforces
// trader ownership through the period.
func (s *Service) ownedSession(ctx context.Context, traderID, sessionID int64) (*models.Session, *models.Period, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil {
		return nil, nil, errors.Wrapf(errors.ErrNotFound, "session %d", sessionID)
	}

	period, err := s.store.GetPeriod(ctx, sess.PeriodID)
	if err != nil {
		return nil, nil, err
	}
	if period == nil || period.TraderID != traderID {
		return nil, nil, errors.Wrapf(errors.ErrNotFound, "session %d", sessionID)
	}

	return sess, period, nil
}
