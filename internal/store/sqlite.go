// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"binary-trader/internal/models"
)

// SQLiteStore implements Store using SQLite. Money columns are stored
// as decimal strings, never as floats; calendar dates are stored as
// YYYY-MM-DD text.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Trading periods: capital-risk configuration windows
	CREATE TABLE IF NOT EXISTS trading_periods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trader_id INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		initial_capital TEXT NOT NULL DEFAULT '0',
		current_capital TEXT NOT NULL DEFAULT '0',
		daily_target_pct TEXT NOT NULL DEFAULT '0.15',
		payout_pct TEXT NOT NULL DEFAULT '0.8',
		risk_per_trade_pct TEXT NOT NULL DEFAULT '0.05',
		martingale_steps INTEGER NOT NULL DEFAULT 3,
		max_daily_loss_pct TEXT NOT NULL DEFAULT '0.06',
		status TEXT NOT NULL DEFAULT 'active',
		nickname TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Daily sessions: one per (period, date)
	CREATE TABLE IF NOT EXISTS daily_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		period_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		starting_capital TEXT NOT NULL DEFAULT '0',
		ending_capital TEXT,
		daily_pnl TEXT NOT NULL DEFAULT '0',
		num_trades INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'in_progress',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(period_id, date),
		FOREIGN KEY (period_id) REFERENCES trading_periods(id)
	);

	-- Trades: immutable, gaplessly numbered within a session
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		trade_number INTEGER NOT NULL,
		stake TEXT NOT NULL,
		result TEXT NOT NULL,
		pnl TEXT NOT NULL,
		capital_after TEXT NOT NULL,
		martingale_step INTEGER NOT NULL DEFAULT 0,
		currency_pair TEXT NOT NULL,
		payout_real TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(session_id, trade_number),
		FOREIGN KEY (session_id) REFERENCES daily_sessions(id)
	);

	-- Signals ingested from the external messaging channel
	CREATE TABLE IF NOT EXISTS trading_signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date DATETIME NOT NULL,
		message_id TEXT,
		raw_message TEXT NOT NULL,
		pair TEXT,
		direction TEXT,
		strategy TEXT,
		conditions TEXT,
		expiration TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Create indexes for performance
	CREATE INDEX IF NOT EXISTS idx_periods_trader ON trading_periods(trader_id);
	CREATE INDEX IF NOT EXISTS idx_periods_status ON trading_periods(status);
	CREATE INDEX IF NOT EXISTS idx_sessions_period ON daily_sessions(period_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_date ON daily_sessions(date);
	CREATE INDEX IF NOT EXISTS idx_sessions_status ON daily_sessions(status);
	CREATE INDEX IF NOT EXISTS idx_trades_session ON trades(session_id);
	CREATE INDEX IF NOT EXISTS idx_signals_date ON trading_signals(date);
	CREATE INDEX IF NOT EXISTS idx_signals_pair ON trading_signals(pair);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Periods
// ============================================================================

// CreatePeriod inserts a trading period and sets its generated ID.
func (s *SQLiteStore) CreatePeriod(ctx context.Context, p *models.Period) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO trading_periods (trader_id, start_date, end_date, initial_capital, current_capital, daily_target_pct, payout_pct, risk_per_trade_pct, martingale_steps, max_daily_loss_pct, status, nickname, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.TraderID, p.StartDate.Format(models.DateFormat), p.EndDate.Format(models.DateFormat),
		p.InitialCapital.String(), p.CurrentCapital.String(), p.DailyTargetPct.String(),
		p.PayoutPct.String(), p.RiskPerTradePct.String(), p.MartingaleSteps,
		p.MaxDailyLossPct.String(), string(p.Status), nullIfEmpty(p.Nickname), now, now)
	if err != nil {
		return fmt.Errorf("failed to create period: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read period id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

const periodColumns = `id, trader_id, start_date, end_date, initial_capital, current_capital, daily_target_pct, payout_pct, risk_per_trade_pct, martingale_steps, max_daily_loss_pct, status, COALESCE(nickname, ''), created_at, updated_at`

// GetPeriod retrieves a single period by ID. Returns (nil, nil) when absent.
func (s *SQLiteStore) GetPeriod(ctx context.Context, id int64) (*models.Period, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+periodColumns+` FROM trading_periods WHERE id = ?
	`, id)

	p, err := scanPeriod(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get period: %w", err)
	}
	return p, nil
}

// ListPeriods retrieves periods matching the filter, newest first.
func (s *SQLiteStore) ListPeriods(ctx context.Context, filter PeriodFilter) ([]models.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM trading_periods WHERE 1=1`
	args := []interface{}{}

	if filter.TraderID != 0 {
		query += " AND trader_id = ?"
		args = append(args, filter.TraderID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	var periods []models.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, *p)
	}

	return periods, rows.Err()
}

// UpdatePeriod persists changes to an existing period.
func (s *SQLiteStore) UpdatePeriod(ctx context.Context, p *models.Period) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE trading_periods
		SET start_date = ?, end_date = ?, initial_capital = ?, current_capital = ?, daily_target_pct = ?, payout_pct = ?, risk_per_trade_pct = ?, martingale_steps = ?, max_daily_loss_pct = ?, status = ?, nickname = ?, updated_at = ?
		WHERE id = ?
	`, p.StartDate.Format(models.DateFormat), p.EndDate.Format(models.DateFormat),
		p.InitialCapital.String(), p.CurrentCapital.String(), p.DailyTargetPct.String(),
		p.PayoutPct.String(), p.RiskPerTradePct.String(), p.MartingaleSteps,
		p.MaxDailyLossPct.String(), string(p.Status), nullIfEmpty(p.Nickname), now, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update period: %w", err)
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("period not found: %d", p.ID)
	}
	p.UpdatedAt = now
	return nil
}

// CountSessions returns the number of sessions recorded under a period.
func (s *SQLiteStore) CountSessions(ctx context.Context, periodID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM daily_sessions WHERE period_id = ?
	`, periodID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// ============================================================================
// Sessions
// ============================================================================

// CreateSession inserts a daily session and sets its generated ID.
// The unique (period_id, date) index rejects duplicate sessions created
// by concurrent callers.
func (s *SQLiteStore) CreateSession(ctx context.Context, sess *models.Session) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_sessions (period_id, date, starting_capital, ending_capital, daily_pnl, num_trades, status, created_at, updated_at)
		VALUES (?, ?, ?, NULL, ?, ?, ?, ?, ?)
	`, sess.PeriodID, sess.Date.Format(models.DateFormat), sess.StartingCapital.String(),
		sess.DailyPnL.String(), sess.NumTrades, string(sess.Status), now, now)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read session id: %w", err)
	}
	sess.ID = id
	sess.CreatedAt = now
	sess.UpdatedAt = now
	return nil
}

const sessionColumns = `id, period_id, date, starting_capital, COALESCE(ending_capital, ''), daily_pnl, num_trades, status, created_at, updated_at`

// GetSession retrieves a single session by ID. Returns (nil, nil) when absent.
func (s *SQLiteStore) GetSession(ctx context.Context, id int64) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM daily_sessions WHERE id = ?
	`, id)

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

// SessionByPeriodDate retrieves the session for a (period, date) pair.
// Returns (nil, nil) when absent.
func (s *SQLiteStore) SessionByPeriodDate(ctx context.Context, periodID int64, date time.Time) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM daily_sessions WHERE period_id = ? AND date = ?
	`, periodID, date.Format(models.DateFormat))

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session by period/date: %w", err)
	}
	return sess, nil
}

// ListSessions retrieves sessions matching the filter, newest date first.
func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM daily_sessions WHERE 1=1`
	args := []interface{}{}

	if filter.PeriodID != 0 {
		query += " AND period_id = ?"
		args = append(args, filter.PeriodID)
	}
	if len(filter.Statuses) > 0 {
		query += " AND status IN ("
		for i, st := range filter.Statuses {
			if i > 0 {
				query += ","
			}
			query += "?"
			args = append(args, string(st))
		}
		query += ")"
	}
	if !filter.Before.IsZero() {
		query += " AND date < ?"
		args = append(args, filter.Before.Format(models.DateFormat))
	}

	query += " ORDER BY date DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}

	return sessions, rows.Err()
}

// ============================================================================
// Trades
// ============================================================================

const tradeColumns = `id, session_id, trade_number, stake, result, pnl, capital_after, martingale_step, currency_pair, COALESCE(payout_real, ''), created_at`

// ListTrades retrieves all trades of a session ordered by trade number.
func (s *SQLiteStore) ListTrades(ctx context.Context, sessionID int64) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tradeColumns+` FROM trades WHERE session_id = ? ORDER BY trade_number ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, *t)
	}

	return trades, rows.Err()
}

// LatestTrade retrieves the highest-numbered trade of a session.
// Returns (nil, nil) when the session has no trades.
func (s *SQLiteStore) LatestTrade(ctx context.Context, sessionID int64) (*models.Trade, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+tradeColumns+` FROM trades WHERE session_id = ? ORDER BY trade_number DESC LIMIT 1
	`, sessionID)

	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest trade: %w", err)
	}
	return t, nil
}

// SaveTradeResult persists a registered trade together with the updated
// session row and, when the trade settled the session, the updated
// period row. All writes share one transaction: a crash can never leave
// a terminal session without its period-capital update.
func (s *SQLiteStore) SaveTradeResult(ctx context.Context, trade *models.Trade, sess *models.Session, period *models.Period) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO trades (session_id, trade_number, stake, result, pnl, capital_after, martingale_step, currency_pair, payout_real, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, trade.SessionID, trade.TradeNumber, trade.Stake.String(), string(trade.Result),
		trade.PnL.String(), trade.CapitalAfter.String(), trade.MartingaleStep,
		trade.CurrencyPair, trade.PayoutReal.String(), now)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read trade id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE daily_sessions SET daily_pnl = ?, num_trades = ?, status = ?, updated_at = ? WHERE id = ?
	`, sess.DailyPnL.String(), sess.NumTrades, string(sess.Status), now, sess.ID); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	if period != nil {
		if _, err := tx.ExecContext(ctx, `
			UPDATE trading_periods SET current_capital = ?, updated_at = ? WHERE id = ?
		`, period.CurrentCapital.String(), now, period.ID); err != nil {
			return fmt.Errorf("failed to update period capital: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trade: %w", err)
	}

	trade.ID = id
	trade.CreatedAt = now
	sess.UpdatedAt = now
	return nil
}

// CloseSession persists a session close and the resulting period-capital
// update in one transaction.
func (s *SQLiteStore) CloseSession(ctx context.Context, sess *models.Session, period *models.Period) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		UPDATE daily_sessions SET ending_capital = ?, status = ?, updated_at = ? WHERE id = ?
	`, sess.EndingCapital.String(), string(sess.Status), now, sess.ID); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE trading_periods SET current_capital = ?, updated_at = ? WHERE id = ?
	`, period.CurrentCapital.String(), now, period.ID); err != nil {
		return fmt.Errorf("failed to update period capital: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit close: %w", err)
	}

	sess.UpdatedAt = now
	return nil
}

// ============================================================================
// Signals
// ============================================================================

// SaveSignal inserts an ingested trade signal.
func (s *SQLiteStore) SaveSignal(ctx context.Context, sig *models.Signal) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO trading_signals (date, message_id, raw_message, pair, direction, strategy, conditions, expiration, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sig.Date, nullIfEmpty(sig.MessageID), sig.RawMessage, nullIfEmpty(sig.Pair),
		nullIfEmpty(string(sig.Direction)), nullIfEmpty(sig.Strategy),
		nullIfEmpty(sig.Conditions), nullIfEmpty(sig.Expiration), now)
	if err != nil {
		return fmt.Errorf("failed to save signal: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read signal id: %w", err)
	}
	sig.ID = id
	sig.CreatedAt = now
	return nil
}

// ListSignals retrieves signals matching the filter, newest first.
func (s *SQLiteStore) ListSignals(ctx context.Context, filter SignalFilter) ([]models.Signal, error) {
	query := `
		SELECT id, date, COALESCE(message_id, ''), raw_message, COALESCE(pair, ''), COALESCE(direction, ''), COALESCE(strategy, ''), COALESCE(conditions, ''), COALESCE(expiration, ''), created_at
		FROM trading_signals WHERE 1=1`
	args := []interface{}{}

	if !filter.From.IsZero() {
		query += " AND date >= ?"
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += " AND date <= ?"
		args = append(args, filter.To)
	}
	if filter.Pair != "" {
		query += " AND pair LIKE ?"
		args = append(args, "%"+filter.Pair+"%")
	}
	if filter.Strategy != "" {
		query += " AND strategy = ?"
		args = append(args, filter.Strategy)
	}

	query += " ORDER BY date DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []models.Signal
	for rows.Next() {
		var sig models.Signal
		var direction string
		if err := rows.Scan(&sig.ID, &sig.Date, &sig.MessageID, &sig.RawMessage, &sig.Pair, &direction, &sig.Strategy, &sig.Conditions, &sig.Expiration, &sig.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		sig.Direction = models.SignalDirection(direction)
		signals = append(signals, sig)
	}

	return signals, rows.Err()
}

// ============================================================================
// Scan helpers
// ============================================================================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPeriod(row rowScanner) (*models.Period, error) {
	var p models.Period
	var startDate, endDate, initial, current, target, payout, risk, maxLoss, status string

	if err := row.Scan(&p.ID, &p.TraderID, &startDate, &endDate, &initial, &current,
		&target, &payout, &risk, &p.MartingaleSteps, &maxLoss, &status, &p.Nickname,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if p.StartDate, err = time.Parse(models.DateFormat, startDate); err != nil {
		return nil, fmt.Errorf("bad start_date %q: %w", startDate, err)
	}
	if p.EndDate, err = time.Parse(models.DateFormat, endDate); err != nil {
		return nil, fmt.Errorf("bad end_date %q: %w", endDate, err)
	}
	if p.InitialCapital, err = decimal.NewFromString(initial); err != nil {
		return nil, fmt.Errorf("bad initial_capital %q: %w", initial, err)
	}
	if p.CurrentCapital, err = decimal.NewFromString(current); err != nil {
		return nil, fmt.Errorf("bad current_capital %q: %w", current, err)
	}
	if p.DailyTargetPct, err = decimal.NewFromString(target); err != nil {
		return nil, fmt.Errorf("bad daily_target_pct %q: %w", target, err)
	}
	if p.PayoutPct, err = decimal.NewFromString(payout); err != nil {
		return nil, fmt.Errorf("bad payout_pct %q: %w", payout, err)
	}
	if p.RiskPerTradePct, err = decimal.NewFromString(risk); err != nil {
		return nil, fmt.Errorf("bad risk_per_trade_pct %q: %w", risk, err)
	}
	if p.MaxDailyLossPct, err = decimal.NewFromString(maxLoss); err != nil {
		return nil, fmt.Errorf("bad max_daily_loss_pct %q: %w", maxLoss, err)
	}
	p.Status = models.PeriodStatus(status)

	return &p, nil
}

func scanSession(row rowScanner) (*models.Session, error) {
	var sess models.Session
	var date, starting, ending, pnl, status string

	if err := row.Scan(&sess.ID, &sess.PeriodID, &date, &starting, &ending, &pnl,
		&sess.NumTrades, &status, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if sess.Date, err = time.Parse(models.DateFormat, date); err != nil {
		return nil, fmt.Errorf("bad session date %q: %w", date, err)
	}
	if sess.StartingCapital, err = decimal.NewFromString(starting); err != nil {
		return nil, fmt.Errorf("bad starting_capital %q: %w", starting, err)
	}
	if ending != "" {
		if sess.EndingCapital, err = decimal.NewFromString(ending); err != nil {
			return nil, fmt.Errorf("bad ending_capital %q: %w", ending, err)
		}
	}
	if sess.DailyPnL, err = decimal.NewFromString(pnl); err != nil {
		return nil, fmt.Errorf("bad daily_pnl %q: %w", pnl, err)
	}
	sess.Status = models.SessionStatus(status)

	return &sess, nil
}

func scanTrade(row rowScanner) (*models.Trade, error) {
	var t models.Trade
	var stake, result, pnl, capitalAfter, payout string

	if err := row.Scan(&t.ID, &t.SessionID, &t.TradeNumber, &stake, &result, &pnl,
		&capitalAfter, &t.MartingaleStep, &t.CurrencyPair, &payout, &t.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if t.Stake, err = decimal.NewFromString(stake); err != nil {
		return nil, fmt.Errorf("bad stake %q: %w", stake, err)
	}
	if t.PnL, err = decimal.NewFromString(pnl); err != nil {
		return nil, fmt.Errorf("bad pnl %q: %w", pnl, err)
	}
	if t.CapitalAfter, err = decimal.NewFromString(capitalAfter); err != nil {
		return nil, fmt.Errorf("bad capital_after %q: %w", capitalAfter, err)
	}
	if payout != "" {
		if t.PayoutReal, err = decimal.NewFromString(payout); err != nil {
			return nil, fmt.Errorf("bad payout_real %q: %w", payout, err)
		}
	}
	t.Result = models.Result(result)

	return &t, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
