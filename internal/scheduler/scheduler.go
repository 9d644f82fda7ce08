// Package scheduler drives the daily session rollover: at each local
// midnight it closes sessions left open from previous days and opens
// today's session for every active period covering today.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"binary-trader/internal/models"
	"binary-trader/internal/store"
	"binary-trader/internal/trading"
)

// staleStatuses are the session statuses a past-dated session may still
// carry. All of them are rolled into closed at the next rollover.
var staleStatuses = []models.SessionStatus{
	models.SessionInProgress,
	models.SessionTargetHit,
	models.SessionStoppedLoss,
}

// Scheduler performs the daily rollover against the trading service.
type Scheduler struct {
	svc    *trading.Service
	store  store.Store
	clock  trading.Clock
	logger zerolog.Logger
}

// New creates a scheduler.
func New(svc *trading.Service, st store.Store, clock trading.Clock, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		svc:    svc,
		store:  st,
		clock:  clock,
		logger: logger,
	}
}

// Summary reports what one rollover pass did.
type Summary struct {
	Closed   int `json:"closed"`
	Created  int `json:"created"`
	Existing int `json:"existing"`
	Errors   int `json:"errors"`
}

// Run executes one rollover pass for the current trading day. Failures
// on individual sessions or periods are logged and counted, never
// fatal: one broken period must not block the rest of the rollover.
func (s *Scheduler) Run(ctx context.Context) (Summary, error) {
	today := s.clock.Today()
	var summary Summary

	// Phase 1: close sessions dated before today that never closed.
	stale, err := s.store.ListSessions(ctx, store.SessionFilter{
		Statuses: staleStatuses,
		Before:   today,
	})
	if err != nil {
		return summary, err
	}

	for i := range stale {
		sess := &stale[i]
		period, err := s.store.GetPeriod(ctx, sess.PeriodID)
		if err != nil || period == nil {
			summary.Errors++
			s.logger.Error().Err(err).
				Int64("session_id", sess.ID).
				Int64("period_id", sess.PeriodID).
				Msg("Rollover: failed to resolve period for stale session")
			continue
		}

		if _, err := s.svc.CloseSession(ctx, period.TraderID, sess.ID); err != nil {
			summary.Errors++
			s.logger.Error().Err(err).
				Int64("session_id", sess.ID).
				Str("date", sess.Date.Format(models.DateFormat)).
				Msg("Rollover: failed to close stale session")
			continue
		}
		summary.Closed++
	}

	// Phase 2: open today's session for each active period covering today.
	periods, err := s.store.ListPeriods(ctx, store.PeriodFilter{Status: models.PeriodActive})
	if err != nil {
		return summary, err
	}

	for i := range periods {
		period := &periods[i]
		if !period.ContainsDate(today) {
			continue
		}

		existing, err := s.store.SessionByPeriodDate(ctx, period.ID, today)
		if err != nil {
			summary.Errors++
			s.logger.Error().Err(err).
				Int64("period_id", period.ID).
				Msg("Rollover: failed to look up today's session")
			continue
		}
		if existing != nil {
			summary.Existing++
			continue
		}

		if _, err := s.svc.GetOrCreateSession(ctx, period.TraderID, period.ID, today); err != nil {
			summary.Errors++
			s.logger.Error().Err(err).
				Int64("period_id", period.ID).
				Msg("Rollover: failed to open today's session")
			continue
		}
		summary.Created++
	}

	s.logger.Info().
		Str("date", today.Format(models.DateFormat)).
		Int("closed", summary.Closed).
		Int("created", summary.Created).
		Int("existing", summary.Existing).
		Int("errors", summary.Errors).
		Msg("Daily rollover completed")

	return summary, nil
}

// RunForever runs one pass immediately, then one pass shortly after
// every local midnight until the context is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) error {
	if _, err := s.Run(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Rollover pass failed")
	}

	for {
		timer := time.NewTimer(s.untilNextMidnight())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			if _, err := s.Run(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Rollover pass failed")
			}
		}
	}
}

// untilNextMidnight returns the wait until just past the next local
// midnight. The small offset keeps the pass clearly on the new date
// even with clock skew.
func (s *Scheduler) untilNextMidnight() time.Duration {
	now := s.clock.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 5, 0, now.Location()).AddDate(0, 0, 1)
	return next.Sub(now)
}
