// Package signals records and queries trade signals ingested from an
// external messaging channel. Parsing the channel's message format
// happens upstream; this package owns only the stored contract.
package signals

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"binary-trader/internal/errors"
	"binary-trader/internal/models"
	"binary-trader/internal/store"
)

// Service records and lists trade signals.
type Service struct {
	store  store.Store
	logger zerolog.Logger
}

// NewService creates a signals service.
func NewService(st store.Store, logger zerolog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// SignalInput is the structured content of one ingested signal. Only
// the raw message is mandatory; every parsed field is best-effort.
type SignalInput struct {
	Date       time.Time
	MessageID  string
	RawMessage string
	Pair       string
	Direction  string
	Strategy   string
	Conditions string
	Expiration string
}

// Record validates and stores one signal. The direction, when present,
// must be CALL or PUT.
func (s *Service) Record(ctx context.Context, in SignalInput) (*models.Signal, error) {
	if strings.TrimSpace(in.RawMessage) == "" {
		return nil, errors.NewValidationError("raw_message", in.RawMessage, "is required")
	}

	direction := models.SignalDirection(strings.ToUpper(strings.TrimSpace(in.Direction)))
	if direction != "" && direction != models.DirectionCall && direction != models.DirectionPut {
		return nil, errors.NewValidationError("direction", in.Direction, "must be CALL or PUT")
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	sig := &models.Signal{
		Date:       date,
		MessageID:  strings.TrimSpace(in.MessageID),
		RawMessage: in.RawMessage,
		Pair:       strings.ToUpper(strings.TrimSpace(in.Pair)),
		Direction:  direction,
		Strategy:   strings.TrimSpace(in.Strategy),
		Conditions: strings.TrimSpace(in.Conditions),
		Expiration: strings.TrimSpace(in.Expiration),
	}

	if err := s.store.SaveSignal(ctx, sig); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int64("signal_id", sig.ID).
		Str("pair", sig.Pair).
		Str("direction", string(sig.Direction)).
		Msg("Signal recorded")

	return sig, nil
}

// List retrieves signals matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter store.SignalFilter) ([]models.Signal, error) {
	return s.store.ListSignals(ctx, filter)
}
