// Package lifecycle runs the periodic sweep that expires no-shows and flags
// sessions running past their scheduled end.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/observability/telemetry"
	"github.com/seu-repo/sigec-booking/internal/ports"
	"github.com/seu-repo/sigec-booking/internal/service/reservation"
)

// Ledger is the part of the reservation ledger the monitor drives. Both
// calls re-check the reservation under its point lock, so a stale candidate
// is a no-op.
type Ledger interface {
	ExpireNoShow(ctx context.Context, reservationID string) (*domain.Fee, error)
	FlagOvertime(ctx context.Context, reservationID string) (bool, error)
}

// Config holds the sweep settings
type Config struct {
	Interval    time.Duration
	BatchSize   int
	LockTimeout time.Duration
	GracePeriod time.Duration
}

// DefaultConfig returns the default sweep settings
func DefaultConfig() *Config {
	return &Config{
		Interval:    time.Minute,
		BatchSize:   50,
		LockTimeout: 500 * time.Millisecond,
		GracePeriod: 15 * time.Minute,
	}
}

// SweepResult counts what one sweep did
type SweepResult struct {
	Expired int
	Flagged int
	Skipped int
	Failed  int
}

// Monitor applies time-driven transitions
type Monitor struct {
	ledger       Ledger
	reservations ports.ReservationRepository
	config       *Config
	now          func() time.Time
	log          *zap.Logger
}

func NewMonitor(ledger Ledger, reservations ports.ReservationRepository, config *Config, log *zap.Logger) *Monitor {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Monitor{
		ledger:       ledger,
		reservations: reservations,
		config:       config,
		now:          time.Now,
		log:          log,
	}
}

// SetClock replaces the wall clock, for tests.
func (m *Monitor) SetClock(now func() time.Time) {
	m.now = now
}

// Run sweeps every Interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.log.Info("Lifecycle monitor started",
		zap.Duration("interval", m.config.Interval),
		zap.Int("batch_size", m.config.BatchSize),
	)

	for {
		select {
		case <-ctx.Done():
			m.log.Info("Lifecycle monitor stopped")
			return
		case <-ticker.C:
			if _, err := m.Sweep(ctx); err != nil && ctx.Err() == nil {
				m.log.Error("Lifecycle sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep processes every due reservation once. A reservation whose point is
// busy is skipped and picked up by a later sweep.
func (m *Monitor) Sweep(ctx context.Context) (SweepResult, error) {
	started := time.Now()
	defer func() { telemetry.SweepDuration.Observe(time.Since(started).Seconds()) }()

	ctx = reservation.WithLockWait(ctx, m.config.LockTimeout)
	var result SweepResult

	if err := m.sweepNoShows(ctx, &result); err != nil {
		return result, err
	}
	if err := m.sweepOvertime(ctx, &result); err != nil {
		return result, err
	}

	if result != (SweepResult{}) {
		m.log.Info("Lifecycle sweep finished",
			zap.Int("expired", result.Expired),
			zap.Int("flagged", result.Flagged),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
		)
	}
	return result, nil
}

func (m *Monitor) sweepNoShows(ctx context.Context, result *SweepResult) error {
	cutoff := m.now().UTC().Add(-m.config.GracePeriod)
	var cursor domain.ScanCursor

	for {
		candidates, err := m.reservations.FindNoShowCandidates(ctx, cutoff, cursor, m.config.BatchSize)
		if err != nil {
			return err
		}
		for i := range candidates {
			r := &candidates[i]
			cursor = domain.CursorAfter(r)

			fee, err := m.ledger.ExpireNoShow(ctx, r.ID)
			switch {
			case m.skipped(err):
				result.Skipped++
				telemetry.SweepProcessedTotal.WithLabelValues("no_show", "skipped").Inc()
			case err != nil:
				result.Failed++
				telemetry.SweepProcessedTotal.WithLabelValues("no_show", "failed").Inc()
				m.log.Warn("Failed to expire reservation", zap.String("reservation_id", r.ID), zap.Error(err))
			default:
				result.Expired++
				telemetry.SweepProcessedTotal.WithLabelValues("no_show", "expired").Inc()
				if fee == nil {
					m.log.Debug("No-show check raised no fee", zap.String("reservation_id", r.ID))
				}
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		if len(candidates) < m.config.BatchSize {
			return nil
		}
	}
}

func (m *Monitor) sweepOvertime(ctx context.Context, result *SweepResult) error {
	now := m.now().UTC()
	var cursor domain.ScanCursor

	for {
		candidates, err := m.reservations.FindOvertimeCandidates(ctx, now, cursor, m.config.BatchSize)
		if err != nil {
			return err
		}
		for i := range candidates {
			r := &candidates[i]
			cursor = domain.CursorAfter(r)

			flagged, err := m.ledger.FlagOvertime(ctx, r.ID)
			switch {
			case m.skipped(err):
				result.Skipped++
				telemetry.SweepProcessedTotal.WithLabelValues("overtime", "skipped").Inc()
			case err != nil:
				result.Failed++
				telemetry.SweepProcessedTotal.WithLabelValues("overtime", "failed").Inc()
				m.log.Warn("Failed to flag overtime", zap.String("reservation_id", r.ID), zap.Error(err))
			case flagged:
				result.Flagged++
				telemetry.SweepProcessedTotal.WithLabelValues("overtime", "flagged").Inc()
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		if len(candidates) < m.config.BatchSize {
			return nil
		}
	}
}

// skipped reports errors that mean "try again next sweep".
func (m *Monitor) skipped(err error) bool {
	return errors.Is(err, domain.ErrLockTimeout) || errors.Is(err, domain.ErrNotFound)
}
