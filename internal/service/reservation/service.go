package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/observability/telemetry"
	"github.com/seu-repo/sigec-booking/internal/ports"
	"github.com/seu-repo/sigec-booking/internal/service/estimator"
)

var tracer = otel.Tracer("github.com/seu-repo/sigec-booking/internal/service/reservation")

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxLoadAttempts = 3
)

// Repositories groups the stores the ledger writes to.
type Repositories struct {
	Reservations ports.ReservationRepository
	Sessions     ports.SessionRepository
	Fees         ports.FeeRepository
	Points       ports.ChargingPointRepository
}

// Service is the reservation ledger. It is the only writer of reservations;
// every write runs under the charging point's lock and inside a transaction.
type Service struct {
	repos   Repositories
	catalog ports.CatalogService
	pricing ports.PricingReference
	locker  ports.PointLocker
	tx      ports.Transactor
	events  ports.EventPublisher
	config  *domain.ReservationConfig
	policy  domain.PenaltyPolicy
	now     func() time.Time
	log     *zap.Logger
}

// NewService creates a new reservation ledger
func NewService(
	repos Repositories,
	catalog ports.CatalogService,
	pricing ports.PricingReference,
	locker ports.PointLocker,
	tx ports.Transactor,
	events ports.EventPublisher,
	config *domain.ReservationConfig,
	policy domain.PenaltyPolicy,
	log *zap.Logger,
) *Service {
	if config == nil {
		config = domain.DefaultReservationConfig()
	}

	return &Service{
		repos:   repos,
		catalog: catalog,
		pricing: pricing,
		locker:  locker,
		tx:      tx,
		events:  events,
		config:  config,
		policy:  policy,
		now:     time.Now,
		log:     log,
	}
}

// SetClock replaces the wall clock, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

type lockWaitKey struct{}

// WithLockWait overrides how long writes made with ctx wait for a charging
// point lock. Background callers use it to keep their waits short.
func WithLockWait(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, lockWaitKey{}, d)
}

// lockPoints acquires the points' locks with a bounded wait.
func (s *Service) lockPoints(ctx context.Context, operation string, pointIDs ...string) (func(), error) {
	wait := s.config.LockWaitTimeout
	if d, ok := ctx.Value(lockWaitKey{}).(time.Duration); ok && d > 0 {
		wait = d
	}

	lockCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	started := time.Now()
	release, err := s.locker.Lock(lockCtx, pointIDs...)
	telemetry.LockWaitSeconds.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	if err != nil {
		if errors.Is(err, domain.ErrLockTimeout) || lockCtx.Err() != nil {
			telemetry.SlotConflictsTotal.WithLabelValues(operation, "lock_timeout").Inc()
			if !errors.Is(err, domain.ErrLockTimeout) {
				err = fmt.Errorf("%w: %v", domain.ErrLockTimeout, err)
			}
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock charging point: %w", err)
	}
	return release, nil
}

// loadLocked returns a reservation with its charging point locked. The point
// is re-checked after locking because a reassignment may have moved it.
func (s *Service) loadLocked(ctx context.Context, id, operation string) (*domain.Reservation, func(), error) {
	for attempt := 0; attempt < maxLoadAttempts; attempt++ {
		r, err := s.findReservation(ctx, id)
		if err != nil {
			return nil, nil, err
		}

		release, err := s.lockPoints(ctx, operation, r.ChargingPointID)
		if err != nil {
			return nil, nil, err
		}

		fresh, err := s.findReservation(ctx, id)
		if err != nil {
			release()
			return nil, nil, err
		}
		if fresh.ChargingPointID == r.ChargingPointID {
			return fresh, release, nil
		}
		release()
	}
	return nil, nil, fmt.Errorf("%w: reservation %s moved while locking", domain.ErrLockTimeout, id)
}

func (s *Service) findReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	r, err := s.repos.Reservations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if r == nil {
		return nil, &domain.NotFoundError{Entity: "reservation", ID: id}
	}
	return r, nil
}

func authorize(actor domain.Actor, ownerID string) error {
	if actor.ID == ownerID || actor.Role.IsStaff() {
		return nil
	}
	return fmt.Errorf("%w: %s may not act on a reservation of another user", domain.ErrForbidden, actor.ID)
}

// ConfirmReservation books [StartTime, EndTime) on a charging point after
// re-validating, under the point's lock, that no active reservation overlaps.
func (s *Service) ConfirmReservation(ctx context.Context, req ports.ConfirmRequest) (*domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, "reservation.Confirm")
	defer span.End()
	span.SetAttributes(attribute.String("charging_point_id", req.ChargingPointID))

	if err := s.validateConfirm(req); err != nil {
		return nil, err
	}

	vehicle, err := s.catalog.GetVehicle(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.UserID != req.UserID {
		return nil, fmt.Errorf("%w: vehicle %s does not belong to user %s", domain.ErrForbidden, req.VehicleID, req.UserID)
	}

	point, err := s.catalog.GetChargingPoint(ctx, req.ChargingPointID)
	if err != nil {
		return nil, err
	}
	if !vehicle.Supports(point.ConnectorTypeID) {
		return nil, fmt.Errorf("%w: vehicle %s cannot use connector %s",
			domain.ErrNoCompatibleConnector, vehicle.ID, point.ConnectorTypeID)
	}
	if !point.Status.Schedulable() {
		return nil, &domain.InvalidStateError{
			Entity: "charging point", ID: point.ID, Operation: "reserve", Current: string(point.Status),
		}
	}

	quote := s.pricing.Quote(ctx, point.ConnectorType, req.UserID, req.StartTime)
	est, err := estimator.Estimate(estimator.Input{
		BatteryCapacityKWh: vehicle.BatteryCapacityKWh(),
		CurrentBattery:     req.CurrentBattery,
		TargetBattery:      req.TargetBattery,
		PowerKW:            point.PowerKW(),
		PricePerKWh:        quote.Effective,
	})
	if err != nil {
		return nil, err
	}
	required := time.Duration(est.RequiredMinutes) * time.Minute
	if req.EndTime.Sub(req.StartTime) < required {
		return nil, fmt.Errorf("%w: window of %s is shorter than the required %d minutes",
			domain.ErrInvalidWindow, req.EndTime.Sub(req.StartTime), est.RequiredMinutes)
	}

	release, err := s.lockPoints(ctx, "confirm", point.ID)
	if err != nil {
		if errors.Is(err, domain.ErrLockTimeout) {
			return nil, &domain.SlotConflictError{ChargingPointID: point.ID, Start: req.StartTime, End: req.EndTime}
		}
		return nil, err
	}
	defer release()

	now := s.now().UTC()
	reservation := &domain.Reservation{
		ID:                uuid.New().String(),
		UserID:            req.UserID,
		VehicleID:         req.VehicleID,
		StationID:         point.StationID,
		ChargingPointID:   point.ID,
		ConnectorTypeID:   point.ConnectorTypeID,
		StartTime:         req.StartTime.UTC(),
		EndTime:           req.EndTime.UTC(),
		StartBattery:      req.CurrentBattery,
		TargetBattery:     req.TargetBattery,
		PricePerKWh:       quote.Base,
		EnergyEstimateKWh: est.EnergyKWh,
		EstimatedCost:     est.EstimatedCost,
		Status:            domain.ReservationStatusBooked,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repos.Points.FindByID(ctx, point.ID)
		if err != nil {
			return fmt.Errorf("failed to reload charging point: %w", err)
		}
		if current == nil {
			return &domain.NotFoundError{Entity: "charging point", ID: point.ID}
		}
		if !current.Status.Schedulable() {
			return &domain.InvalidStateError{
				Entity: "charging point", ID: point.ID, Operation: "reserve", Current: string(current.Status),
			}
		}

		conflicts, err := s.repos.Reservations.FindOverlapping(ctx, point.ID, reservation.StartTime, reservation.EndTime, "")
		if err != nil {
			return fmt.Errorf("failed to check overlapping reservations: %w", err)
		}
		if len(conflicts) > 0 {
			return &domain.SlotConflictError{
				ChargingPointID: point.ID,
				Start:           reservation.StartTime,
				End:             reservation.EndTime,
				ConflictingID:   conflicts[0].ID,
			}
		}

		if err := s.repos.Reservations.Create(ctx, reservation); err != nil {
			if errors.Is(err, domain.ErrSlotConflict) {
				return &domain.SlotConflictError{
					ChargingPointID: point.ID,
					Start:           reservation.StartTime,
					End:             reservation.EndTime,
				}
			}
			return fmt.Errorf("failed to save reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotConflict) {
			telemetry.SlotConflictsTotal.WithLabelValues("confirm", "overlap").Inc()
			s.log.Info("Reservation rejected by overlap check",
				zap.String("charging_point_id", point.ID),
				zap.Time("start_time", reservation.StartTime),
				zap.Time("end_time", reservation.EndTime),
			)
		}
		return nil, telemetry.RecordError(span, err)
	}

	telemetry.ReservationsTotal.WithLabelValues(string(domain.ReservationStatusBooked)).Inc()
	s.log.Info("Reservation confirmed",
		zap.String("reservation_id", reservation.ID),
		zap.String("user_id", reservation.UserID),
		zap.String("charging_point_id", reservation.ChargingPointID),
		zap.Time("start_time", reservation.StartTime),
		zap.Time("end_time", reservation.EndTime),
	)
	s.publish(ctx, domain.EventReservationConfirmed, reservation, map[string]interface{}{
		"charging_point_id": reservation.ChargingPointID,
		"start_time":        reservation.StartTime,
		"end_time":          reservation.EndTime,
		"estimated_cost":    reservation.EstimatedCost.String(),
	})

	return reservation, nil
}

// validateConfirm validates a confirm request
func (s *Service) validateConfirm(req ports.ConfirmRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("%w: user ID is required", domain.ErrValidation)
	}
	if req.VehicleID == "" {
		return fmt.Errorf("%w: vehicle ID is required", domain.ErrValidation)
	}
	if req.ChargingPointID == "" {
		return fmt.Errorf("%w: charging point ID is required", domain.ErrValidation)
	}
	if req.CurrentBattery < 0 || req.TargetBattery > 100 || req.TargetBattery <= req.CurrentBattery {
		return &domain.InvalidRangeError{Current: req.CurrentBattery, Target: req.TargetBattery}
	}
	if !req.StartTime.Before(req.EndTime) {
		return fmt.Errorf("%w: start time must be before end time", domain.ErrInvalidWindow)
	}

	now := s.now().UTC()
	if req.StartTime.Before(now.Truncate(s.config.SlotGranularity)) {
		return fmt.Errorf("%w: start time is in the past", domain.ErrInvalidWindow)
	}
	if req.StartTime.After(now.Add(s.config.MaxAdvance)) {
		return fmt.Errorf("%w: cannot book more than %s in advance", domain.ErrInvalidWindow, s.config.MaxAdvance)
	}
	return nil
}

// GetReservation retrieves a reservation by ID
func (s *Service) GetReservation(ctx context.Context, id string, actor domain.Actor) (*domain.Reservation, error) {
	r, err := s.findReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, r.UserID); err != nil {
		return nil, err
	}
	return r, nil
}

// ListUserReservations retrieves the reservations of a user, latest start first
func (s *Service) ListUserReservations(ctx context.Context, userID string, limit, offset int) ([]domain.Reservation, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.repos.Reservations.FindByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return list, nil
}

// GetSession retrieves a session with its fees
func (s *Service) GetSession(ctx context.Context, id string, actor domain.Actor) (*domain.Session, error) {
	session, err := s.repos.Sessions.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, &domain.NotFoundError{Entity: "session", ID: id}
	}
	if err := authorize(actor, session.UserID); err != nil {
		return nil, err
	}
	return session, nil
}

// ListFees returns the fees of a reservation and of its session
func (s *Service) ListFees(ctx context.Context, reservationID string, actor domain.Actor) ([]domain.Fee, error) {
	r, err := s.GetReservation(ctx, reservationID, actor)
	if err != nil {
		return nil, err
	}

	fees, err := s.repos.Fees.FindByReservationID(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fees: %w", err)
	}

	session, err := s.repos.Sessions.FindByReservationID(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session != nil {
		sessionFees, err := s.repos.Fees.FindBySessionID(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list fees: %w", err)
		}
		fees = append(fees, sessionFees...)
	}
	return fees, nil
}

func (s *Service) publish(ctx context.Context, eventType domain.EventType, r *domain.Reservation, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, domain.Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		OccurredAt:    s.now().UTC(),
		ReservationID: r.ID,
		UserID:        r.UserID,
		Payload:       payload,
	})
}

func (s *Service) publishFee(ctx context.Context, r *domain.Reservation, fee *domain.Fee) {
	if fee == nil {
		return
	}
	telemetry.PenaltiesTotal.WithLabelValues(string(fee.Type)).Inc()
	s.publish(ctx, domain.EventPenaltyRaised, r, map[string]interface{}{
		"fee_id":      fee.ID,
		"fee_type":    string(fee.Type),
		"amount":      fee.Amount.String(),
		"description": fee.Description,
	})
}
