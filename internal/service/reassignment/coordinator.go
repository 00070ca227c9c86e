// Package reassignment moves BOOKED reservations between charging points of
// the same station and connector type.
package reassignment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/observability/telemetry"
	"github.com/seu-repo/sigec-booking/internal/ports"
)

var tracer = otel.Tracer("github.com/seu-repo/sigec-booking/internal/service/reassignment")

const maxLoadAttempts = 3

// Coordinator implements ports.ReassignmentService
type Coordinator struct {
	reservations  ports.ReservationRepository
	points        ports.ChargingPointRepository
	reassignments ports.ReassignmentRepository
	catalog       ports.CatalogService
	locker        ports.PointLocker
	tx            ports.Transactor
	events        ports.EventPublisher
	lockWait      time.Duration
	now           func() time.Time
	log           *zap.Logger
}

func NewCoordinator(
	reservations ports.ReservationRepository,
	points ports.ChargingPointRepository,
	reassignments ports.ReassignmentRepository,
	catalog ports.CatalogService,
	locker ports.PointLocker,
	tx ports.Transactor,
	events ports.EventPublisher,
	lockWait time.Duration,
	log *zap.Logger,
) *Coordinator {
	if lockWait <= 0 {
		lockWait = domain.DefaultReservationConfig().LockWaitTimeout
	}
	return &Coordinator{
		reservations:  reservations,
		points:        points,
		reassignments: reassignments,
		catalog:       catalog,
		locker:        locker,
		tx:            tx,
		events:        events,
		lockWait:      lockWait,
		now:           time.Now,
		log:           log,
	}
}

// SetClock replaces the wall clock, for tests.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

func reject(rule domain.ReassignmentRule, format string, args ...interface{}) *domain.ReassignmentError {
	return &domain.ReassignmentError{Rule: rule, Detail: fmt.Sprintf(format, args...)}
}

// FindAlternativePoints lists the AVAILABLE points at the reservation's
// station with the same connector type that are free for its window.
func (c *Coordinator) FindAlternativePoints(ctx context.Context, reservationID, currentPointID string) ([]domain.ChargingPoint, error) {
	ctx, span := tracer.Start(ctx, "reassignment.FindAlternativePoints")
	defer span.End()
	span.SetAttributes(attribute.String("reservation_id", reservationID))

	r, err := c.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if r == nil {
		return nil, &domain.NotFoundError{Entity: "reservation", ID: reservationID}
	}
	if currentPointID == "" {
		currentPointID = r.ChargingPointID
	}
	if currentPointID != r.ChargingPointID {
		return nil, reject(domain.RuleCurrentPointMismatch, "reservation %s is on %s, not %s", r.ID, r.ChargingPointID, currentPointID)
	}

	points, err := c.catalog.ListStationPoints(ctx, r.StationID)
	if err != nil {
		return nil, err
	}

	alternatives := []domain.ChargingPoint{}
	for _, cp := range points {
		if cp.ID == currentPointID ||
			cp.ConnectorTypeID != r.ConnectorTypeID ||
			cp.Status != domain.ChargingPointStatusAvailable {
			continue
		}
		conflicts, err := c.reservations.FindOverlapping(ctx, cp.ID, r.StartTime, r.EndTime, r.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check overlapping reservations: %w", err)
		}
		if len(conflicts) == 0 {
			alternatives = append(alternatives, cp)
		}
	}
	return alternatives, nil
}

// ReassignPoint moves a BOOKED reservation to another point. Both points are
// locked in ascending id order; every rule is checked under the locks and a
// failed rule leaves no change behind.
func (c *Coordinator) ReassignPoint(ctx context.Context, req ports.ReassignRequest) (*domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, "reassignment.ReassignPoint")
	defer span.End()
	span.SetAttributes(
		attribute.String("reservation_id", req.ReservationID),
		attribute.String("new_point_id", req.NewPointID),
	)

	r, err := c.reassign(ctx, req)
	if err != nil {
		var re *domain.ReassignmentError
		if errors.As(err, &re) {
			telemetry.ReassignmentsTotal.WithLabelValues(strings.ToLower(string(re.Rule))).Inc()
			c.log.Info("Reassignment rejected",
				zap.String("reservation_id", req.ReservationID),
				zap.String("new_point_id", req.NewPointID),
				zap.String("rule", string(re.Rule)),
				zap.String("actor", req.Actor.ID),
			)
		}
		return nil, telemetry.RecordError(span, err)
	}
	telemetry.ReassignmentsTotal.WithLabelValues("success").Inc()
	return r, nil
}

func (c *Coordinator) reassign(ctx context.Context, req ports.ReassignRequest) (*domain.Reservation, error) {
	if !req.Actor.Role.IsStaff() {
		return nil, &domain.ReassignmentError{
			Rule: domain.RuleForbidden, Detail: "reassignment requires an operator or admin", Err: domain.ErrForbidden,
		}
	}
	if req.ReservationID == "" || req.NewPointID == "" {
		return nil, &domain.ReassignmentError{
			Rule: domain.RuleInvalidRequest, Detail: "reservation ID and new charging point ID are required", Err: domain.ErrValidation,
		}
	}

	r, release, err := c.loadLocked(ctx, req.ReservationID, req.NewPointID)
	if err != nil {
		return nil, err
	}
	defer release()

	now := c.now().UTC()
	if r.Status != domain.ReservationStatusBooked {
		return nil, reject(domain.RuleReservationNotBooked, "reservation %s is %s", r.ID, r.Status)
	}
	if !now.Before(r.StartTime) {
		return nil, reject(domain.RuleAlreadyStarted, "reservation %s started at %s", r.ID, r.StartTime.Format(time.RFC3339))
	}
	if req.CurrentPointID != "" && req.CurrentPointID != r.ChargingPointID {
		return nil, reject(domain.RuleCurrentPointMismatch, "reservation %s is on %s, not %s", r.ID, r.ChargingPointID, req.CurrentPointID)
	}
	if req.NewPointID == r.ChargingPointID {
		return nil, reject(domain.RuleSamePoint, "reservation %s is already on %s", r.ID, req.NewPointID)
	}

	current, err := c.points.FindByID(ctx, r.ChargingPointID)
	if err != nil {
		return nil, fmt.Errorf("failed to load charging point: %w", err)
	}
	if current == nil {
		return nil, reject(domain.RuleNotFound, "charging point %s", r.ChargingPointID)
	}
	target, err := c.points.FindByID(ctx, req.NewPointID)
	if err != nil {
		return nil, fmt.Errorf("failed to load charging point: %w", err)
	}
	if target == nil {
		return nil, reject(domain.RuleNotFound, "charging point %s", req.NewPointID)
	}

	if target.StationID != current.StationID {
		return nil, reject(domain.RuleDifferentStation, "%s is at station %s, reservation is at %s", target.ID, target.StationID, current.StationID)
	}
	if target.ConnectorTypeID != current.ConnectorTypeID || target.ConnectorTypeID != r.ConnectorTypeID {
		return nil, reject(domain.RuleConnectorMismatch, "%s has connector %s, reservation needs %s", target.ID, target.ConnectorTypeID, r.ConnectorTypeID)
	}
	if target.Status != domain.ChargingPointStatusAvailable {
		return nil, reject(domain.RulePointNotAvailable, "%s is %s", target.ID, target.Status)
	}

	conflicts, err := c.reservations.FindOverlapping(ctx, target.ID, r.StartTime, r.EndTime, r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check overlapping reservations: %w", err)
	}
	if len(conflicts) > 0 {
		conflict := &domain.SlotConflictError{
			ChargingPointID: target.ID,
			Start:           r.StartTime,
			End:             r.EndTime,
			ConflictingID:   conflicts[0].ID,
		}
		return nil, &domain.ReassignmentError{Rule: domain.RuleSlotConflict, Detail: conflict.Error(), Err: conflict}
	}

	from := r.ChargingPointID
	record := &domain.ReassignmentRecord{
		ID:            uuid.New().String(),
		ReservationID: r.ID,
		FromPointID:   from,
		ToPointID:     target.ID,
		Reason:        req.Reason,
		Actor:         req.Actor.ID,
		CreatedAt:     now,
	}

	err = c.tx.WithinTx(ctx, func(ctx context.Context) error {
		r.ChargingPointID = target.ID
		r.UpdatedAt = now
		if err := c.reservations.Update(ctx, r); err != nil {
			if errors.Is(err, domain.ErrSlotConflict) {
				return &domain.ReassignmentError{Rule: domain.RuleSlotConflict, Detail: err.Error(), Err: err}
			}
			return fmt.Errorf("failed to update reservation: %w", err)
		}
		if current.Status == domain.ChargingPointStatusReserved {
			if err := c.points.UpdateStatus(ctx, current.ID, domain.ChargingPointStatusAvailable); err != nil {
				return fmt.Errorf("failed to release charging point: %w", err)
			}
		}
		if err := c.points.UpdateStatus(ctx, target.ID, domain.ChargingPointStatusReserved); err != nil {
			return fmt.Errorf("failed to reserve charging point: %w", err)
		}
		if err := c.reassignments.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to save reassignment record: %w", err)
		}
		return nil
	})
	if err != nil {
		r.ChargingPointID = from
		return nil, err
	}

	c.catalog.Invalidate(ctx, r.StationID)

	c.log.Info("Reservation reassigned",
		zap.String("reservation_id", r.ID),
		zap.String("from_point_id", from),
		zap.String("to_point_id", target.ID),
		zap.String("actor", req.Actor.ID),
		zap.String("reason", req.Reason),
	)
	if c.events != nil {
		c.events.Publish(ctx, domain.Event{
			ID:            record.ID,
			Type:          domain.EventReservationReassigned,
			OccurredAt:    now,
			ReservationID: r.ID,
			UserID:        r.UserID,
			Payload: map[string]interface{}{
				"from_point_id": from,
				"to_point_id":   target.ID,
				"reason":        req.Reason,
				"actor":         req.Actor.ID,
			},
		})
	}
	return r, nil
}

// loadLocked locks the reservation's current point together with newPointID
// and returns the reservation as seen under both locks.
func (c *Coordinator) loadLocked(ctx context.Context, reservationID, newPointID string) (*domain.Reservation, func(), error) {
	for attempt := 0; attempt < maxLoadAttempts; attempt++ {
		r, err := c.find(ctx, reservationID)
		if err != nil {
			return nil, nil, err
		}

		release, err := c.lock(ctx, r.ChargingPointID, newPointID)
		if err != nil {
			return nil, nil, err
		}

		fresh, err := c.find(ctx, reservationID)
		if err != nil {
			release()
			return nil, nil, err
		}
		if fresh.ChargingPointID == r.ChargingPointID {
			return fresh, release, nil
		}
		release()
	}
	return nil, nil, reject(domain.RuleLockTimeout, "reservation %s kept moving while locking", reservationID)
}

func (c *Coordinator) find(ctx context.Context, id string) (*domain.Reservation, error) {
	r, err := c.reservations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if r == nil {
		return nil, reject(domain.RuleNotFound, "reservation %s", id)
	}
	return r, nil
}

func (c *Coordinator) lock(ctx context.Context, pointIDs ...string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, c.lockWait)
	defer cancel()

	started := time.Now()
	release, err := c.locker.Lock(lockCtx, pointIDs...)
	telemetry.LockWaitSeconds.WithLabelValues("reassign").Observe(time.Since(started).Seconds())
	if err != nil {
		if errors.Is(err, domain.ErrLockTimeout) || lockCtx.Err() != nil {
			telemetry.SlotConflictsTotal.WithLabelValues("reassign", "lock_timeout").Inc()
			return nil, &domain.ReassignmentError{Rule: domain.RuleLockTimeout, Detail: "charging points busy", Err: err}
		}
		return nil, fmt.Errorf("failed to lock charging points: %w", err)
	}
	return release, nil
}
