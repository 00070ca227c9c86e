package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/observability/telemetry"
	"github.com/seu-repo/sigec-booking/internal/ports"
)

const noShowReason = "no-show: session not started within the grace period"

// CancelReservation cancels a BOOKED reservation or aborts a CHARGING one.
// Cancelling a BOOKED reservation inside the late window raises a CANCEL fee.
func (s *Service) CancelReservation(ctx context.Context, req ports.CancelRequest) (*ports.CancelResult, error) {
	ctx, span := tracer.Start(ctx, "reservation.Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("reservation_id", req.ReservationID))

	r, release, err := s.loadLocked(ctx, req.ReservationID, "cancel")
	if err != nil {
		return nil, err
	}
	defer release()

	if err := authorize(req.Actor, r.UserID); err != nil {
		return nil, err
	}
	if !r.CanBeCancelled() {
		return nil, &domain.InvalidStateError{
			Entity: "reservation", ID: r.ID, Operation: "cancel", Current: string(r.Status),
		}
	}

	now := s.now().UTC()
	previous := r.Status
	var fee *domain.Fee
	pointChanged := false

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if previous == domain.ReservationStatusBooked && s.policy.IsLateCancel(r.StartTime, now) {
			amount := s.policy.LateCancelFee(r.EstimatedCost)
			f, err := s.raiseReservationFee(ctx, r, domain.FeeTypeCancel, amount,
				fmt.Sprintf("Late cancellation %s before start", r.StartTime.Sub(now).Round(time.Second)), now)
			if err != nil {
				return err
			}
			fee = f
		}

		if previous == domain.ReservationStatusCharging {
			if err := s.abortSession(ctx, r.ID, now); err != nil {
				return err
			}
			changed, err := s.releaseOccupied(ctx, r)
			if err != nil {
				return err
			}
			pointChanged = changed
		} else {
			changed, err := s.setPointStatus(ctx, r.ChargingPointID, domain.ChargingPointStatusAvailable, domain.ChargingPointStatusReserved)
			if err != nil {
				return err
			}
			pointChanged = changed
		}

		r.Status = domain.ReservationStatusCanceled
		r.CancelReason = req.Reason
		r.CanceledBy = req.Actor.ID
		r.CanceledAt = &now
		r.UpdatedAt = now
		if err := s.repos.Reservations.Update(ctx, r); err != nil {
			return fmt.Errorf("failed to update reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if pointChanged {
		s.catalog.Invalidate(ctx, r.StationID)
	}
	if previous == domain.ReservationStatusCharging {
		telemetry.ActiveChargingSessions.Dec()
	}
	telemetry.ReservationsTotal.WithLabelValues(string(domain.ReservationStatusCanceled)).Inc()

	s.log.Info("Reservation cancelled",
		zap.String("reservation_id", r.ID),
		zap.String("previous_status", string(previous)),
		zap.String("canceled_by", req.Actor.ID),
		zap.String("reason", req.Reason),
		zap.Bool("late_fee", fee != nil),
	)
	s.publish(ctx, domain.EventReservationCanceled, r, map[string]interface{}{
		"previous_status": string(previous),
		"reason":          req.Reason,
		"canceled_by":     req.Actor.ID,
	})
	s.publishFee(ctx, r, fee)

	return &ports.CancelResult{Reservation: r, Fee: fee}, nil
}

// StartSession moves a BOOKED reservation to CHARGING. Past the grace window
// the reservation is canceled as a no-show instead and NoShowError is returned.
func (s *Service) StartSession(ctx context.Context, reservationID string, actor domain.Actor) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "reservation.StartSession")
	defer span.End()
	span.SetAttributes(attribute.String("reservation_id", reservationID))

	r, release, err := s.loadLocked(ctx, reservationID, "start")
	if err != nil {
		return nil, err
	}
	defer release()

	if err := authorize(actor, r.UserID); err != nil {
		return nil, err
	}
	if r.Status != domain.ReservationStatusBooked {
		return nil, &domain.InvalidStateError{
			Entity: "reservation", ID: r.ID, Operation: "start session", Current: string(r.Status),
		}
	}

	now := s.now().UTC()
	if now.Before(r.StartTime.Add(-s.config.EarlyStartWindow)) {
		return nil, fmt.Errorf("%w: session can start from %s",
			domain.ErrInvalidWindow, r.StartTime.Add(-s.config.EarlyStartWindow).Format(time.RFC3339))
	}

	if r.GraceExpired(now, s.config.GracePeriod) {
		fee, err := s.expire(ctx, r, now)
		if err != nil {
			return nil, err
		}
		return nil, &domain.NoShowError{ReservationID: r.ID, Fee: fee}
	}

	point, err := s.repos.Points.FindByID(ctx, r.ChargingPointID)
	if err != nil {
		return nil, fmt.Errorf("failed to load charging point: %w", err)
	}
	if point == nil {
		return nil, &domain.NotFoundError{Entity: "charging point", ID: r.ChargingPointID}
	}
	if !point.Status.Schedulable() {
		return nil, &domain.InvalidStateError{
			Entity: "charging point", ID: point.ID, Operation: "start session", Current: string(point.Status),
		}
	}

	session := &domain.Session{
		ID:              uuid.New().String(),
		ReservationID:   r.ID,
		UserID:          r.UserID,
		ChargingPointID: r.ChargingPointID,
		Status:          domain.SessionStatusCharging,
		StartTime:       now,
		BaseCost:        decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Sessions.Create(ctx, session); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		r.Status = domain.ReservationStatusCharging
		r.UpdatedAt = now
		if err := s.repos.Reservations.Update(ctx, r); err != nil {
			return fmt.Errorf("failed to update reservation: %w", err)
		}
		if err := s.repos.Points.UpdateStatus(ctx, point.ID, domain.ChargingPointStatusOccupied); err != nil {
			return fmt.Errorf("failed to update charging point status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.catalog.Invalidate(ctx, r.StationID)
	telemetry.ActiveChargingSessions.Inc()
	telemetry.ReservationsTotal.WithLabelValues(string(domain.ReservationStatusCharging)).Inc()

	s.log.Info("Charging session started",
		zap.String("reservation_id", r.ID),
		zap.String("session_id", session.ID),
		zap.String("charging_point_id", r.ChargingPointID),
	)
	s.publish(ctx, domain.EventSessionStarted, r, map[string]interface{}{
		"session_id":        session.ID,
		"charging_point_id": r.ChargingPointID,
	})

	return session, nil
}

// CompleteSession finishes a CHARGING session and its reservation. Ending
// after the scheduled end raises a CHARGING fee per overtime minute.
func (s *Service) CompleteSession(ctx context.Context, req ports.CompleteRequest) (*ports.CompleteResult, error) {
	ctx, span := tracer.Start(ctx, "reservation.CompleteSession")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", req.SessionID))

	if req.EnergyDeliveredKWh < 0 {
		return nil, fmt.Errorf("%w: energy delivered must not be negative", domain.ErrValidation)
	}

	session, err := s.repos.Sessions.FindByID(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, &domain.NotFoundError{Entity: "session", ID: req.SessionID}
	}

	r, release, err := s.loadLocked(ctx, session.ReservationID, "complete")
	if err != nil {
		return nil, err
	}
	defer release()

	// reload under lock, a concurrent abort may have finished it
	session, err = s.repos.Sessions.FindByID(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, &domain.NotFoundError{Entity: "session", ID: req.SessionID}
	}
	if err := authorize(req.Actor, session.UserID); err != nil {
		return nil, err
	}
	if session.IsFinished() || r.Status != domain.ReservationStatusCharging {
		return nil, &domain.InvalidStateError{
			Entity: "session", ID: session.ID, Operation: "complete", Current: string(session.Status),
		}
	}

	now := s.now().UTC()
	endTime := now
	if !req.EndTime.IsZero() {
		// overtime is computed from the end time; owners always end at now
		if !req.Actor.Role.IsStaff() {
			return nil, fmt.Errorf("%w: end time can only be set by staff", domain.ErrForbidden)
		}
		endTime = req.EndTime.UTC()
	}
	if endTime.Before(session.StartTime) {
		return nil, fmt.Errorf("%w: end time is before the session start", domain.ErrInvalidWindow)
	}
	if endTime.After(now) {
		return nil, fmt.Errorf("%w: end time is in the future", domain.ErrInvalidWindow)
	}

	overtime := domain.OvertimeMinutes(r.EndTime, endTime)
	var fee *domain.Fee
	pointChanged := false

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		session.Status = domain.SessionStatusCompleted
		session.EndTime = &endTime
		session.EnergyDeliveredKWh = req.EnergyDeliveredKWh
		session.BaseCost = r.PricePerKWh.Mul(decimal.NewFromFloat(req.EnergyDeliveredKWh)).Round(2)
		session.UpdatedAt = now
		if err := s.repos.Sessions.Update(ctx, session); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}

		if overtime > 0 {
			sessionID := session.ID
			f := &domain.Fee{
				ID:          uuid.New().String(),
				Type:        domain.FeeTypeCharging,
				Amount:      s.policy.OvertimeFee(overtime),
				Description: fmt.Sprintf("Overtime of %d minutes past the scheduled end", overtime),
				UserID:      r.UserID,
				SessionID:   &sessionID,
				CreatedAt:   now,
			}
			if err := s.repos.Fees.Create(ctx, f); err != nil {
				if !errors.Is(err, domain.ErrDuplicateFee) {
					return fmt.Errorf("failed to save overtime fee: %w", err)
				}
			} else {
				fee = f
				session.Fees = append(session.Fees, *f)
			}
		}

		r.Status = domain.ReservationStatusCompleted
		r.UpdatedAt = now
		if err := s.repos.Reservations.Update(ctx, r); err != nil {
			return fmt.Errorf("failed to update reservation: %w", err)
		}

		changed, err := s.releaseOccupied(ctx, r)
		if err != nil {
			return err
		}
		pointChanged = changed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if pointChanged {
		s.catalog.Invalidate(ctx, r.StationID)
	}
	telemetry.ActiveChargingSessions.Dec()
	telemetry.EnergyDeliveredTotal.Add(req.EnergyDeliveredKWh)
	telemetry.ReservationsTotal.WithLabelValues(string(domain.ReservationStatusCompleted)).Inc()

	s.log.Info("Charging session completed",
		zap.String("reservation_id", r.ID),
		zap.String("session_id", session.ID),
		zap.Float64("energy_kwh", req.EnergyDeliveredKWh),
		zap.String("base_cost", session.BaseCost.String()),
		zap.Int64("overtime_minutes", overtime),
	)
	s.publish(ctx, domain.EventSessionCompleted, r, map[string]interface{}{
		"session_id":       session.ID,
		"energy_kwh":       req.EnergyDeliveredKWh,
		"base_cost":        session.BaseCost.String(),
		"overtime_minutes": overtime,
	})
	s.publishFee(ctx, r, fee)

	return &ports.CompleteResult{Reservation: r, Session: session, Fee: fee}, nil
}

// ExpireNoShow applies the no-show transition when the reservation is still
// BOOKED past its grace window. Anything else is left untouched.
func (s *Service) ExpireNoShow(ctx context.Context, reservationID string) (*domain.Fee, error) {
	ctx, span := tracer.Start(ctx, "reservation.ExpireNoShow")
	defer span.End()
	span.SetAttributes(attribute.String("reservation_id", reservationID))

	r, release, err := s.loadLocked(ctx, reservationID, "no_show")
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now().UTC()
	if !r.GraceExpired(now, s.config.GracePeriod) {
		return nil, nil
	}
	return s.expire(ctx, r, now)
}

// expire cancels r as a no-show and raises the NO_SHOW fee. The caller holds
// the point lock.
func (s *Service) expire(ctx context.Context, r *domain.Reservation, now time.Time) (*domain.Fee, error) {
	var fee *domain.Fee
	pointChanged := false

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		amount := s.policy.NoShowFee(r.EstimatedCost)
		f, err := s.raiseReservationFee(ctx, r, domain.FeeTypeNoShow, amount,
			fmt.Sprintf("No-show: not started within %s of the scheduled start", s.config.GracePeriod), now)
		if err != nil {
			return err
		}
		fee = f

		changed, err := s.setPointStatus(ctx, r.ChargingPointID, domain.ChargingPointStatusAvailable, domain.ChargingPointStatusReserved)
		if err != nil {
			return err
		}
		pointChanged = changed

		r.Status = domain.ReservationStatusCanceled
		r.CancelReason = noShowReason
		r.CanceledBy = domain.SystemActor.ID
		r.CanceledAt = &now
		r.UpdatedAt = now
		if err := s.repos.Reservations.Update(ctx, r); err != nil {
			return fmt.Errorf("failed to update reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if pointChanged {
		s.catalog.Invalidate(ctx, r.StationID)
	}
	telemetry.ReservationsTotal.WithLabelValues(string(domain.ReservationStatusCanceled)).Inc()

	fields := []zap.Field{
		zap.String("reservation_id", r.ID),
		zap.String("user_id", r.UserID),
		zap.Time("start_time", r.StartTime),
	}
	if fee != nil {
		fields = append(fields, zap.String("fee_type", string(fee.Type)), zap.String("amount", fee.Amount.String()))
	}
	s.log.Info("Reservation expired as no-show", fields...)

	s.publish(ctx, domain.EventReservationNoShow, r, map[string]interface{}{
		"charging_point_id": r.ChargingPointID,
		"start_time":        r.StartTime,
	})
	s.publishFee(ctx, r, fee)

	return fee, nil
}

// FlagOvertime records and announces that a CHARGING reservation ran past its
// scheduled end. Each reservation is flagged at most once.
func (s *Service) FlagOvertime(ctx context.Context, reservationID string) (bool, error) {
	r, release, err := s.loadLocked(ctx, reservationID, "overtime")
	if err != nil {
		return false, err
	}
	defer release()

	now := s.now().UTC()
	if r.Status != domain.ReservationStatusCharging || r.OvertimeNotifiedAt != nil || !now.After(r.EndTime) {
		return false, nil
	}

	r.OvertimeNotifiedAt = &now
	r.UpdatedAt = now
	if err := s.repos.Reservations.Update(ctx, r); err != nil {
		return false, fmt.Errorf("failed to update reservation: %w", err)
	}

	minutes := domain.OvertimeMinutes(r.EndTime, now)
	s.log.Info("Charging session past its scheduled end",
		zap.String("reservation_id", r.ID),
		zap.Int64("overtime_minutes", minutes),
	)
	s.publish(ctx, domain.EventSessionOvertime, r, map[string]interface{}{
		"scheduled_end":    r.EndTime,
		"overtime_minutes": minutes,
		"rate_per_minute":  s.policy.OvertimeRatePerMinute.String(),
	})
	return true, nil
}

// raiseReservationFee records a fee against a reservation. A zero amount
// raises nothing; a fee already raised for the same type is not duplicated.
func (s *Service) raiseReservationFee(ctx context.Context, r *domain.Reservation, feeType domain.FeeType, amount decimal.Decimal, description string, now time.Time) (*domain.Fee, error) {
	if !amount.IsPositive() {
		return nil, nil
	}
	reservationID := r.ID
	fee := &domain.Fee{
		ID:            uuid.New().String(),
		Type:          feeType,
		Amount:        amount,
		Description:   description,
		UserID:        r.UserID,
		ReservationID: &reservationID,
		CreatedAt:     now,
	}
	if err := s.repos.Fees.Create(ctx, fee); err != nil {
		if errors.Is(err, domain.ErrDuplicateFee) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to save %s fee: %w", feeType, err)
	}
	return fee, nil
}

// abortSession closes the running session of a reservation being canceled.
func (s *Service) abortSession(ctx context.Context, reservationID string, now time.Time) error {
	session, err := s.repos.Sessions.FindByReservationID(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.IsFinished() {
		return nil
	}
	session.Status = domain.SessionStatusAborted
	session.EndTime = &now
	session.UpdatedAt = now
	if err := s.repos.Sessions.Update(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// releaseOccupied frees the point of a reservation whose session ended,
// unless another reservation on the point is still CHARGING.
func (s *Service) releaseOccupied(ctx context.Context, r *domain.Reservation) (bool, error) {
	active, err := s.repos.Reservations.FindActiveByPoint(ctx, r.ChargingPointID, time.Time{})
	if err != nil {
		return false, fmt.Errorf("failed to load reservations for %s: %w", r.ChargingPointID, err)
	}
	for i := range active {
		if active[i].ID != r.ID && active[i].Status == domain.ReservationStatusCharging {
			return false, nil
		}
	}
	return s.setPointStatus(ctx, r.ChargingPointID, domain.ChargingPointStatusAvailable, domain.ChargingPointStatusOccupied)
}

// setPointStatus moves the point to status only when its current status is
// one of from. OUT_OF_SERVICE and MAINTENANCE are never listed in from.
func (s *Service) setPointStatus(ctx context.Context, pointID string, status domain.ChargingPointStatus, from ...domain.ChargingPointStatus) (bool, error) {
	point, err := s.repos.Points.FindByID(ctx, pointID)
	if err != nil {
		return false, fmt.Errorf("failed to load charging point: %w", err)
	}
	if point == nil {
		return false, nil
	}
	for _, f := range from {
		if point.Status == f {
			if err := s.repos.Points.UpdateStatus(ctx, pointID, status); err != nil {
				return false, fmt.Errorf("failed to update charging point status: %w", err)
			}
			return true, nil
		}
	}
	return false, nil
}
