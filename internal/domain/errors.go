package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRange          = errors.New("invalid battery range")
	ErrNoCompatibleConnector = errors.New("no compatible connector")
	ErrSlotConflict          = errors.New("slot conflict")
	ErrNotFound              = errors.New("not found")
	ErrInvalidState          = errors.New("invalid state")
	ErrNoShow                = errors.New("no-show")
	ErrReassignment          = errors.New("reassignment rejected")
	ErrInvalidWindow         = errors.New("invalid reservation window")
	ErrForbidden             = errors.New("forbidden")
	ErrLockTimeout           = errors.New("lock wait timeout")
	ErrDuplicateFee          = errors.New("fee already raised")
	ErrValidation            = errors.New("validation failed")
)

// InvalidRangeError is returned when target battery is not above current battery.
type InvalidRangeError struct {
	Current int
	Target  int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid battery range: current %d%%, target %d%%", e.Current, e.Target)
}

func (e *InvalidRangeError) Is(target error) bool { return target == ErrInvalidRange }

// SlotConflictError is returned when a write would overlap an active reservation.
type SlotConflictError struct {
	ChargingPointID string
	Start           time.Time
	End             time.Time
	ConflictingID   string
}

func (e *SlotConflictError) Error() string {
	if e.ConflictingID == "" {
		return fmt.Sprintf("slot conflict on charging point %s for [%s, %s)",
			e.ChargingPointID, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
	}
	return fmt.Sprintf("slot conflict on charging point %s for [%s, %s): overlaps reservation %s",
		e.ChargingPointID, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), e.ConflictingID)
}

func (e *SlotConflictError) Is(target error) bool { return target == ErrSlotConflict }

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidStateError surfaces the current status when an operation is not
// allowed in it.
type InvalidStateError struct {
	Entity    string
	ID        string
	Operation string
	Current   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s in status %s", e.Operation, e.Entity, e.ID, e.Current)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// NoShowError is returned by StartSession when the grace window has elapsed.
// The reservation has already been canceled and the fee recorded.
type NoShowError struct {
	ReservationID string
	Fee           *Fee
}

func (e *NoShowError) Error() string {
	return fmt.Sprintf("reservation %s was not started within the grace window", e.ReservationID)
}

func (e *NoShowError) Is(target error) bool { return target == ErrNoShow }

// ReassignmentRule identifies the check a reassignment failed.
type ReassignmentRule string

const (
	RuleReservationNotBooked ReassignmentRule = "RESERVATION_NOT_BOOKED"
	RuleAlreadyStarted       ReassignmentRule = "ALREADY_STARTED"
	RuleCurrentPointMismatch ReassignmentRule = "CURRENT_POINT_MISMATCH"
	RuleSamePoint            ReassignmentRule = "SAME_POINT"
	RuleDifferentStation     ReassignmentRule = "DIFFERENT_STATION"
	RuleConnectorMismatch    ReassignmentRule = "CONNECTOR_MISMATCH"
	RulePointNotAvailable    ReassignmentRule = "POINT_NOT_AVAILABLE"
	RuleSlotConflict         ReassignmentRule = "SLOT_CONFLICT"
	RuleLockTimeout          ReassignmentRule = "LOCK_TIMEOUT"
	RuleNotFound             ReassignmentRule = "NOT_FOUND"
	RuleForbidden            ReassignmentRule = "FORBIDDEN"
	RuleInvalidRequest       ReassignmentRule = "INVALID_REQUEST"
)

// ReassignmentError carries the violated rule. No state was changed.
type ReassignmentError struct {
	Rule   ReassignmentRule
	Detail string
	Err    error
}

func (e *ReassignmentError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("reassignment rejected: %s", e.Rule)
	}
	return fmt.Sprintf("reassignment rejected: %s: %s", e.Rule, e.Detail)
}

func (e *ReassignmentError) Is(target error) bool { return target == ErrReassignment }

func (e *ReassignmentError) Unwrap() error { return e.Err }
