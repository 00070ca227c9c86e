package domain

import "time"

// EventType names a notification emitted to the external notification sink.
type EventType string

const (
	EventReservationConfirmed  EventType = "reservation.confirmed"
	EventReservationCanceled   EventType = "reservation.canceled"
	EventReservationNoShow     EventType = "reservation.no_show"
	EventReservationReassigned EventType = "reservation.reassigned"
	EventSessionStarted        EventType = "session.started"
	EventSessionCompleted      EventType = "session.completed"
	EventSessionOvertime       EventType = "session.overtime"
	EventPenaltyRaised         EventType = "penalty.raised"
)

// Event is a fire-and-forget notification.
type Event struct {
	ID            string                 `json:"id"`
	Type          EventType              `json:"type"`
	OccurredAt    time.Time              `json:"occurred_at"`
	ReservationID string                 `json:"reservation_id,omitempty"`
	UserID        string                 `json:"user_id,omitempty"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
}
