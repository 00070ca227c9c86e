package domain

import "time"

// ReassignmentRecord is the audit entry written when staff move a booking
// from one charging point to another.
type ReassignmentRecord struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	ReservationID string    `json:"reservation_id" gorm:"index"`
	FromPointID   string    `json:"from_point_id"`
	ToPointID     string    `json:"to_point_id"`
	Reason        string    `json:"reason"`
	Actor         string    `json:"actor"`
	CreatedAt     time.Time `json:"created_at"`
}
