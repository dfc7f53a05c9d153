package scheduling

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

// Appointment is a booked meeting between a therapist and a client.
type Appointment struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	ClientID           uuid.UUID  `db:"client_id" json:"client_id"`
	TherapistID        uuid.UUID  `db:"therapist_id" json:"therapist_id"`
	Status             string     `db:"status" json:"status"`
	StartTime          time.Time  `db:"start_time" json:"start_time"`
	EndTime            time.Time  `db:"end_time" json:"end_time"`
	Location           *string    `db:"location" json:"location,omitempty"`
	IsTelehealth       bool       `db:"is_telehealth" json:"is_telehealth"`
	TelehealthURL      *string    `db:"telehealth_url" json:"telehealth_url,omitempty"`
	Notes              *string    `db:"notes" json:"notes,omitempty"`
	CancellationReason *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	ReminderSentAt     *time.Time `db:"reminder_sent_at" json:"reminder_sent_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Duration returns the booked length of the appointment.
func (a *Appointment) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// Overlaps reports whether two appointments occupy intersecting time ranges.
func (a *Appointment) Overlaps(other *Appointment) bool {
	return a.StartTime.Before(other.EndTime) && other.StartTime.Before(a.EndTime)
}
