package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository provides persistence for appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByTherapist(ctx context.Context, therapistID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// FindOverlapping returns active appointments for a therapist that
	// intersect the [start, end) window, excluding the given appointment.
	FindOverlapping(ctx context.Context, therapistID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]*Appointment, error)
	// ListDueForReminder returns active appointments starting in [from, to)
	// that have not had a reminder sent yet.
	ListDueForReminder(ctx context.Context, from, to time.Time) ([]*Appointment, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error)
}
