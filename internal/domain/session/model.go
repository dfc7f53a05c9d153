package session

import (
	"time"

	"github.com/google/uuid"
)

// Session statuses.
const (
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
	StatusScheduled = "scheduled"
)

// Session maps to the session table. Mood and progress ratings are the
// client's self-reported mood and the therapist's assessment of treatment
// progress, each on a 1-10 scale, recorded at completed sessions.
type Session struct {
	ID              uuid.UUID `db:"id" json:"id"`
	ClientID        uuid.UUID `db:"client_id" json:"client_id"`
	TherapistID     uuid.UUID `db:"therapist_id" json:"therapist_id"`
	SessionDate     time.Time `db:"session_date" json:"session_date"`
	Status          string    `db:"status" json:"status"`
	MoodRating      *int      `db:"mood_rating" json:"mood_rating,omitempty"`
	ProgressRating  *int      `db:"progress_rating" json:"progress_rating,omitempty"`
	DurationMinutes *int      `db:"duration_minutes" json:"duration_minutes,omitempty"`
	Note            *string   `db:"note" json:"note,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
