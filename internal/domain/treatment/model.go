package treatment

import (
	"time"

	"github.com/google/uuid"
)

const (
	PlanStatusDraft     = "draft"
	PlanStatusActive    = "active"
	PlanStatusCompleted = "completed"
	PlanStatusArchived  = "archived"
)

const (
	GoalStatusNotStarted = "not-started"
	GoalStatusInProgress = "in-progress"
	GoalStatusAchieved   = "achieved"
	GoalStatusAbandoned  = "abandoned"
)

// Plan maps to the treatment_plan table.
type Plan struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ClientID    uuid.UUID  `db:"client_id" json:"client_id"`
	TherapistID uuid.UUID  `db:"therapist_id" json:"therapist_id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	Status      string     `db:"status" json:"status"`
	Diagnosis   *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	StartDate   *time.Time `db:"start_date" json:"start_date,omitempty"`
	ReviewDate  *time.Time `db:"review_date" json:"review_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	// Goals is populated on detail reads, not stored on the plan row.
	Goals []*Goal `db:"-" json:"goals,omitempty"`
}

// Goal maps to the treatment_goal table.
type Goal struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PlanID      uuid.UUID  `db:"plan_id" json:"plan_id"`
	Description string     `db:"description" json:"description"`
	Status      string     `db:"status" json:"status"`
	Progress    int        `db:"progress" json:"progress"`
	TargetDate  *time.Time `db:"target_date" json:"target_date,omitempty"`
	AchievedAt  *time.Time `db:"achieved_at" json:"achieved_at,omitempty"`
	SortOrder   int        `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
