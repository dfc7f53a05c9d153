package org

import (
	"time"

	"github.com/google/uuid"
)

// Organization maps to the organization table. A practice is the billing
// and membership boundary inside a tenant.
type Organization struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Plan      string    `db:"plan" json:"plan"`
	OwnerID   uuid.UUID `db:"owner_id" json:"owner_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Member maps to the org_member table.
type Member struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	OrgID        uuid.UUID  `db:"org_id" json:"org_id"`
	UserID       uuid.UUID  `db:"user_id" json:"user_id"`
	Role         string     `db:"role" json:"role"`
	SupervisorID *uuid.UUID `db:"supervisor_id" json:"supervisor_id,omitempty"`
	JoinedAt     time.Time  `db:"joined_at" json:"joined_at"`
}
