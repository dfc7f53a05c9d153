package client

import (
	"time"

	"github.com/google/uuid"
)

// Client statuses. Only active clients are candidates for risk scoring.
const (
	StatusActive     = "active"
	StatusInactive   = "inactive"
	StatusDischarged = "discharged"
)

// Client maps to the client table.
type Client struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	TherapistID uuid.UUID  `db:"therapist_id" json:"therapist_id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	Email       *string    `db:"email" json:"email,omitempty"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Status      string     `db:"status" json:"status"`
	Pronouns    *string    `db:"pronouns" json:"pronouns,omitempty"`
	Note        *string    `db:"note" json:"note,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// DisplayName renders the name shown in caseload lists.
func (c *Client) DisplayName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
