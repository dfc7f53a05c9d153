package org

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides persistence for organizations and their members.
type Repository interface {
	Create(ctx context.Context, o *Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	Update(ctx context.Context, o *Organization) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddMember(ctx context.Context, m *Member) error
	GetMemberByUser(ctx context.Context, userID uuid.UUID) (*Member, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]*Member, error)
	UpdateMember(ctx context.Context, m *Member) error
	RemoveMember(ctx context.Context, id uuid.UUID) error

	// ListTherapistIDs returns the user IDs of every member of the
	// organization who carries a caseload.
	ListTherapistIDs(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error)
	// ListSupervisedIDs returns the user IDs of members supervised by the
	// given user.
	ListSupervisedIDs(ctx context.Context, supervisorID uuid.UUID) ([]uuid.UUID, error)
}
