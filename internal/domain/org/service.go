package org

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/practicehub/practicehub/internal/platform/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, o *Organization) error {
	if o.Name == "" {
		return fmt.Errorf("name is required")
	}
	if o.OwnerID == uuid.Nil {
		return fmt.Errorf("owner_id is required")
	}
	if o.Plan == "" {
		o.Plan = "free"
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return err
	}
	// The creating user becomes the owning member.
	return s.repo.AddMember(ctx, &Member{
		OrgID:  o.ID,
		UserID: o.OwnerID,
		Role:   auth.RoleOwner,
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, o *Organization) error {
	if o.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.repo.Update(ctx, o)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) AddMember(ctx context.Context, m *Member) error {
	if m.OrgID == uuid.Nil {
		return fmt.Errorf("org_id is required")
	}
	if m.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if !auth.ValidRole(m.Role) {
		return fmt.Errorf("invalid role: %s", m.Role)
	}
	if existing, err := s.repo.GetMemberByUser(ctx, m.UserID); err == nil && existing != nil {
		return fmt.Errorf("user is already a member of an organization")
	}
	return s.repo.AddMember(ctx, m)
}

func (s *Service) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*Member, error) {
	return s.repo.ListMembers(ctx, orgID)
}

func (s *Service) UpdateMember(ctx context.Context, m *Member) error {
	if !auth.ValidRole(m.Role) {
		return fmt.Errorf("invalid role: %s", m.Role)
	}
	return s.repo.UpdateMember(ctx, m)
}

func (s *Service) RemoveMember(ctx context.Context, id uuid.UUID) error {
	return s.repo.RemoveMember(ctx, id)
}

// AccessibleTherapistIDs resolves which therapists' caseloads a user may view.
// Owners and admins see every caseload in the organization, supervisors see
// their own plus their supervisees', everyone else sees only their own. Any
// failure along the way narrows access to the user's own caseload rather than
// failing the request.
func (s *Service) AccessibleTherapistIDs(ctx context.Context, userID uuid.UUID) []uuid.UUID {
	self := []uuid.UUID{userID}

	member, err := s.repo.GetMemberByUser(ctx, userID)
	if err != nil || member == nil {
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).
				Msg("membership lookup failed, scoping access to self")
		}
		return self
	}

	switch member.Role {
	case auth.RoleOwner, auth.RoleAdmin:
		ids, err := s.repo.ListTherapistIDs(ctx, member.OrgID)
		if err != nil {
			log.Warn().Err(err).Str("org_id", member.OrgID.String()).
				Msg("therapist list failed, scoping access to self")
			return self
		}
		return withSelf(ids, userID)
	case auth.RoleSupervisor:
		ids, err := s.repo.ListSupervisedIDs(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).
				Msg("supervisee list failed, scoping access to self")
			return self
		}
		return withSelf(ids, userID)
	default:
		return self
	}
}

// PlanForUser returns the subscription plan of the user's organization.
// Users without an organization, and any lookup failure, resolve to the
// free plan.
func (s *Service) PlanForUser(ctx context.Context, userID string) string {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "free"
	}
	member, err := s.repo.GetMemberByUser(ctx, id)
	if err != nil || member == nil {
		return "free"
	}
	o, err := s.repo.GetByID(ctx, member.OrgID)
	if err != nil {
		log.Warn().Err(err).Str("org_id", member.OrgID.String()).
			Msg("organization lookup failed, treating plan as free")
		return "free"
	}
	return o.Plan
}

func withSelf(ids []uuid.UUID, userID uuid.UUID) []uuid.UUID {
	for _, id := range ids {
		if id == userID {
			return ids
		}
	}
	return append(ids, userID)
}
