package client

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

var validStatuses = map[string]bool{
	StatusActive: true, StatusInactive: true, StatusDischarged: true,
}

// allowedTransitions lists the legal status moves. Discharged clients can be
// reactivated (a client returning to care), but inactive clients must be
// reactivated before discharge so the discharge date reflects actual care.
var allowedTransitions = map[string][]string{
	StatusActive:     {StatusInactive, StatusDischarged},
	StatusInactive:   {StatusActive},
	StatusDischarged: {StatusActive},
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, c *Client) error {
	if c.TherapistID == uuid.Nil {
		return fmt.Errorf("therapist_id is required")
	}
	if c.FirstName == "" && c.LastName == "" {
		return fmt.Errorf("client name is required")
	}
	if c.Status == "" {
		c.Status = StatusActive
	}
	if !validStatuses[c.Status] {
		return fmt.Errorf("invalid status: %s", c.Status)
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Client, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, c *Client) error {
	if c.Status != "" && !validStatuses[c.Status] {
		return fmt.Errorf("invalid status: %s", c.Status)
	}
	return s.repo.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// ChangeStatus moves a client through the status lifecycle, rejecting moves
// that are not in the transition table.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, newStatus string) (*Client, error) {
	if !validStatuses[newStatus] {
		return nil, fmt.Errorf("invalid status: %s", newStatus)
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == newStatus {
		return c, nil
	}

	allowed := false
	for _, next := range allowedTransitions[c.Status] {
		if next == newStatus {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("cannot change status from %s to %s", c.Status, newStatus)
	}

	c.Status = newStatus
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListByTherapist(ctx context.Context, therapistID uuid.UUID, limit, offset int) ([]*Client, int, error) {
	return s.repo.ListByTherapist(ctx, therapistID, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Client, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

func (s *Service) CountActiveByTherapist(ctx context.Context, therapistID uuid.UUID) (int, error) {
	return s.repo.CountByTherapist(ctx, therapistID)
}
