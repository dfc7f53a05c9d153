package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

var validStatuses = map[string]bool{
	StatusScheduled: true, StatusConfirmed: true, StatusCompleted: true,
	StatusCancelled: true, StatusNoShow: true,
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(a *Appointment) error {
	if a.ClientID == uuid.Nil {
		return fmt.Errorf("client_id is required")
	}
	if a.TherapistID == uuid.Nil {
		return fmt.Errorf("therapist_id is required")
	}
	if a.StartTime.IsZero() {
		return fmt.Errorf("start_time is required")
	}
	if a.EndTime.IsZero() {
		return fmt.Errorf("end_time is required")
	}
	if !a.EndTime.After(a.StartTime) {
		return fmt.Errorf("end_time must be after start_time")
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !validStatuses[a.Status] {
		return fmt.Errorf("invalid status: %s", a.Status)
	}
	return nil
}

// checkConflicts rejects the appointment when the therapist already has an
// active booking in the same window.
func (s *Service) checkConflicts(ctx context.Context, a *Appointment) error {
	if a.Status != StatusScheduled && a.Status != StatusConfirmed {
		return nil
	}
	overlapping, err := s.repo.FindOverlapping(ctx, a.TherapistID, a.StartTime, a.EndTime, a.ID)
	if err != nil {
		return fmt.Errorf("checking for conflicts: %w", err)
	}
	if len(overlapping) > 0 {
		return fmt.Errorf("therapist already has an appointment from %s to %s",
			overlapping[0].StartTime.Format("15:04"), overlapping[0].EndTime.Format("15:04"))
	}
	return nil
}

func (s *Service) Create(ctx context.Context, a *Appointment) error {
	if err := s.validate(a); err != nil {
		return err
	}
	if err := s.checkConflicts(ctx, a); err != nil {
		return err
	}
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, a *Appointment) error {
	if err := s.validate(a); err != nil {
		return err
	}
	if err := s.checkConflicts(ctx, a); err != nil {
		return err
	}
	return s.repo.Update(ctx, a)
}

// Cancel marks an appointment cancelled with an optional reason.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusCompleted {
		return nil, fmt.Errorf("cannot cancel a completed appointment")
	}
	a.Status = StatusCancelled
	if reason != "" {
		a.CancellationReason = &reason
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByClient(ctx, clientID, limit, offset)
}

func (s *Service) ListByTherapist(ctx context.Context, therapistID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByTherapist(ctx, therapistID, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
