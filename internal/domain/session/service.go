package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

var validStatuses = map[string]bool{
	StatusCompleted: true, StatusCancelled: true, StatusNoShow: true, StatusScheduled: true,
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validateRating(name string, rating *int) error {
	if rating == nil {
		return nil
	}
	if *rating < 1 || *rating > 10 {
		return fmt.Errorf("%s must be between 1 and 10", name)
	}
	return nil
}

func (s *Service) validate(sess *Session) error {
	if sess.ClientID == uuid.Nil {
		return fmt.Errorf("client_id is required")
	}
	if sess.TherapistID == uuid.Nil {
		return fmt.Errorf("therapist_id is required")
	}
	if sess.SessionDate.IsZero() {
		return fmt.Errorf("session_date is required")
	}
	if sess.Status == "" {
		sess.Status = StatusScheduled
	}
	if !validStatuses[sess.Status] {
		return fmt.Errorf("invalid status: %s", sess.Status)
	}
	if err := validateRating("mood_rating", sess.MoodRating); err != nil {
		return err
	}
	if err := validateRating("progress_rating", sess.ProgressRating); err != nil {
		return err
	}
	// Ratings are recorded at completed sessions only.
	if sess.Status != StatusCompleted && (sess.MoodRating != nil || sess.ProgressRating != nil) {
		return fmt.Errorf("ratings may only be set on completed sessions")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, sess *Session) error {
	if err := s.validate(sess); err != nil {
		return err
	}
	return s.repo.Create(ctx, sess)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, sess *Session) error {
	if err := s.validate(sess); err != nil {
		return err
	}
	return s.repo.Update(ctx, sess)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Session, int, error) {
	return s.repo.ListByClient(ctx, clientID, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Session, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
