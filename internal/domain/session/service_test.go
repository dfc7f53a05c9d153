package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	sessions map[uuid.UUID]*Session
}

func newMockRepo() *mockRepo {
	return &mockRepo{sessions: make(map[uuid.UUID]*Session)}
}

func (m *mockRepo) Create(ctx context.Context, s *Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found")
	}
	return s, nil
}

func (m *mockRepo) Update(ctx context.Context, s *Session) error {
	if _, ok := m.sessions[s.ID]; !ok {
		return fmt.Errorf("session not found")
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.sessions, id)
	return nil
}

func (m *mockRepo) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Session, int, error) {
	var out []*Session
	for _, s := range m.sessions {
		if s.ClientID == clientID {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListByClients(ctx context.Context, clientIDs []uuid.UUID) (map[uuid.UUID][]Session, error) {
	out := make(map[uuid.UUID][]Session)
	for _, id := range clientIDs {
		for _, s := range m.sessions {
			if s.ClientID == id {
				out[id] = append(out[id], *s)
			}
		}
	}
	return out, nil
}

func (m *mockRepo) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Session, int, error) {
	var out []*Session
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out, len(out), nil
}

func intPtr(v int) *int { return &v }

func validSession() *Session {
	return &Session{
		ClientID:    uuid.New(),
		TherapistID: uuid.New(),
		SessionDate: time.Now(),
		Status:      StatusCompleted,
	}
}

func TestCreateSession(t *testing.T) {
	svc := NewService(newMockRepo())

	s := validSession()
	if err := svc.Create(context.Background(), s); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if s.ID == uuid.Nil {
		t.Error("expected ID to be assigned")
	}
}

func TestCreateSessionValidation(t *testing.T) {
	svc := NewService(newMockRepo())

	tests := []struct {
		name   string
		mutate func(*Session)
	}{
		{"missing client", func(s *Session) { s.ClientID = uuid.Nil }},
		{"missing therapist", func(s *Session) { s.TherapistID = uuid.Nil }},
		{"missing date", func(s *Session) { s.SessionDate = time.Time{} }},
		{"bad status", func(s *Session) { s.Status = "pending" }},
		{"mood too low", func(s *Session) { s.MoodRating = intPtr(0) }},
		{"mood too high", func(s *Session) { s.MoodRating = intPtr(11) }},
		{"progress too low", func(s *Session) { s.ProgressRating = intPtr(0) }},
		{"progress too high", func(s *Session) { s.ProgressRating = intPtr(11) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSession()
			tt.mutate(s)
			if err := svc.Create(context.Background(), s); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRatingBounds(t *testing.T) {
	svc := NewService(newMockRepo())

	for _, v := range []int{1, 5, 10} {
		s := validSession()
		s.MoodRating = intPtr(v)
		s.ProgressRating = intPtr(v)
		if err := svc.Create(context.Background(), s); err != nil {
			t.Errorf("rating %d should be valid: %v", v, err)
		}
	}
}

func TestRatingsOnlyOnCompleted(t *testing.T) {
	svc := NewService(newMockRepo())

	for _, status := range []string{StatusScheduled, StatusCancelled, StatusNoShow} {
		s := validSession()
		s.Status = status
		s.MoodRating = intPtr(7)
		if err := svc.Create(context.Background(), s); err == nil {
			t.Errorf("expected error for rating on %s session", status)
		}
	}
}

func TestStatusDefaultsToScheduled(t *testing.T) {
	svc := NewService(newMockRepo())

	s := validSession()
	s.Status = ""
	if err := svc.Create(context.Background(), s); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if s.Status != StatusScheduled {
		t.Errorf("expected status %q, got %q", StatusScheduled, s.Status)
	}
}

func TestUpdateMissingSession(t *testing.T) {
	svc := NewService(newMockRepo())

	s := validSession()
	s.ID = uuid.New()
	if err := svc.Update(context.Background(), s); err == nil {
		t.Error("expected error updating missing session")
	}
}
