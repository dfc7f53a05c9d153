package scheduling

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.appointments[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, fmt.Errorf("appointment not found")
	}
	return a, nil
}

func (m *mockRepo) Update(ctx context.Context, a *Appointment) error {
	if _, ok := m.appointments[a.ID]; !ok {
		return fmt.Errorf("appointment not found")
	}
	m.appointments[a.ID] = a
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.appointments, id)
	return nil
}

func (m *mockRepo) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if a.ClientID == clientID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListByTherapist(ctx context.Context, therapistID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if a.TherapistID == therapistID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) FindOverlapping(ctx context.Context, therapistID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]*Appointment, error) {
	var out []*Appointment
	candidate := &Appointment{StartTime: start, EndTime: end}
	for _, a := range m.appointments {
		if a.TherapistID != therapistID || a.ID == exclude {
			continue
		}
		if a.Status != StatusScheduled && a.Status != StatusConfirmed {
			continue
		}
		if a.Overlaps(candidate) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepo) ListDueForReminder(ctx context.Context, from, to time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if a.Status != StatusScheduled && a.Status != StatusConfirmed {
			continue
		}
		if a.ReminderSentAt != nil {
			continue
		}
		if a.StartTime.Before(from) || !a.StartTime.Before(to) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *mockRepo) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		out = append(out, a)
	}
	return out, len(out), nil
}

func validAppointment() *Appointment {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return &Appointment{
		ClientID:    uuid.New(),
		TherapistID: uuid.New(),
		StartTime:   start,
		EndTime:     start.Add(50 * time.Minute),
	}
}

func TestCreateAppointment(t *testing.T) {
	svc := NewService(newMockRepo())

	a := validAppointment()
	if err := svc.Create(context.Background(), a); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if a.Status != StatusScheduled {
		t.Errorf("expected default status %q, got %q", StatusScheduled, a.Status)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	svc := NewService(newMockRepo())

	tests := []struct {
		name   string
		mutate func(*Appointment)
	}{
		{"missing client", func(a *Appointment) { a.ClientID = uuid.Nil }},
		{"missing therapist", func(a *Appointment) { a.TherapistID = uuid.Nil }},
		{"missing start", func(a *Appointment) { a.StartTime = time.Time{} }},
		{"missing end", func(a *Appointment) { a.EndTime = time.Time{} }},
		{"end before start", func(a *Appointment) { a.EndTime = a.StartTime.Add(-time.Hour) }},
		{"end equals start", func(a *Appointment) { a.EndTime = a.StartTime }},
		{"bad status", func(a *Appointment) { a.Status = "booked" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAppointment()
			tt.mutate(a)
			if err := svc.Create(context.Background(), a); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCreateRejectsOverlap(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	first := validAppointment()
	if err := svc.Create(context.Background(), first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	second := validAppointment()
	second.TherapistID = first.TherapistID
	second.StartTime = first.StartTime.Add(20 * time.Minute)
	second.EndTime = second.StartTime.Add(50 * time.Minute)
	if err := svc.Create(context.Background(), second); err == nil {
		t.Error("expected conflict error for overlapping appointment")
	}
}

func TestCreateAllowsBackToBack(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	first := validAppointment()
	if err := svc.Create(context.Background(), first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	second := validAppointment()
	second.TherapistID = first.TherapistID
	second.StartTime = first.EndTime
	second.EndTime = second.StartTime.Add(50 * time.Minute)
	if err := svc.Create(context.Background(), second); err != nil {
		t.Errorf("back-to-back appointments should not conflict: %v", err)
	}
}

func TestCreateIgnoresCancelledOverlap(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	first := validAppointment()
	first.Status = StatusCancelled
	if err := svc.Create(context.Background(), first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	second := validAppointment()
	second.TherapistID = first.TherapistID
	if err := svc.Create(context.Background(), second); err != nil {
		t.Errorf("cancelled appointments should not block new bookings: %v", err)
	}
}

func TestCancel(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	a := validAppointment()
	if err := svc.Create(context.Background(), a); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	cancelled, err := svc.Cancel(context.Background(), a.ID, "client rescheduled")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("expected status %q, got %q", StatusCancelled, cancelled.Status)
	}
	if cancelled.CancellationReason == nil || *cancelled.CancellationReason != "client rescheduled" {
		t.Error("expected cancellation reason to be recorded")
	}
}

func TestCancelCompletedRejected(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	a := validAppointment()
	a.Status = StatusCompleted
	if err := svc.Create(context.Background(), a); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), a.ID, ""); err == nil {
		t.Error("expected error cancelling a completed appointment")
	}
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	a := &Appointment{StartTime: base, EndTime: base.Add(time.Hour)}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"identical", base, base.Add(time.Hour), true},
		{"contained", base.Add(10 * time.Minute), base.Add(20 * time.Minute), true},
		{"partial tail", base.Add(30 * time.Minute), base.Add(90 * time.Minute), true},
		{"adjacent after", base.Add(time.Hour), base.Add(2 * time.Hour), false},
		{"adjacent before", base.Add(-time.Hour), base, false},
		{"disjoint", base.Add(3 * time.Hour), base.Add(4 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := &Appointment{StartTime: tt.start, EndTime: tt.end}
			if got := a.Overlaps(other); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
		})
	}
}
