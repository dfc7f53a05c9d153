package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/practicehub/practicehub/internal/domain/client"
	"github.com/practicehub/practicehub/internal/platform/notification"
)

// DefaultReminderWindow is how far ahead SendDue looks for appointments.
const DefaultReminderWindow = 24 * time.Hour

// ClientSource resolves client contact details for reminders.
type ClientSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*client.Client, error)
}

// Notifier delivers rendered notifications.
type Notifier interface {
	SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*notification.Notification, error)
}

// ReminderService sends appointment reminders and stamps each appointment
// so it is never reminded twice.
type ReminderService struct {
	repo     Repository
	clients  ClientSource
	notifier Notifier
	window   time.Duration
	now      func() time.Time
}

func NewReminderService(repo Repository, clients ClientSource, notifier Notifier) *ReminderService {
	return &ReminderService{
		repo:     repo,
		clients:  clients,
		notifier: notifier,
		window:   DefaultReminderWindow,
		now:      time.Now,
	}
}

// SendDue sends reminders for appointments starting within the window.
// It returns the number of reminders sent. Per-appointment failures are
// logged and skipped so one bad record does not block the batch.
func (s *ReminderService) SendDue(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.repo.ListDueForReminder(ctx, now, now.Add(s.window))
	if err != nil {
		return 0, fmt.Errorf("listing appointments due for reminder: %w", err)
	}

	sent := 0
	for _, a := range due {
		if err := s.remind(ctx, a, now); err != nil {
			log.Warn().Err(err).
				Str("appointment_id", a.ID.String()).
				Msg("appointment reminder not sent")
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *ReminderService) remind(ctx context.Context, a *Appointment, now time.Time) error {
	c, err := s.clients.GetByID(ctx, a.ClientID)
	if err != nil {
		return fmt.Errorf("loading client: %w", err)
	}
	if c.Email == nil || *c.Email == "" {
		return fmt.Errorf("client %s has no email on file", c.ID)
	}

	data := map[string]string{
		"client_name": c.DisplayName(),
		"date":        a.StartTime.Format("2006-01-02"),
		"time":        a.StartTime.Format("15:04"),
	}
	if _, err := s.notifier.SendFromTemplate(ctx, notification.TemplateAppointmentReminder, data, *c.Email); err != nil {
		return fmt.Errorf("sending reminder: %w", err)
	}

	sentAt := now
	a.ReminderSentAt = &sentAt
	if err := s.repo.Update(ctx, a); err != nil {
		return fmt.Errorf("recording reminder: %w", err)
	}
	return nil
}
