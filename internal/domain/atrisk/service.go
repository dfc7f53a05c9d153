package atrisk

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/practicehub/practicehub/internal/domain/client"
	"github.com/practicehub/practicehub/internal/domain/session"
)

// ClientSource lists the active caseload for a set of therapists.
type ClientSource interface {
	ListActiveByTherapists(ctx context.Context, therapistIDs []uuid.UUID) ([]*client.Client, error)
}

// SessionSource loads full session histories grouped by client.
type SessionSource interface {
	ListByClients(ctx context.Context, clientIDs []uuid.UUID) (map[uuid.UUID][]session.Session, error)
}

// AccessResolver scopes which therapists' caseloads the caller may view.
type AccessResolver interface {
	AccessibleTherapistIDs(ctx context.Context, userID uuid.UUID) []uuid.UUID
}

// Report is the aggregate response for a caseload evaluation.
type Report struct {
	AtRiskClients []Assessment `json:"atRiskClients"`
	TotalAtRisk   int          `json:"totalAtRisk"`
}

type Service struct {
	clients  ClientSource
	sessions SessionSource
	access   AccessResolver

	// now is captured once per evaluation so every rule sees the same
	// instant. Tests pin it.
	now func() time.Time
}

func NewService(clients ClientSource, sessions SessionSource, access AccessResolver) *Service {
	return &Service{clients: clients, sessions: sessions, access: access, now: time.Now}
}

// Evaluate scores every active client visible to the user and returns those
// above the low band, highest risk first.
func (s *Service) Evaluate(ctx context.Context, userID uuid.UUID) (*Report, error) {
	therapistIDs := s.access.AccessibleTherapistIDs(ctx, userID)

	clients, err := s.clients.ListActiveByTherapists(ctx, therapistIDs)
	if err != nil {
		return nil, fmt.Errorf("fetching caseload: %w", err)
	}

	clientIDs := make([]uuid.UUID, len(clients))
	for i, c := range clients {
		clientIDs[i] = c.ID
	}
	histories := map[uuid.UUID][]session.Session{}
	if len(clientIDs) > 0 {
		histories, err = s.sessions.ListByClients(ctx, clientIDs)
		if err != nil {
			return nil, fmt.Errorf("fetching session histories: %w", err)
		}
	}

	now := s.now()
	atRisk := []Assessment{}
	for _, c := range clients {
		a := Score(histories[c.ID], now)
		if a.RiskLevel == LevelLow {
			continue
		}
		a.ID = c.ID.String()
		a.Name = c.DisplayName()
		atRisk = append(atRisk, a)
	}

	sort.SliceStable(atRisk, func(i, j int) bool {
		return atRisk[i].RiskScore > atRisk[j].RiskScore
	})

	return &Report{AtRiskClients: atRisk, TotalAtRisk: len(atRisk)}, nil
}
