package treatment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var validPlanStatuses = map[string]bool{
	PlanStatusDraft: true, PlanStatusActive: true,
	PlanStatusCompleted: true, PlanStatusArchived: true,
}

var validGoalStatuses = map[string]bool{
	GoalStatusNotStarted: true, GoalStatusInProgress: true,
	GoalStatusAchieved: true, GoalStatusAbandoned: true,
}

type Service struct {
	plans PlanRepository
	goals GoalRepository
	now   func() time.Time
}

func NewService(plans PlanRepository, goals GoalRepository) *Service {
	return &Service{plans: plans, goals: goals, now: time.Now}
}

// -- Plan --

func (s *Service) CreatePlan(ctx context.Context, p *Plan) error {
	if p.ClientID == uuid.Nil {
		return fmt.Errorf("client_id is required")
	}
	if p.TherapistID == uuid.Nil {
		return fmt.Errorf("therapist_id is required")
	}
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.Status == "" {
		p.Status = PlanStatusDraft
	}
	if !validPlanStatuses[p.Status] {
		return fmt.Errorf("invalid plan status: %s", p.Status)
	}
	return s.plans.Create(ctx, p)
}

// GetPlan returns a plan with its goals attached.
func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	goals, err := s.goals.ListByPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Goals = goals
	return p, nil
}

func (s *Service) UpdatePlan(ctx context.Context, p *Plan) error {
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.Status != "" && !validPlanStatuses[p.Status] {
		return fmt.Errorf("invalid plan status: %s", p.Status)
	}
	return s.plans.Update(ctx, p)
}

func (s *Service) DeletePlan(ctx context.Context, id uuid.UUID) error {
	return s.plans.Delete(ctx, id)
}

func (s *Service) ListPlansByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Plan, int, error) {
	return s.plans.ListByClient(ctx, clientID, limit, offset)
}

func (s *Service) SearchPlans(ctx context.Context, params map[string]string, limit, offset int) ([]*Plan, int, error) {
	return s.plans.Search(ctx, params, limit, offset)
}

// -- Goal --

func (s *Service) validateGoal(g *Goal) error {
	if g.PlanID == uuid.Nil {
		return fmt.Errorf("plan_id is required")
	}
	if g.Description == "" {
		return fmt.Errorf("description is required")
	}
	if g.Status == "" {
		g.Status = GoalStatusNotStarted
	}
	if !validGoalStatuses[g.Status] {
		return fmt.Errorf("invalid goal status: %s", g.Status)
	}
	if g.Progress < 0 || g.Progress > 100 {
		return fmt.Errorf("progress must be between 0 and 100")
	}
	return nil
}

func (s *Service) AddGoal(ctx context.Context, g *Goal) error {
	if err := s.validateGoal(g); err != nil {
		return err
	}
	if _, err := s.plans.GetByID(ctx, g.PlanID); err != nil {
		return fmt.Errorf("plan not found")
	}
	return s.goals.Create(ctx, g)
}

// UpdateGoalProgress records progress toward a goal. Reaching 100 marks the
// goal achieved and stamps the achievement time.
func (s *Service) UpdateGoalProgress(ctx context.Context, id uuid.UUID, progress int) (*Goal, error) {
	if progress < 0 || progress > 100 {
		return nil, fmt.Errorf("progress must be between 0 and 100")
	}
	g, err := s.goals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.Status == GoalStatusAbandoned {
		return nil, fmt.Errorf("cannot update progress on an abandoned goal")
	}
	g.Progress = progress
	if progress == 100 {
		g.Status = GoalStatusAchieved
		now := s.now()
		g.AchievedAt = &now
	} else if progress > 0 {
		g.Status = GoalStatusInProgress
	}
	if err := s.goals.Update(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) UpdateGoal(ctx context.Context, g *Goal) error {
	if err := s.validateGoal(g); err != nil {
		return err
	}
	return s.goals.Update(ctx, g)
}

func (s *Service) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	return s.goals.Delete(ctx, id)
}
