package treatment

import (
	"context"

	"github.com/google/uuid"
)

// PlanRepository provides persistence for treatment plans.
type PlanRepository interface {
	Create(ctx context.Context, p *Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	Update(ctx context.Context, p *Plan) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Plan, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Plan, int, error)
}

// GoalRepository provides persistence for treatment goals.
type GoalRepository interface {
	Create(ctx context.Context, g *Goal) error
	GetByID(ctx context.Context, id uuid.UUID) (*Goal, error)
	Update(ctx context.Context, g *Goal) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]*Goal, error)
}
