package client

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*Client, error)
	Update(ctx context.Context, c *Client) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTherapist(ctx context.Context, therapistID uuid.UUID, limit, offset int) ([]*Client, int, error)
	ListActiveByTherapists(ctx context.Context, therapistIDs []uuid.UUID) ([]*Client, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Client, int, error)
	CountByTherapist(ctx context.Context, therapistID uuid.UUID) (int, error)
}
