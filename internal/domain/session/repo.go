package session

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Session, int, error)
	ListByClients(ctx context.Context, clientIDs []uuid.UUID) (map[uuid.UUID][]Session, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Session, int, error)
}
