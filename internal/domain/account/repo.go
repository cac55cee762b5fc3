package account

import (
	"context"

	"github.com/google/uuid"
)

type GroupRepository interface {
	Create(ctx context.Context, g *Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*Group, error)
	GetBySlug(ctx context.Context, slug string) (*Group, error)
	Update(ctx context.Context, g *Group) error
	List(ctx context.Context, limit, offset int) ([]*Group, int, error)
}

type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Update(ctx context.Context, a *Account) error
	ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Account, int, error)
}
