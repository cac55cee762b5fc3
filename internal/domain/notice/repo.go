package notice

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, n *Notice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Notice, error)
	Update(ctx context.Context, n *Notice) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Notice, int, error)
	// ListForAccount returns the account's inbox: notices targeted at it
	// plus group-wide broadcasts, newest first.
	ListForAccount(ctx context.Context, groupID, accountID uuid.UUID, limit, offset int) ([]*Notice, int, error)
}
