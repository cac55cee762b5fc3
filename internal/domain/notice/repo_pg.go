package notice

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/apperr"
	"github.com/clinicore/clinicore/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const noticeCols = `id, group_id, title, message, priority, target_account_id, read, push_id, active, created_at, updated_at`

func scanNotice(row pgx.Row) (*Notice, error) {
	var n Notice
	err := row.Scan(&n.ID, &n.GroupID, &n.Title, &n.Message, &n.Priority,
		&n.TargetAccountID, &n.Read, &n.PushID, &n.Active, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("notice", "")
	}
	return &n, err
}

func (r *repoPG) Create(ctx context.Context, n *Notice) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO notices (id, group_id, title, message, priority, target_account_id, read, push_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.GroupID, n.Title, n.Message, n.Priority, n.TargetAccountID, n.Read, n.PushID, n.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Notice, error) {
	return scanNotice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+noticeCols+` FROM notices WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, n *Notice) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE notices SET title=$2, message=$3, priority=$4, read=$5, push_id=$6, updated_at=NOW()
		WHERE id = $1`,
		n.ID, n.Title, n.Message, n.Priority, n.Read, n.PushID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("notice", n.ID.String())
	}
	return nil
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE notices SET active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("notice", id.String())
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Notice, int, error) {
	if groupID == uuid.Nil {
		return nil, 0, nil
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM notices WHERE group_id = $1 AND active`, groupID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+noticeCols+` FROM notices
		WHERE group_id = $1 AND active
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		groupID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectNotices(rows)
	return items, total, err
}

func (r *repoPG) ListForAccount(ctx context.Context, groupID, accountID uuid.UUID, limit, offset int) ([]*Notice, int, error) {
	if groupID == uuid.Nil {
		return nil, 0, nil
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM notices
		WHERE group_id = $1 AND active AND (target_account_id IS NULL OR target_account_id = $2)`,
		groupID, accountID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+noticeCols+` FROM notices
		WHERE group_id = $1 AND active AND (target_account_id IS NULL OR target_account_id = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		groupID, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectNotices(rows)
	return items, total, err
}

func collectNotices(rows pgx.Rows) ([]*Notice, error) {
	var items []*Notice
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}
