package account

import (
	"context"
	"errors"
	"strings"

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

// Groups and accounts live in the shared schema: they are the map from
// identities to tenants, so they cannot sit inside any one tenant schema.

// =========== Group Repository ===========

type groupRepoPG struct{ pool *pgxpool.Pool }

func NewGroupRepoPG(pool *pgxpool.Pool) GroupRepository { return &groupRepoPG{pool: pool} }

func (r *groupRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const groupCols = `id, slug, name, active, created_at, updated_at`

func scanGroup(row pgx.Row) (*Group, error) {
	var g Group
	err := row.Scan(&g.ID, &g.Slug, &g.Name, &g.Active, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("group", "")
	}
	return &g, err
}

func (r *groupRepoPG) Create(ctx context.Context, g *Group) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO shared.groups (id, slug, name, active)
		VALUES ($1, $2, $3, $4)`,
		g.ID, g.Slug, g.Name, g.Active)
	return err
}

func (r *groupRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Group, error) {
	return scanGroup(r.conn(ctx).QueryRow(ctx, `SELECT `+groupCols+` FROM shared.groups WHERE id = $1`, id))
}

func (r *groupRepoPG) GetBySlug(ctx context.Context, slug string) (*Group, error) {
	return scanGroup(r.conn(ctx).QueryRow(ctx, `SELECT `+groupCols+` FROM shared.groups WHERE slug = $1`, strings.ToLower(slug)))
}

func (r *groupRepoPG) Update(ctx context.Context, g *Group) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE shared.groups SET name=$2, active=$3, updated_at=NOW() WHERE id = $1`,
		g.ID, g.Name, g.Active)
	return err
}

func (r *groupRepoPG) List(ctx context.Context, limit, offset int) ([]*Group, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM shared.groups`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+groupCols+` FROM shared.groups ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, g)
	}
	return items, total, rows.Err()
}

// =========== Account Repository ===========

type accountRepoPG struct{ pool *pgxpool.Pool }

func NewAccountRepoPG(pool *pgxpool.Pool) AccountRepository { return &accountRepoPG{pool: pool} }

func (r *accountRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const accountCols = `id, email, group_id, role, practitioner_id, active, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Email, &a.GroupID, &a.Role, &a.PractitionerID, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("account", "")
	}
	return &a, err
}

func (r *accountRepoPG) Create(ctx context.Context, a *Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO shared.accounts (id, email, group_id, role, practitioner_id, active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, strings.ToLower(a.Email), a.GroupID, a.Role, a.PractitionerID, a.Active)
	return err
}

func (r *accountRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return scanAccount(r.conn(ctx).QueryRow(ctx, `SELECT `+accountCols+` FROM shared.accounts WHERE id = $1`, id))
}

func (r *accountRepoPG) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return scanAccount(r.conn(ctx).QueryRow(ctx, `SELECT `+accountCols+` FROM shared.accounts WHERE email = $1`, strings.ToLower(email)))
}

func (r *accountRepoPG) Update(ctx context.Context, a *Account) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE shared.accounts SET role=$2, practitioner_id=$3, active=$4, updated_at=NOW() WHERE id = $1`,
		a.ID, a.Role, a.PractitionerID, a.Active)
	return err
}

func (r *accountRepoPG) ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Account, int, error) {
	if groupID == uuid.Nil {
		return nil, 0, nil
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM shared.accounts WHERE group_id = $1`, groupID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+accountCols+` FROM shared.accounts WHERE group_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, groupID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
