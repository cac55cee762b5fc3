package billing

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// Plans and subscriptions live in the shared schema: billing spans groups.

type planRepoPG struct{ pool *pgxpool.Pool }

func NewPlanRepoPG(pool *pgxpool.Pool) PlanRepository { return &planRepoPG{pool: pool} }

const planCols = `id, code, name, price_cents, currency, max_practitioners, active, created_at`

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.PriceCents, &p.Currency,
		&p.MaxPractitioners, &p.Active, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("plan", "")
	}
	return &p, err
}

func (r *planRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return scanPlan(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+planCols+` FROM shared.plans WHERE id = $1`, id))
}

func (r *planRepoPG) List(ctx context.Context) ([]*Plan, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+planCols+` FROM shared.plans WHERE active ORDER BY price_cents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

type subRepoPG struct{ pool *pgxpool.Pool }

func NewSubscriptionRepoPG(pool *pgxpool.Pool) SubscriptionRepository { return &subRepoPG{pool: pool} }

const subCols = `id, group_id, plan_id, status, current_period_end, created_at, updated_at`

func (r *subRepoPG) Upsert(ctx context.Context, s *Subscription) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO shared.subscriptions (id, group_id, plan_id, status, current_period_end)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_id) DO UPDATE
		SET plan_id = EXCLUDED.plan_id, status = EXCLUDED.status,
		    current_period_end = EXCLUDED.current_period_end, updated_at = NOW()`,
		s.ID, s.GroupID, s.PlanID, s.Status, s.CurrentPeriodEnd)
	return err
}

func (r *subRepoPG) GetByGroup(ctx context.Context, groupID uuid.UUID) (*Subscription, error) {
	var s Subscription
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+subCols+` FROM shared.subscriptions WHERE group_id = $1`, groupID).
		Scan(&s.ID, &s.GroupID, &s.PlanID, &s.Status, &s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("subscription", groupID.String())
	}
	return &s, err
}
