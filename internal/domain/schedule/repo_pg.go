package schedule

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

const blockCols = `id, group_id, practitioner_id, weekday, start_minutes, end_minutes,
	slot_minutes, max_appointments, active, created_at, updated_at`

func scanBlock(row pgx.Row) (*ScheduleBlock, error) {
	var b ScheduleBlock
	err := row.Scan(&b.ID, &b.GroupID, &b.PractitionerID, &b.Weekday, &b.StartMinutes,
		&b.EndMinutes, &b.SlotMinutes, &b.MaxAppointments, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("schedule block", "")
	}
	return &b, err
}

func (r *repoPG) Create(ctx context.Context, b *ScheduleBlock) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO schedule_blocks (id, group_id, practitioner_id, weekday, start_minutes,
			end_minutes, slot_minutes, max_appointments, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.GroupID, b.PractitionerID, b.Weekday, b.StartMinutes,
		b.EndMinutes, b.SlotMinutes, b.MaxAppointments, b.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*ScheduleBlock, error) {
	return scanBlock(r.conn(ctx).QueryRow(ctx,
		`SELECT `+blockCols+` FROM schedule_blocks WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, b *ScheduleBlock) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE schedule_blocks SET weekday=$2, start_minutes=$3, end_minutes=$4,
			slot_minutes=$5, max_appointments=$6, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.Weekday, b.StartMinutes, b.EndMinutes, b.SlotMinutes, b.MaxAppointments)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE schedule_blocks SET active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("schedule block", id.String())
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, groupID uuid.UUID, active bool, limit, offset int) ([]*ScheduleBlock, int, error) {
	if groupID == uuid.Nil {
		return nil, 0, nil
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM schedule_blocks WHERE group_id = $1 AND active = $2`,
		groupID, active).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+blockCols+` FROM schedule_blocks
		WHERE group_id = $1 AND active = $2
		ORDER BY practitioner_id, weekday, start_minutes LIMIT $3 OFFSET $4`,
		groupID, active, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectBlocks(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListByPractitioner(ctx context.Context, practitionerID uuid.UUID, active bool) ([]*ScheduleBlock, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+blockCols+` FROM schedule_blocks
		WHERE practitioner_id = $1 AND active = $2
		ORDER BY weekday, start_minutes`,
		practitionerID, active)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBlocks(rows)
}

func (r *repoPG) ListByPractitionerWeekday(ctx context.Context, practitionerID uuid.UUID, weekday Weekday) ([]*ScheduleBlock, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+blockCols+` FROM schedule_blocks
		WHERE practitioner_id = $1 AND weekday = $2 AND active = TRUE
		ORDER BY start_minutes`,
		practitionerID, weekday)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBlocks(rows)
}

func collectBlocks(rows pgx.Rows) ([]*ScheduleBlock, error) {
	var items []*ScheduleBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}
