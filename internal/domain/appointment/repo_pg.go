package appointment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

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

const apptCols = `id, group_id, block_id, practitioner_id, patient_id, date, start_minutes, end_minutes, status, cancel_reason, rating, comment, active, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.GroupID, &a.BlockID, &a.PractitionerID, &a.PatientID,
		&a.Date, &a.StartMinutes, &a.EndMinutes, &a.Status, &a.CancelReason,
		&a.Rating, &a.Comment, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("appointment", "")
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, group_id, block_id, practitioner_id, patient_id, date, start_minutes, end_minutes, status, cancel_reason, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		a.ID, a.GroupID, a.BlockID, a.PractitionerID, a.PatientID, a.Date,
		a.StartMinutes, a.EndMinutes, a.Status, a.CancelReason, a.Active).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments
		SET block_id=$2, practitioner_id=$3, date=$4, start_minutes=$5, end_minutes=$6,
		    status=$7, cancel_reason=$8, rating=$9, comment=$10, active=$11, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.BlockID, a.PractitionerID, a.Date, a.StartMinutes, a.EndMinutes,
		a.Status, a.CancelReason, a.Rating, a.Comment, a.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("appointment", a.ID.String())
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, groupID uuid.UUID, f Filter, limit, offset int) ([]*Appointment, int, error) {
	if groupID == uuid.Nil {
		return nil, 0, nil
	}
	where := `WHERE group_id = $1 AND active = $2`
	args := []interface{}{groupID, f.Active}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where += fmt.Sprintf(" AND %s = $%d", clause, len(args))
	}
	if f.PractitionerID != nil {
		add("practitioner_id", *f.PractitionerID)
	}
	if f.PatientID != nil {
		add("patient_id", *f.PatientID)
	}
	if f.BlockID != nil {
		add("block_id", *f.BlockID)
	}
	if f.Status != nil {
		add("status", *f.Status)
	}
	if f.Date != nil {
		add("date", *f.Date)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + apptCols + ` FROM appointments ` + where +
		` ORDER BY date DESC, start_minutes LIMIT $` + strconv.Itoa(len(args)+1) +
		` OFFSET $` + strconv.Itoa(len(args)+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectAppointments(rows)
	return items, total, err
}

func (r *repoPG) ListForDate(ctx context.Context, practitionerID uuid.UUID, date Date) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE practitioner_id = $1 AND date = $2 AND active
		ORDER BY start_minutes`,
		practitionerID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]*Appointment, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// PGBooker serializes bookings with a transaction-scoped advisory lock, so
// two requests for the same practitioner and date never interleave between
// validation and insert. Serialization failures surface as a retryable
// conflict.
type PGBooker struct{ pool *pgxpool.Pool }

func NewPGBooker(pool *pgxpool.Pool) *PGBooker { return &PGBooker{pool: pool} }

func (b *PGBooker) Book(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	err := db.InTx(ctx, b.pool, func(txCtx context.Context, tx pgx.Tx) error {
		if err := db.AdvisoryLock(txCtx, tx, key); err != nil {
			return err
		}
		return fn(txCtx)
	})
	if db.IsSerializationFailure(err) {
		return apperr.NewConflict("booking lost a concurrent update, retry with fresh data")
	}
	return err
}

// BookingKey names the advisory lock for one practitioner's calendar day.
func BookingKey(practitionerID uuid.UUID, date Date) string {
	return "appointments:" + practitionerID.String() + ":" + date.Format(time.DateOnly)
}
