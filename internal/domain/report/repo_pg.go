package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

func (r *repoPG) AppointmentsPerDay(ctx context.Context, groupID uuid.UUID, practitionerID *uuid.UUID, from, to time.Time) ([]DayCount, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT date, COUNT(*) FROM appointments
		WHERE group_id = $1 AND active AND status <> 'CANCELLED'
		  AND date BETWEEN $2 AND $3
		  AND ($4::uuid IS NULL OR practitioner_id = $4)
		GROUP BY date ORDER BY date`,
		groupID, from, to, practitionerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

func (r *repoPG) AppointmentsByStatus(ctx context.Context, groupID uuid.UUID, practitionerID *uuid.UUID, from, to time.Time) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT status, COUNT(*) FROM appointments
		WHERE group_id = $1 AND active
		  AND date BETWEEN $2 AND $3
		  AND ($4::uuid IS NULL OR practitioner_id = $4)
		GROUP BY status`,
		groupID, from, to, practitionerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

func (r *repoPG) ActivePatients(ctx context.Context, groupID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patients WHERE group_id = $1 AND active`, groupID).Scan(&n)
	return n, err
}

func (r *repoPG) ActivePractitioners(ctx context.Context, groupID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM practitioners WHERE group_id = $1 AND active`, groupID).Scan(&n)
	return n, err
}
