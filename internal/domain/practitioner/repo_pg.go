package practitioner

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

const practCols = `id, group_id, first_name, last_name, email, phone, active, created_at, updated_at`

func scanPractitioner(row pgx.Row) (*Practitioner, error) {
	var p Practitioner
	err := row.Scan(&p.ID, &p.GroupID, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("practitioner", "")
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Practitioner) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO practitioners (id, group_id, first_name, last_name, email, phone, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.GroupID, p.FirstName, p.LastName, p.Email, p.Phone, p.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	p, err := scanPractitioner(r.conn(ctx).QueryRow(ctx,
		`SELECT `+practCols+` FROM practitioners WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	specs, err := r.specialtiesOf(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Specialties = specs
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Practitioner) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE practitioners SET first_name=$2, last_name=$3, email=$4, phone=$5, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.Email, p.Phone)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE practitioners SET active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("practitioner", id.String())
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, groupID uuid.UUID, active bool, limit, offset int) ([]*Practitioner, int, error) {
	if groupID == uuid.Nil {
		return nil, 0, nil
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM practitioners WHERE group_id = $1 AND active = $2`,
		groupID, active).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+practCols+` FROM practitioners
		WHERE group_id = $1 AND active = $2
		ORDER BY last_name, first_name LIMIT $3 OFFSET $4`,
		groupID, active, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Practitioner
	for rows.Next() {
		p, err := scanPractitioner(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, p := range items {
		specs, err := r.specialtiesOf(ctx, p.ID)
		if err != nil {
			return nil, 0, err
		}
		p.Specialties = specs
	}
	return items, total, nil
}

func (r *repoPG) SetSpecialties(ctx context.Context, practitionerID uuid.UUID, specialtyIDs []uuid.UUID) error {
	conn := r.conn(ctx)
	if _, err := conn.Exec(ctx,
		`DELETE FROM practitioner_specialties WHERE practitioner_id = $1`, practitionerID); err != nil {
		return err
	}
	for _, sid := range specialtyIDs {
		if _, err := conn.Exec(ctx, `
			INSERT INTO practitioner_specialties (practitioner_id, specialty_id)
			VALUES ($1, $2)`, practitionerID, sid); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) specialtiesOf(ctx context.Context, practitionerID uuid.UUID) ([]Specialty, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT s.id, s.name, s.created_at
		FROM shared.specialties s
		JOIN practitioner_specialties ps ON ps.specialty_id = s.id
		WHERE ps.practitioner_id = $1
		ORDER BY s.name`, practitionerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var specs []Specialty
	for rows.Next() {
		var s Specialty
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, rows.Err()
}

// =========== Specialty Repository ===========

type specialtyRepoPG struct{ pool *pgxpool.Pool }

func NewSpecialtyRepoPG(pool *pgxpool.Pool) SpecialtyRepository { return &specialtyRepoPG{pool: pool} }

func (r *specialtyRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *specialtyRepoPG) Create(ctx context.Context, s *Specialty) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO shared.specialties (id, name) VALUES ($1, $2)`, s.ID, s.Name)
	return err
}

func (r *specialtyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	var s Specialty
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, created_at FROM shared.specialties WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("specialty", id.String())
	}
	return &s, err
}

func (r *specialtyRepoPG) List(ctx context.Context) ([]*Specialty, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name, created_at FROM shared.specialties ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Specialty
	for rows.Next() {
		var s Specialty
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}
