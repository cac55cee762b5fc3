// Package audit records who did what to which resource. Writes are
// best-effort: a failed audit insert must never fail the operation that
// triggered it, so callers log sink errors and move on.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/db"
)

// Entry is a single audit record.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	GroupID    string    `json:"group_id"`
	ActorID    string    `json:"actor_id"`
	ActorEmail string    `json:"actor_email,omitempty"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Sink persists audit entries.
type Sink interface {
	Record(ctx context.Context, e Entry) error
}

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PGSink writes audit entries to the shared.audit_log table so they survive
// across tenant schemas.
type PGSink struct {
	pool *pgxpool.Pool
}

func NewPGSink(pool *pgxpool.Pool) *PGSink {
	return &PGSink{pool: pool}
}

func (s *PGSink) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return s.pool
}

func (s *PGSink) Record(ctx context.Context, e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO shared.audit_log (id, group_id, actor_id, actor_email, action, resource, resource_id, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.GroupID, e.ActorID, e.ActorEmail, e.Action, e.Resource, e.ResourceID, e.Detail, e.OccurredAt)
	return err
}

// List returns the most recent entries for a group, newest first.
func (s *PGSink) List(ctx context.Context, groupID string, limit, offset int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT id, group_id, actor_id, actor_email, action, resource, resource_id, detail, occurred_at
		FROM shared.audit_log
		WHERE group_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2 OFFSET $3`, groupID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.GroupID, &e.ActorID, &e.ActorEmail, &e.Action,
			&e.Resource, &e.ResourceID, &e.Detail, &e.OccurredAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// LogSink writes audit entries to the structured log. It is the fallback
// when no database pool is available (tests, dev tooling).
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(_ context.Context, e Entry) error {
	s.logger.Info().
		Str("group_id", e.GroupID).
		Str("actor_id", e.ActorID).
		Str("action", e.Action).
		Str("resource", e.Resource).
		Str("resource_id", e.ResourceID).
		Str("detail", e.Detail).
		Msg("audit")
	return nil
}
