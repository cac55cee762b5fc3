package appointment

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/apperr"
)

// Status is the appointment workflow state. The active flag is a separate
// axis: status tracks workflow, active tracks physical visibility.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
)

// Statuses lists every workflow state, for the states endpoint.
func Statuses() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow}
}

// ParseStatus accepts any casing.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Statuses() {
		if st == known {
			return st, nil
		}
	}
	return "", apperr.NewValidation("status", "unknown status: %s", s)
}

// SystemCancelReason is recorded when the system cancels an appointment on
// the caller's behalf, for example during soft delete.
const SystemCancelReason = "Cancelado por el sistema"

// DefaultCancelReason is recorded when a caller cancels without stating why.
const DefaultCancelReason = "Sin motivo especificado"

// Date is a calendar date with no time component. It marshals as
// YYYY-MM-DD and maps to a SQL date column.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, apperr.NewValidation("date", "date must be YYYY-MM-DD, got %q", s)
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(time.DateOnly) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = Date{v}
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d Date) Value() (driver.Value, error) { return d.Time, nil }

// Appointment is one booked slot. GroupID and PractitionerID are
// denormalized from the block at creation time so tenant and collision
// queries never need a join.
type Appointment struct {
	ID             uuid.UUID `db:"id" json:"id"`
	GroupID        uuid.UUID `db:"group_id" json:"group_id"`
	BlockID        uuid.UUID `db:"block_id" json:"block_id"`
	PractitionerID uuid.UUID `db:"practitioner_id" json:"practitioner_id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	Date           Date      `db:"date" json:"date"`
	StartMinutes   int       `db:"start_minutes" json:"start_minutes"`
	EndMinutes     int       `db:"end_minutes" json:"end_minutes"`
	Status         Status    `db:"status" json:"status"`
	CancelReason   string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	Rating         *int      `db:"rating" json:"rating,omitempty"`
	Comment        string    `db:"comment" json:"comment,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TenantID implements account.TenantScoped.
func (a *Appointment) TenantID() uuid.UUID { return a.GroupID }

// CountsAgainstSlot reports whether the appointment consumes capacity and
// blocks its start time. Cancelled or soft-deleted appointments free their
// slot.
func (a *Appointment) CountsAgainstSlot() bool {
	return a.Active && a.Status != StatusCancelled
}
