package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MinBlockMinutes is the smallest allowed block span.
const MinBlockMinutes = 30

// ScheduleBlock is a recurring weekly availability window for one
// practitioner. Start and End are minutes from midnight; the bookable grid
// starts at Start and advances in SlotMinutes steps.
type ScheduleBlock struct {
	ID              uuid.UUID `db:"id" json:"id"`
	GroupID         uuid.UUID `db:"group_id" json:"group_id"`
	PractitionerID  uuid.UUID `db:"practitioner_id" json:"practitioner_id"`
	Weekday         Weekday   `db:"weekday" json:"weekday"`
	StartMinutes    int       `db:"start_minutes" json:"start_minutes"`
	EndMinutes      int       `db:"end_minutes" json:"end_minutes"`
	SlotMinutes     int       `db:"slot_minutes" json:"slot_minutes"`
	MaxAppointments int       `db:"max_appointments" json:"max_appointments"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`

	// Derived on reads, never stored.
	CanModify  bool   `db:"-" json:"can_modify"`
	LockReason string `db:"-" json:"lock_reason,omitempty"`
}

// TenantID implements account.TenantScoped.
func (b *ScheduleBlock) TenantID() uuid.UUID { return b.GroupID }

// DurationMinutes is the block span in minutes.
func (b *ScheduleBlock) DurationMinutes() int { return b.EndMinutes - b.StartMinutes }

// CapacityCeiling is the largest MaxAppointments the grid supports:
// floor(span / slot).
func (b *ScheduleBlock) CapacityCeiling() int {
	if b.SlotMinutes <= 0 {
		return 0
	}
	return b.DurationMinutes() / b.SlotMinutes
}

// SlotStarts returns every bookable start time on the block's grid, in
// minutes from midnight. Slots are half-open: a start is on the grid only
// when the full slot fits before End.
func (b *ScheduleBlock) SlotStarts() []int {
	if b.SlotMinutes <= 0 {
		return nil
	}
	var starts []int
	for s := b.StartMinutes; s+b.SlotMinutes <= b.EndMinutes; s += b.SlotMinutes {
		starts = append(starts, s)
	}
	return starts
}

// OnGrid reports whether startMinutes is a legal slot start for the block.
func (b *ScheduleBlock) OnGrid(startMinutes int) bool {
	if startMinutes < b.StartMinutes || startMinutes >= b.EndMinutes {
		return false
	}
	if b.SlotMinutes <= 0 {
		return false
	}
	return (startMinutes-b.StartMinutes)%b.SlotMinutes == 0
}

// Overlaps reports whether the [Start,End) intervals of two blocks
// intersect. Weekday and practitioner equality are the caller's concern.
func (b *ScheduleBlock) Overlaps(other *ScheduleBlock) bool {
	return b.StartMinutes < other.EndMinutes && b.EndMinutes > other.StartMinutes
}

// Slot is one bookable position on a block's grid for a concrete date.
type Slot struct {
	StartMinutes int    `json:"start_minutes"`
	EndMinutes   int    `json:"end_minutes"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Available    bool   `json:"available"`
}

// Slots expands the block grid for one date. takenStarts holds the start
// minutes of existing non-cancelled active appointments; booked is their
// total count (capacity is consumed per block and date, not per slot).
// A block with MaxAppointments zero is closed: every slot reports
// unavailable, matching the booking validation.
func (b *ScheduleBlock) Slots(takenStarts map[int]bool, booked int) []Slot {
	full := booked >= b.MaxAppointments
	var out []Slot
	for _, s := range b.SlotStarts() {
		out = append(out, Slot{
			StartMinutes: s,
			EndMinutes:   s + b.SlotMinutes,
			Start:        Clock(s),
			End:          Clock(s + b.SlotMinutes),
			Available:    !full && !takenStarts[s],
		})
	}
	return out
}

// Clock formats minutes from midnight as HH:MM for error messages and
// responses.
func Clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
