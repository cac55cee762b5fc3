package appointment

import (
	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/apperr"
	"github.com/clinicore/clinicore/internal/domain/schedule"
)

// ValidateSlot decides whether a candidate booking is legal and available.
// existing must hold the practitioner's active appointments for the date
// across ALL blocks, so one practitioner can never be double-booked even
// when two blocks touch the same time of day. Checks run in a fixed order
// and stop at the first failure: structural mismatches (group, weekday,
// range, grid) are reported before scarce-resource conflicts (capacity,
// collision), so a caller fixing inputs sees the most fundamental problem
// first.
func ValidateSlot(block *schedule.ScheduleBlock, patientGroupID uuid.UUID, date Date, startMinutes int, existing []*Appointment) error {
	if patientGroupID != block.GroupID {
		return apperr.NewValidation("patient_id", "patient and practitioner belong to different groups")
	}

	computed := schedule.WeekdayOf(date.Time)
	if computed != block.Weekday {
		return apperr.NewValidation("date", "%s falls on %s but the block is scheduled for %s",
			date, computed, block.Weekday)
	}

	if startMinutes < block.StartMinutes || startMinutes+block.SlotMinutes > block.EndMinutes {
		return apperr.NewValidation("start_minutes", "start time %s is outside the block window %s-%s",
			schedule.Clock(startMinutes), schedule.Clock(block.StartMinutes), schedule.Clock(block.EndMinutes))
	}

	if (startMinutes-block.StartMinutes)%block.SlotMinutes != 0 {
		return apperr.NewValidation("start_minutes", "start time %s is off the %d-minute grid beginning at %s",
			schedule.Clock(startMinutes), block.SlotMinutes, schedule.Clock(block.StartMinutes))
	}

	booked := 0
	for _, other := range existing {
		if other.BlockID == block.ID && other.CountsAgainstSlot() {
			booked++
		}
	}
	if booked >= block.MaxAppointments {
		return apperr.NewValidation("start_minutes", "block has reached its capacity of %d appointments for %s",
			block.MaxAppointments, date)
	}

	for _, other := range existing {
		if other.CountsAgainstSlot() && other.StartMinutes == startMinutes {
			return apperr.NewValidation("start_minutes", "slot %s on %s is already booked",
				schedule.Clock(startMinutes), date)
		}
	}
	return nil
}

// applySlot fills the derived fields of a freshly validated booking.
func (a *Appointment) applySlot(block *schedule.ScheduleBlock, date Date, startMinutes int) {
	a.BlockID = block.ID
	a.GroupID = block.GroupID
	a.PractitionerID = block.PractitionerID
	a.Date = date
	a.StartMinutes = startMinutes
	a.EndMinutes = startMinutes + block.SlotMinutes
	a.Status = StatusPending
	a.Active = true
}
