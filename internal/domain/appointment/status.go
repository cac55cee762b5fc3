package appointment

import "github.com/clinicore/clinicore/internal/apperr"

// transitions is the allowed state machine. COMPLETED has no outgoing
// edges. CANCELLED reaches an active state only through Restore, which is
// not a plain transition because it also flips the active flag.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusNoShow:    {},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies the state machine to a. Cancelling records reason,
// defaulting when the caller gives none; any move away from CANCELLED
// clears it. Cancelling an already cancelled appointment is a no-op so the
// default reason is never applied twice.
func (a *Appointment) Transition(to Status, reason string) error {
	if a.Status == StatusCompleted {
		return apperr.NewValidation("status", "completed appointments cannot change state")
	}
	if a.Status == to {
		if to == StatusCancelled {
			return nil
		}
		return apperr.NewValidation("status", "appointment is already %s", to)
	}
	if !CanTransition(a.Status, to) {
		return apperr.NewValidation("status", "cannot move appointment from %s to %s", a.Status, to)
	}
	a.Status = to
	if to == StatusCancelled {
		if reason == "" {
			reason = DefaultCancelReason
		}
		a.CancelReason = reason
	} else {
		a.CancelReason = ""
	}
	return nil
}

// Deactivate soft-deletes the appointment. Unless the workflow already
// ended in COMPLETED or CANCELLED, the status is forced to CANCELLED with a
// system reason so status and visibility never disagree.
func (a *Appointment) Deactivate() {
	a.Active = false
	if a.Status != StatusCompleted && a.Status != StatusCancelled {
		a.Status = StatusCancelled
		a.CancelReason = SystemCancelReason
	}
}

// Reactivate restores a soft-deleted or cancelled appointment into the
// given active state. Only PENDING and CONFIRMED are valid targets.
func (a *Appointment) Reactivate(to Status) error {
	if a.Status == StatusCompleted {
		return apperr.NewValidation("status", "completed appointments cannot change state")
	}
	if to != StatusPending && to != StatusConfirmed {
		return apperr.NewValidation("status", "appointments restore to PENDING or CONFIRMED, not %s", to)
	}
	a.Active = true
	a.Status = to
	a.CancelReason = ""
	return nil
}

// Rate records a patient rating. Ratings apply to completed visits only.
func (a *Appointment) Rate(rating int, comment string) error {
	if a.Status != StatusCompleted {
		return apperr.NewValidation("rating", "only completed appointments can be rated")
	}
	if rating < 1 || rating > 5 {
		return apperr.NewValidation("rating", "rating must be between 1 and 5")
	}
	a.Rating = &rating
	a.Comment = comment
	return nil
}
