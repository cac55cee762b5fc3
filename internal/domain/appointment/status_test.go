package appointment

import (
	"strings"
	"testing"

	"github.com/clinicore/clinicore/internal/apperr"
)

func TestTransition_AllowedPaths(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusNoShow, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusNoShow, true},
		{StatusConfirmed, StatusPending, false},
		{StatusNoShow, StatusConfirmed, false},
		{StatusCancelled, StatusConfirmed, false},
	}
	for _, tt := range tests {
		a := &Appointment{Status: tt.from, Active: true}
		err := a.Transition(tt.to, "motivo")
		if tt.ok && err != nil {
			t.Errorf("%s->%s: %v", tt.from, tt.to, err)
		}
		if !tt.ok && !apperr.IsValidation(err) {
			t.Errorf("%s->%s should be rejected, got %v", tt.from, tt.to, err)
		}
	}
}

func TestTransition_CompletedIsTerminal(t *testing.T) {
	// Every move away from COMPLETED, including a repeat COMPLETED, gets
	// the same terminal rejection.
	for _, to := range Statuses() {
		a := &Appointment{Status: StatusCompleted, Active: true}
		err := a.Transition(to, "")
		if !apperr.IsValidation(err) {
			t.Errorf("COMPLETED->%s should fail, got %v", to, err)
			continue
		}
		if !strings.Contains(err.Error(), "completed appointments cannot change state") {
			t.Errorf("COMPLETED->%s: got %q", to, err.Error())
		}
		if a.Status != StatusCompleted {
			t.Errorf("status mutated to %s", a.Status)
		}
	}
}

func TestTransition_CancelReasonHandling(t *testing.T) {
	a := &Appointment{Status: StatusPending, Active: true}
	if err := a.Transition(StatusCancelled, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if a.CancelReason != DefaultCancelReason {
		t.Errorf("empty reason should default, got %q", a.CancelReason)
	}

	// Cancelling again is a no-op and never re-applies the default.
	a.CancelReason = "custom"
	if err := a.Transition(StatusCancelled, "otro"); err != nil {
		t.Fatalf("repeat cancel: %v", err)
	}
	if a.CancelReason != "custom" {
		t.Errorf("repeat cancel should not touch the reason, got %q", a.CancelReason)
	}

	// Restore clears it.
	if err := a.Reactivate(StatusPending); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if a.CancelReason != "" || !a.Active || a.Status != StatusPending {
		t.Errorf("restore should clear the reason and reactivate, got %+v", a)
	}
}

func TestDeactivate_ForcesCancelled(t *testing.T) {
	a := &Appointment{Status: StatusConfirmed, Active: true}
	a.Deactivate()
	if a.Active || a.Status != StatusCancelled || a.CancelReason != SystemCancelReason {
		t.Errorf("deactivate should force system cancellation, got %+v", a)
	}

	done := &Appointment{Status: StatusCompleted, Active: true}
	done.Deactivate()
	if done.Active || done.Status != StatusCompleted {
		t.Errorf("deactivating a completed visit must keep COMPLETED, got %+v", done)
	}
	if done.CancelReason != "" {
		t.Errorf("completed visit should carry no cancel reason, got %q", done.CancelReason)
	}
}

func TestRate(t *testing.T) {
	a := &Appointment{Status: StatusConfirmed, Active: true}
	if err := a.Rate(5, "excelente"); !apperr.IsValidation(err) {
		t.Errorf("rating a non-completed visit should fail, got %v", err)
	}

	a.Status = StatusCompleted
	if err := a.Rate(0, ""); !apperr.IsValidation(err) {
		t.Errorf("rating 0 should fail, got %v", err)
	}
	if err := a.Rate(4, "bien"); err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if a.Rating == nil || *a.Rating != 4 || a.Comment != "bien" {
		t.Errorf("rating not recorded: %+v", a)
	}
}
