package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidation("hora_inicio", "must fall inside the block")
	if err.Error() != "hora_inicio: must fall inside the block" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !IsValidation(err) {
		t.Error("expected IsValidation true")
	}
	if IsConflict(err) || IsNotFound(err) {
		t.Error("validation error matched the wrong predicate")
	}
}

func TestValidationError_NoField(t *testing.T) {
	err := NewValidation("", "malformed payload")
	if err.Error() != "malformed payload" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFound("appointment", "abc")
	if err.Error() != "appointment abc not found" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !IsNotFound(err) {
		t.Error("expected IsNotFound true")
	}
}

func TestConflictError_Wrapped(t *testing.T) {
	inner := NewConflict("slot was taken by a competing booking")
	wrapped := fmt.Errorf("create appointment: %w", inner)
	if !IsConflict(wrapped) {
		t.Error("expected IsConflict to see through wrapping")
	}
}

func TestAdapterError_Unwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := NewAdapter("onesignal notify", cause)
	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{NewValidation("fecha", "bad date"), http.StatusBadRequest},
		{NewNotFound("block", ""), http.StatusNotFound},
		{NewConflict("retry"), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
