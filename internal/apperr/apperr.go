// Package apperr defines the error taxonomy shared by all domain services:
// validation errors (client-fixable), not-found errors (including tenant
// scope violations, which are deliberately indistinguishable from a missing
// row), conflict errors (lost concurrency races, retryable), and adapter
// errors (non-fatal failures of external collaborators).
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Validation is a client-fixable input error scoped to a single field.
type Validation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Validation) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidation builds a field-scoped validation error.
func NewValidation(field, format string, args ...interface{}) *Validation {
	return &Validation{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports that a referenced record does not exist or is outside the
// caller's tenant scope. Scope violations use this type on purpose so that
// existence of records in other tenants never leaks.
type NotFound struct {
	Resource string `json:"resource"`
	ID       string `json:"id,omitempty"`
}

func (e *NotFound) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NewNotFound builds a not-found error for the given resource.
func NewNotFound(resource, id string) *NotFound {
	return &NotFound{Resource: resource, ID: id}
}

// Conflict reports that a transaction lost a concurrency race: a competing
// write changed capacity or collision state between validation and commit.
// Callers may safely retry the whole operation.
type Conflict struct {
	Message string `json:"message"`
}

func (e *Conflict) Error() string { return e.Message }

// NewConflict builds a retryable conflict error.
func NewConflict(format string, args ...interface{}) *Conflict {
	return &Conflict{Message: fmt.Sprintf(format, args...)}
}

// Adapter wraps a failure of an external collaborator (audit, push, payment).
// It is never returned as the primary error of an operation that succeeded;
// handlers surface it as a secondary warning instead.
type Adapter struct {
	Op  string
	Err error
}

func (e *Adapter) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *Adapter) Unwrap() error { return e.Err }

// NewAdapter wraps err as a non-fatal adapter failure.
func NewAdapter(op string, err error) *Adapter {
	return &Adapter{Op: op, Err: err}
}

// IsValidation reports whether err is (or wraps) a validation error.
func IsValidation(err error) bool {
	var v *Validation
	return errors.As(err, &v)
}

// IsNotFound reports whether err is (or wraps) a not-found error.
func IsNotFound(err error) bool {
	var nf *NotFound
	return errors.As(err, &nf)
}

// IsConflict reports whether err is (or wraps) a conflict error.
func IsConflict(err error) bool {
	var c *Conflict
	return errors.As(err, &c)
}

// HTTPStatus maps a domain error to its HTTP status code. Unknown errors
// map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
