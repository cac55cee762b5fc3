package appointment

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/apperr"
	"github.com/clinicore/clinicore/internal/domain/account"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	all := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleReception, auth.RolePractitioner, auth.RolePatient))
	all.GET("/appointments", h.List)
	all.GET("/appointments/states", h.States)
	all.GET("/appointments/:id", h.Get)
	all.GET("/schedule-blocks/:id/slots", h.Slots)
	all.POST("/appointments", h.Create)
	all.POST("/appointments/:id/cancel", h.Cancel)
	all.POST("/appointments/:id/rating", h.RateAppointment)

	staff := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleReception, auth.RolePractitioner))
	staff.PUT("/appointments/:id", h.Reschedule)
	staff.POST("/appointments/:id/status", h.SetStatus)
	staff.POST("/appointments/:id/restore", h.Restore)
	staff.DELETE("/appointments/:id", h.Deactivate)
}

func httpError(err error) error {
	return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
}

// apptResponse carries the appointment plus a warning when a post-commit
// adapter (audit, push) failed while the booking itself succeeded.
type apptResponse struct {
	*Appointment
	Warning string `json:"warning,omitempty"`
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	a, warning, err := h.svc.Create(ctx, account.ScopeFromContext(ctx), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, apptResponse{Appointment: a, Warning: warning})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	a, err := h.svc.Get(ctx, account.ScopeFromContext(ctx), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	f := Filter{Active: true}
	if v := c.QueryParam("practitioner_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid practitioner_id")
		}
		f.PractitionerID = &id
	}
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		f.PatientID = &id
	}
	if v := c.QueryParam("status"); v != "" {
		st, err := ParseStatus(v)
		if err != nil {
			return httpError(err)
		}
		f.Status = &st
	}
	if v := c.QueryParam("date"); v != "" {
		d, err := ParseDate(v)
		if err != nil {
			return httpError(err)
		}
		f.Date = &d
	}
	if c.QueryParam("deleted") == "true" {
		f.Active = false
	}

	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.List(ctx, account.ScopeFromContext(ctx), f, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) States(c echo.Context) error {
	return c.JSON(http.StatusOK, Statuses())
}

func (h *Handler) Slots(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	date, err := ParseDate(c.QueryParam("date"))
	if err != nil {
		return httpError(err)
	}
	ctx := c.Request().Context()
	slots, err := h.svc.Slots(ctx, account.ScopeFromContext(ctx), id, date)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, slots)
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	a, warning, err := h.svc.Reschedule(ctx, account.ScopeFromContext(ctx), id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, apptResponse{Appointment: a, Warning: warning})
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st, err := ParseStatus(req.Status)
	if err != nil {
		return httpError(err)
	}
	ctx := c.Request().Context()
	a, warning, err := h.svc.SetStatus(ctx, account.ScopeFromContext(ctx), id, st, req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, apptResponse{Appointment: a, Warning: warning})
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	a, warning, err := h.svc.Cancel(ctx, account.ScopeFromContext(ctx), id, req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, apptResponse{Appointment: a, Warning: warning})
}

func (h *Handler) Restore(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	to := StatusPending
	if req.Status != "" {
		st, err := ParseStatus(req.Status)
		if err != nil {
			return httpError(err)
		}
		to = st
	}
	ctx := c.Request().Context()
	a, warning, err := h.svc.Restore(ctx, account.ScopeFromContext(ctx), id, to)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, apptResponse{Appointment: a, Warning: warning})
}

func (h *Handler) Deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	warning, err := h.svc.Deactivate(ctx, account.ScopeFromContext(ctx), id)
	if err != nil {
		return httpError(err)
	}
	if warning != "" {
		return c.JSON(http.StatusOK, map[string]string{"warning": warning})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RateAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	a, err := h.svc.Rate(ctx, account.ScopeFromContext(ctx), id, req.Rating, req.Comment)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}
