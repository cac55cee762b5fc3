package report

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/apperr"
	"github.com/clinicore/clinicore/internal/domain/account"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleReception, auth.RolePractitioner))
	g.GET("/reports/summary", h.Summary)
}

// Summary returns the JSON activity summary for ?from=YYYY-MM-DD&to=YYYY-MM-DD,
// defaulting to the last 30 days.
func (h *Handler) Summary(c echo.Context) error {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	from, to := now.AddDate(0, 0, -30), now
	if v := c.QueryParam("from"); v != "" {
		parsed, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if v := c.QueryParam("to"); v != "" {
		parsed, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "to must be YYYY-MM-DD")
		}
		to = parsed
	}
	ctx := c.Request().Context()
	summary, err := h.svc.Summarize(ctx, account.ScopeFromContext(ctx), from, to)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}
