package billing

import (
	"net/http"

	"github.com/google/uuid"
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
	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/billing/plans", h.ListPlans)
	admin.GET("/billing/subscription", h.MySubscription)
	admin.POST("/billing/subscription", h.Subscribe)
	admin.POST("/billing/payment-intents", h.CreateIntent)
}

func httpError(err error) error {
	return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
}

func (h *Handler) ListPlans(c echo.Context) error {
	plans, err := h.svc.ListPlans(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, plans)
}

func (h *Handler) MySubscription(c echo.Context) error {
	ctx := c.Request().Context()
	sub, err := h.svc.MySubscription(ctx, account.ScopeFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) Subscribe(c echo.Context) error {
	var req struct {
		PlanID uuid.UUID `json:"plan_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	sub, intent, err := h.svc.Subscribe(ctx, account.ScopeFromContext(ctx), req.PlanID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"subscription":   sub,
		"payment_intent": intent,
	})
}

func (h *Handler) CreateIntent(c echo.Context) error {
	var req struct {
		AmountCents int64  `json:"amount_cents"`
		Currency    string `json:"currency"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	intent, err := h.svc.CreateIntent(ctx, account.ScopeFromContext(ctx), req.AmountCents, req.Currency)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, intent)
}
