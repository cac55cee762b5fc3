package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

func TestIsValidRole(t *testing.T) {
	for _, r := range []Role{RoleSuperAdmin, RoleAdmin, RoleReception, RolePractitioner, RolePatient} {
		if !IsValidRole(string(r)) {
			t.Errorf("%s should be a valid role", r)
		}
	}
	for _, r := range []string{"staff", "root", ""} {
		if IsValidRole(r) {
			t.Errorf("%q should not be a valid role", r)
		}
	}
}

// Every role an account can carry must satisfy a route guard requiring
// that same role, so the two vocabularies stay aligned.
func TestAccountRolesSatisfyRouteGuards(t *testing.T) {
	e := echo.New()
	for _, r := range []Role{RoleSuperAdmin, RoleAdmin, RoleReception, RolePractitioner, RolePatient} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := context.WithValue(req.Context(), auth.UserRolesKey, []string{string(r)})
		c := e.NewContext(req.WithContext(ctx), httptest.NewRecorder())

		passed := false
		h := auth.RequireRole(string(r))(func(c echo.Context) error {
			passed = true
			return nil
		})
		if err := h(c); err != nil {
			t.Errorf("role %s rejected by its own guard: %v", r, err)
		}
		if !passed {
			t.Errorf("role %s did not reach the handler", r)
		}
	}
}
