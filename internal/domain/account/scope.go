package account

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

type scopeKey struct{}

// WithScope returns a context carrying the resolved scope.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFromContext returns the caller's resolved scope. The zero Scope is
// returned when resolution never ran or matched nothing; scoped queries
// against it return empty results.
func ScopeFromContext(ctx context.Context) Scope {
	scope, _ := ctx.Value(scopeKey{}).(Scope)
	return scope
}

// ScopeMiddleware resolves the authenticated caller's email to a tenant
// scope and stores it on the request context. Resolution failures leave the
// zero scope in place rather than aborting the request: downstream queries
// then see an empty tenant, which leaks nothing.
func ScopeMiddleware(svc *Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			scope, err := svc.Resolve(ctx, auth.EmailFromContext(ctx))
			if err != nil {
				scope = Scope{}
			}
			c.SetRequest(c.Request().WithContext(WithScope(ctx, scope)))
			return next(c)
		}
	}
}
