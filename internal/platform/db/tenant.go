package db

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	GroupIDKey contextKey = "group_id"
	DBConnKey  contextKey = "db_conn"
)

var groupIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// GroupMiddleware resolves the caller's clinic group and pins the request to
// that group's schema. Every repository query issued during the request runs
// against tenant_<group> through the connection stored in context.
func GroupMiddleware(pool *pgxpool.Pool, defaultGroup string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			groupID := extractGroupID(c, defaultGroup)

			if !groupIDPattern.MatchString(groupID) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid group identifier")
			}

			ctx := c.Request().Context()
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			schema := fmt.Sprintf("tenant_%s", groupID)
			_, err = conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s, shared, public", schema))
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "group resolution failed")
			}

			ctx = context.WithValue(ctx, GroupIDKey, groupID)
			ctx = context.WithValue(ctx, DBConnKey, conn)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("group_id", groupID)

			return next(c)
		}
	}
}

func extractGroupID(c echo.Context, defaultGroup string) string {
	// 1. JWT claim (set by auth middleware)
	if gid, ok := c.Get("jwt_group_id").(string); ok && gid != "" {
		return gid
	}

	// 2. X-Group-ID header
	if gid := c.Request().Header.Get("X-Group-ID"); gid != "" {
		return gid
	}

	// 3. Query parameter
	if gid := c.QueryParam("group_id"); gid != "" {
		return gid
	}

	return defaultGroup
}

// ConnFromContext retrieves the group-scoped database connection from context.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// GroupFromContext retrieves the group schema identifier from context.
func GroupFromContext(ctx context.Context) string {
	gid, _ := ctx.Value(GroupIDKey).(string)
	return gid
}

// CreateGroupSchema creates a new schema for a clinic group and runs all
// migrations against it. If migrationsDir is empty, migrations are skipped.
func CreateGroupSchema(ctx context.Context, pool *pgxpool.Pool, groupID string, migrationsDir string) error {
	if !groupIDPattern.MatchString(groupID) {
		return fmt.Errorf("invalid group identifier: %s", groupID)
	}

	schema := fmt.Sprintf("tenant_%s", groupID)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema))
	if err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}

	if migrationsDir != "" {
		migrator := NewMigrator(pool, migrationsDir)
		if _, err := migrator.Up(ctx, schema); err != nil {
			return fmt.Errorf("run migrations for %s: %w", schema, err)
		}
	}

	return nil
}
