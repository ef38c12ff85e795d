package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Decision is the outcome of an authorization check.
type Decision string

const (
	DecisionAllow           Decision = "allow"
	DecisionDeny            Decision = "deny"
	DecisionNotFound        Decision = "not_found"
	DecisionUnauthenticated Decision = "unauthenticated"
)

// Authorize applies the owner-or-admin rule. A missing identity is
// unauthenticated regardless of the resource, and a missing resource is
// reported as not found rather than denied so callers can answer 404 without
// leaking whether the resource exists. The owner comparison is string-exact.
func Authorize(ident *Identity, ownerID string, found bool) Decision {
	if ident == nil || ident.ID == "" {
		return DecisionUnauthenticated
	}
	if !found {
		return DecisionNotFound
	}
	if ident.ID == ownerID || ident.IsAdmin() {
		return DecisionAllow
	}
	return DecisionDeny
}

// OwnerResolver looks up the owning identity of a resource. It reports
// found=false (not an error) when the resource does not exist.
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, resourceID int64) (ownerID string, found bool, err error)
}

// OwnerResolverFunc adapts a function to the OwnerResolver interface.
type OwnerResolverFunc func(ctx context.Context, resourceID int64) (string, bool, error)

func (f OwnerResolverFunc) ResolveOwner(ctx context.Context, resourceID int64) (string, bool, error) {
	return f(ctx, resourceID)
}

// ParseResourceID validates that a raw path parameter is a positive integer
// id. Resolvers are only ever called with ids that passed this check.
func ParseResourceID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("resource id must be a positive integer, got %q", raw)
	}
	return id, nil
}

// RequireOwnerOrAdmin returns middleware guarding routes with an :id path
// parameter. It validates the id, resolves the resource owner, applies
// Authorize, and emits one structured audit record per decision. The gate
// always completes before the wrapped handler runs, so no mutating operation
// can start on a request that was not allowed.
func RequireOwnerOrAdmin(logger zerolog.Logger, resolver OwnerResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := IdentityFromContext(c.Request().Context())
			if ident == nil || ident.ID == "" {
				audit(logger.Warn(), c, ident, "", DecisionUnauthenticated)
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			id, err := ParseResourceID(c.Param("id"))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
			}

			ownerID, found, err := resolver.ResolveOwner(c.Request().Context(), id)
			if err != nil {
				logger.Error().
					Str("path", c.Path()).
					Str("method", c.Request().Method).
					Str("user_id", ident.ID).
					Err(err).
					Msg("authorization owner lookup failed")
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}

			switch decision := Authorize(ident, ownerID, found); decision {
			case DecisionNotFound:
				audit(logger.Info(), c, ident, "", decision)
				return echo.NewHTTPError(http.StatusNotFound, "resource not found")
			case DecisionDeny:
				audit(logger.Warn(), c, ident, ownerID, decision)
				return echo.NewHTTPError(http.StatusForbidden, "not authorized")
			case DecisionAllow:
				audit(logger.Info(), c, ident, ownerID, decision)
				return next(c)
			default:
				audit(logger.Warn(), c, ident, ownerID, decision)
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
		}
	}
}

// audit emits one structured record per authorization decision. Card data
// never reaches this path; only identity and routing fields are logged.
func audit(evt *zerolog.Event, c echo.Context, ident *Identity, ownerID string, decision Decision) {
	userID, role := "", ""
	if ident != nil {
		userID, role = ident.ID, ident.Role
	}
	evt.
		Str("path", c.Request().URL.Path).
		Str("method", c.Request().Method).
		Str("user_id", userID).
		Str("resource_owner_id", ownerID).
		Str("role", role).
		Str("decision", string(decision)).
		Str("remote_ip", c.RealIP()).
		Msg("authorization decision")
}
