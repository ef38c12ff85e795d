package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		ident   *Identity
		ownerID string
		found   bool
		want    Decision
	}{
		{"owner allowed", &Identity{ID: "u1"}, "u1", true, DecisionAllow},
		{"admin allowed", &Identity{ID: "u2", Role: RoleAdmin}, "u1", true, DecisionAllow},
		{"non-owner denied", &Identity{ID: "u2"}, "u1", true, DecisionDeny},
		{"non-admin role denied", &Identity{ID: "u2", Role: "user"}, "u1", true, DecisionDeny},
		{"missing resource", &Identity{ID: "u1"}, "", false, DecisionNotFound},
		{"missing resource beats deny", &Identity{ID: "u2"}, "", false, DecisionNotFound},
		{"nil identity", nil, "u1", true, DecisionUnauthenticated},
		{"empty identity id", &Identity{}, "u1", true, DecisionUnauthenticated},
		{"nil identity with missing resource", nil, "", false, DecisionUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Authorize(tt.ident, tt.ownerID, tt.found); got != tt.want {
				t.Errorf("Authorize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthorize_StringExactComparison(t *testing.T) {
	// "1" must not match " 1" or "01"; no type coercion of any kind.
	if got := Authorize(&Identity{ID: "1"}, "01", true); got != DecisionDeny {
		t.Errorf("expected deny for non-identical owner id, got %v", got)
	}
}

func TestParseResourceID(t *testing.T) {
	if id, err := ParseResourceID("42"); err != nil || id != 42 {
		t.Errorf("ParseResourceID(42) = %d, %v", id, err)
	}
	for _, raw := range []string{"", "0", "-5", "abc", "1; DROP TABLE invoices", "4.2", "9999999999999999999999"} {
		if _, err := ParseResourceID(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func gateContext(t *testing.T, ident *Identity, id string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/invoices/"+url.PathEscape(id), nil)
	if ident != nil {
		req = req.WithContext(WithIdentity(req.Context(), ident))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/invoices/:id")
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func staticResolver(ownerID string, found bool) OwnerResolver {
	return OwnerResolverFunc(func(context.Context, int64) (string, bool, error) {
		return ownerID, found, nil
	})
}

func TestRequireOwnerOrAdmin_Allow(t *testing.T) {
	mw := RequireOwnerOrAdmin(zerolog.Nop(), staticResolver("u1", true))
	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	c, _ := gateContext(t, &Identity{ID: "u1"}, "42")
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler should run on allow")
	}
}

func TestRequireOwnerOrAdmin_DenyBeforeHandler(t *testing.T) {
	mw := RequireOwnerOrAdmin(zerolog.Nop(), staticResolver("u1", true))
	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		return nil
	})

	c, _ := gateContext(t, &Identity{ID: "u2"}, "42")
	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if called {
		t.Error("handler must not run on deny")
	}
}

func TestRequireOwnerOrAdmin_NotFound(t *testing.T) {
	mw := RequireOwnerOrAdmin(zerolog.Nop(), staticResolver("", false))
	handler := mw(func(c echo.Context) error { return nil })

	c, _ := gateContext(t, &Identity{ID: "u1"}, "42")
	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing resource, got %v", err)
	}
}

func TestRequireOwnerOrAdmin_Unauthenticated(t *testing.T) {
	resolverCalled := false
	resolver := OwnerResolverFunc(func(context.Context, int64) (string, bool, error) {
		resolverCalled = true
		return "u1", true, nil
	})
	mw := RequireOwnerOrAdmin(zerolog.Nop(), resolver)
	handler := mw(func(c echo.Context) error { return nil })

	c, _ := gateContext(t, nil, "42")
	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if resolverCalled {
		t.Error("resolver must not run for unauthenticated callers")
	}
}

func TestRequireOwnerOrAdmin_InvalidID(t *testing.T) {
	resolverCalled := false
	resolver := OwnerResolverFunc(func(context.Context, int64) (string, bool, error) {
		resolverCalled = true
		return "", false, nil
	})
	mw := RequireOwnerOrAdmin(zerolog.Nop(), resolver)
	handler := mw(func(c echo.Context) error { return nil })

	for _, id := range []string{"abc", "-1", "0", "1 OR 1=1"} {
		c, _ := gateContext(t, &Identity{ID: "u1"}, id)
		err := handler(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Errorf("id %q: expected 400, got %v", id, err)
		}
	}
	if resolverCalled {
		t.Error("resolver must not run for malformed ids")
	}
}

func TestRequireOwnerOrAdmin_ResolverError(t *testing.T) {
	resolver := OwnerResolverFunc(func(context.Context, int64) (string, bool, error) {
		return "", false, fmt.Errorf("connection refused")
	})
	mw := RequireOwnerOrAdmin(zerolog.Nop(), resolver)
	handler := mw(func(c echo.Context) error { return nil })

	c, _ := gateContext(t, &Identity{ID: "u1"}, "42")
	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", err)
	}
	if msg, _ := he.Message.(string); msg != "internal error" {
		t.Errorf("resolver error detail must not leak, got %q", he.Message)
	}
}

func TestRequireOwnerOrAdmin_AdminBypassesOwnership(t *testing.T) {
	mw := RequireOwnerOrAdmin(zerolog.Nop(), staticResolver("u1", true))
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	c, rec := gateContext(t, &Identity{ID: "admin-7", Role: RoleAdmin}, "42")
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
