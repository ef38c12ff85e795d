package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinrec/billing/internal/platform/auth"
	"github.com/clinrec/billing/internal/platform/notification"
)

func newTestServer(t *testing.T, repo *mockRepo, sender *notification.MockEmailSender) *echo.Echo {
	t.Helper()
	e := echo.New()
	NewHandler(newTestService(repo, sender)).RegisterRoutes(e.Group("/api/v1"))
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Register(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := newMockRepo()
		e := newTestServer(t, repo, nil)

		rec := doRequest(e, http.MethodPost, "/api/v1/auth/register",
			`{"username":"jdoe","email":"jane@x.com","first_name":"Jane","last_name":"Doe","password":"correct-horse"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		body := rec.Body.String()
		if strings.Contains(body, "correct-horse") || strings.Contains(body, "password_hash") {
			t.Fatalf("credential material leaked in response: %s", body)
		}
	})

	t.Run("duplicate email gets 409", func(t *testing.T) {
		repo := newMockRepo()
		e := newTestServer(t, repo, nil)
		payload := `{"username":"jdoe","email":"jane@x.com","password":"correct-horse"}`

		if rec := doRequest(e, http.MethodPost, "/api/v1/auth/register", payload); rec.Code != http.StatusCreated {
			t.Fatalf("first register: status = %d", rec.Code)
		}
		if rec := doRequest(e, http.MethodPost, "/api/v1/auth/register", payload); rec.Code != http.StatusConflict {
			t.Fatalf("second register: status = %d, want 409", rec.Code)
		}
	})

	t.Run("weak password gets 400", func(t *testing.T) {
		e := newTestServer(t, newMockRepo(), nil)
		rec := doRequest(e, http.MethodPost, "/api/v1/auth/register",
			`{"username":"jdoe","email":"jane@x.com","password":"short"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandler_LoginFlow(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &notification.MockEmailSender{})
	u, err := svc.Register(context.Background(), "jdoe", "jane@x.com", "Jane", "Doe", "correct-horse")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	e := echo.New()
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1"))

	t.Run("login before activation gets 403", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/api/v1/auth/login",
			`{"email":"jane@x.com","password":"correct-horse"}`)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("activate", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/api/v1/auth/activate",
			`{"token":"`+*u.InviteToken+`"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("login after activation", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/api/v1/auth/login",
			`{"email":"jane@x.com","password":"correct-horse"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"token":"`) {
			t.Fatal("no session token in response")
		}
	})

	t.Run("wrong password gets 401", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/api/v1/auth/login",
			`{"email":"jane@x.com","password":"wrong"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
}

func TestHandler_ResetPassword_SameResponseEitherWay(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &notification.MockEmailSender{})
	if _, err := svc.Register(context.Background(), "jdoe", "known@x.com", "", "", "correct-horse"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	e := echo.New()
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1"))

	known := doRequest(e, http.MethodPost, "/api/v1/auth/reset-password", `{"email":"known@x.com"}`)
	unknown := doRequest(e, http.MethodPost, "/api/v1/auth/reset-password", `{"email":"unknown@x.com"}`)
	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("statuses = %d/%d, want 200/200", known.Code, unknown.Code)
	}
	if known.Body.String() != unknown.Body.String() {
		t.Fatal("responses differ between known and unknown email")
	}
}

func TestHandler_UpdateMe(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &notification.MockEmailSender{})
	u, err := svc.Register(context.Background(), "jdoe", "jane@x.com", "Jane", "Doe", "correct-horse")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := svc.Activate(context.Background(), *u.InviteToken); err != nil {
		t.Fatalf("activate failed: %v", err)
	}

	newServer := func(ident *auth.Identity) *echo.Echo {
		e := echo.New()
		h := NewHandler(svc)
		h.RegisterRoutes(e.Group("/api/v1"))
		protected := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				if ident != nil {
					ctx := auth.WithIdentity(c.Request().Context(), ident)
					c.SetRequest(c.Request().WithContext(ctx))
				}
				return next(c)
			}
		})
		h.RegisterProtectedRoutes(protected)
		return e
	}

	t.Run("success", func(t *testing.T) {
		e := newServer(&auth.Identity{ID: u.ID})
		rec := doRequest(e, http.MethodPut, "/api/v1/users/me",
			`{"username":"jdoe2","first_name":"Janet","password":"brand-new-pass"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		body := rec.Body.String()
		if !strings.Contains(body, `"username":"jdoe2"`) {
			t.Fatalf("update not applied: %s", body)
		}
		if strings.Contains(body, "brand-new-pass") || strings.Contains(body, "password_hash") {
			t.Fatalf("credential material leaked: %s", body)
		}
	})

	t.Run("unauthenticated gets 401", func(t *testing.T) {
		e := newServer(nil)
		rec := doRequest(e, http.MethodPut, "/api/v1/users/me", `{"username":"x"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("weak password gets 400", func(t *testing.T) {
		e := newServer(&auth.Identity{ID: u.ID})
		rec := doRequest(e, http.MethodPut, "/api/v1/users/me", `{"password":"short"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("duplicate email gets 409", func(t *testing.T) {
		if _, err := svc.Register(context.Background(), "other", "taken@x.com", "", "", "other-password"); err != nil {
			t.Fatalf("register failed: %v", err)
		}
		e := newServer(&auth.Identity{ID: u.ID})
		rec := doRequest(e, http.MethodPut, "/api/v1/users/me", `{"email":"taken@x.com"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
	})
}

func TestHandler_ConfirmResetPassword_InvalidToken(t *testing.T) {
	e := newTestServer(t, newMockRepo(), nil)
	rec := doRequest(e, http.MethodPost, "/api/v1/auth/reset-password/confirm",
		`{"token":"bogus","password":"new-password"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
