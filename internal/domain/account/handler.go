package account

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinrec/billing/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public auth routes. None of them sit behind the
// JWT middleware.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/activate", h.Activate)
	g.POST("/reset-password", h.ResetPassword)
	g.POST("/reset-password/confirm", h.ConfirmResetPassword)
}

// RegisterProtectedRoutes mounts the account routes that require an
// authenticated caller.
func (h *Handler) RegisterProtectedRoutes(api *echo.Group) {
	api.PUT("/users/me", h.UpdateMe)
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	u, err := h.svc.Register(c.Request().Context(), req.Username, req.Email, req.FirstName, req.LastName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			return echo.NewHTTPError(http.StatusConflict, "email already registered")
		case errors.Is(err, ErrWeakPassword):
			return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
		case errors.Is(err, ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusBadRequest, "username and email are required")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to register account")
		}
	}
	return c.JSON(http.StatusCreated, u)
}

type updateRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// UpdateMe updates the authenticated caller's own account.
func (h *Handler) UpdateMe(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	if ident == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	u, err := h.svc.UpdateProfile(c.Request().Context(), ident.ID, ProfileUpdate{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrWeakPassword):
			return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
		case errors.Is(err, ErrEmailTaken):
			return echo.NewHTTPError(http.StatusConflict, "email already registered")
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to update account")
		}
	}
	return c.JSON(http.StatusOK, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	token, u, err := h.svc.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotActivated):
			return echo.NewHTTPError(http.StatusForbidden, "account not activated")
		case errors.Is(err, ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to log in")
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  u,
	})
}

type activateRequest struct {
	Token string `json:"token"`
}

func (h *Handler) Activate(c echo.Context) error {
	var req activateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.Activate(c.Request().Context(), req.Token); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to activate account")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "account activated"})
}

type resetRequest struct {
	Email string `json:"email"`
}

func (h *Handler) ResetPassword(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to request password reset")
	}
	// Always the same response, known email or not.
	return c.JSON(http.StatusOK, map[string]string{"message": "if the email exists, a reset link has been sent"})
}

type confirmResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) ConfirmResetPassword(c echo.Context) error {
	var req confirmResetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err := h.svc.ConfirmPasswordReset(c.Request().Context(), req.Token, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrWeakPassword):
			return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
		case errors.Is(err, ErrInvalidToken):
			return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired token")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to reset password")
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}
