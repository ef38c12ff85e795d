package clinicalhistory

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinrec/billing/internal/platform/auth"
	"github.com/clinrec/billing/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, logger zerolog.Logger) {
	g := api.Group("/clinical-history")
	g.GET("", h.List)
	g.POST("", h.Create)

	gate := auth.RequireOwnerOrAdmin(logger, auth.OwnerResolverFunc(h.svc.ResolveOwner))
	g.GET("/:id", h.Get, gate)
}

func (h *Handler) List(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	if ident == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	page := pagination.FromContext(c)
	entries, total, err := h.svc.List(c.Request().Context(), ident.ID, page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list clinical history")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, page.Limit, page.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := auth.ParseResourceID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	entry, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "entry not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch entry")
	}
	return c.JSON(http.StatusOK, entry)
}

type createRequest struct {
	Title      string    `json:"title"`
	Notes      string    `json:"notes"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (h *Handler) Create(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	if ident == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	entry, err := h.svc.Create(c.Request().Context(), ident.ID, req.Title, req.Notes, req.RecordedAt)
	if err != nil {
		if errors.Is(err, ErrInvalidEntry) {
			return echo.NewHTTPError(http.StatusBadRequest, "title is required")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record entry")
	}
	return c.JSON(http.StatusCreated, entry)
}
