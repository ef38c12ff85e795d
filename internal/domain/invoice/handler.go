package invoice

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinrec/billing/internal/platform/auth"
	"github.com/clinrec/billing/internal/platform/payments"
	"github.com/clinrec/billing/internal/platform/receipts"
	"github.com/clinrec/billing/pkg/pagination"
)

// Handler exposes invoice operations over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the invoice routes on the given API group. All
// per-invoice routes sit behind the owner-or-admin gate.
func (h *Handler) RegisterRoutes(api *echo.Group, logger zerolog.Logger) {
	g := api.Group("/invoices")
	g.GET("", h.List)

	gate := auth.RequireOwnerOrAdmin(logger, auth.OwnerResolverFunc(h.svc.ResolveOwner))
	g.GET("/:id", h.Get, gate)
	g.POST("/:id/pay", h.Pay, gate)
	g.GET("/:id/receipt", h.Receipt, gate)
}

// List returns the caller's own invoices, optionally filtered by status.
func (h *Handler) List(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	if ident == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	page := pagination.FromContext(c)
	status := c.QueryParam("status")
	operator := c.QueryParam("operator")

	invoices, total, err := h.svc.List(c.Request().Context(), ident.ID, status, operator, page.Limit, page.Offset)
	if err != nil {
		if errors.Is(err, ErrInvalidOperator) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid filter operator")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list invoices")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(invoices, total, page.Limit, page.Offset))
}

// Get returns a single invoice. Ownership is enforced by the route gate.
func (h *Handler) Get(c echo.Context) error {
	id, err := auth.ParseResourceID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	inv, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch invoice")
	}
	return c.JSON(http.StatusOK, inv)
}

type payRequest struct {
	PaymentBrand   string `json:"paymentBrand"`
	CCNumber       string `json:"ccNumber"`
	CCV            string `json:"ccv"`
	ExpirationDate string `json:"expirationDate"`
}

// Pay charges an invoice through the provider matching the requested brand.
func (h *Handler) Pay(c echo.Context) error {
	id, err := auth.ParseResourceID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	ident := auth.IdentityFromContext(c.Request().Context())
	if ident == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req payRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	brand := req.PaymentBrand
	card := payments.Card{
		Number:         req.CCNumber,
		CVV:            req.CCV,
		ExpirationDate: req.ExpirationDate,
	}
	req = payRequest{}
	defer card.Wipe()

	err = h.svc.Pay(c.Request().Context(), id, ident, brand, card)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
		case errors.Is(err, ErrAlreadyPaid):
			return echo.NewHTTPError(http.StatusConflict, "invoice already paid")
		case errors.Is(err, payments.ErrUnsupportedBrand):
			return echo.NewHTTPError(http.StatusBadRequest, "unsupported payment brand")
		case errors.Is(err, payments.ErrMissingDetails):
			return echo.NewHTTPError(http.StatusBadRequest, "incomplete payment details")
		case errors.Is(err, payments.ErrPaymentFailed):
			return echo.NewHTTPError(http.StatusPaymentRequired, "payment was not accepted")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to process payment")
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "payment successful"})
}

// Receipt streams the invoice receipt PDF.
func (h *Handler) Receipt(c echo.Context) error {
	id, err := auth.ParseResourceID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	fileName := c.QueryParam("pdfName")
	content, err := h.svc.Receipt(c.Request().Context(), id, fileName)
	if err != nil {
		switch {
		case errors.Is(err, receipts.ErrInvalidFileName):
			return echo.NewHTTPError(http.StatusBadRequest, "invalid file name")
		case errors.Is(err, receipts.ErrAccessDenied):
			return echo.NewHTTPError(http.StatusForbidden, "access denied")
		case errors.Is(err, ErrNotFound), errors.Is(err, receipts.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "receipt not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to read receipt")
		}
	}
	return c.Blob(http.StatusOK, "application/pdf", content)
}
