package catalog

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/posapp/pos-backend/internal/platform/httpx"
)

// Finder is the lookup surface exposed over HTTP.
type Finder interface {
	FindByCode(ctx context.Context, code string) (Product, bool, error)
	List(ctx context.Context) ([]Product, error)
}

// Handler serves product lookups.
type Handler struct {
	logger  *slog.Logger
	service Finder
}

// NewHandler constructs the catalog HTTP handler.
func NewHandler(logger *slog.Logger, service Finder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/{code}", h.show)
}

// LookupResponse is the payload of a single product lookup. Product is null when the
// code has no match.
type LookupResponse struct {
	Found   bool     `json:"found"`
	Product *Product `json:"product"`
}

// ListResponse is the payload of the full catalog listing.
type ListResponse struct {
	Count    int       `json:"count"`
	Products []Product `json:"products"`
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	product, found, err := h.service.FindByCode(r.Context(), code)
	if err != nil {
		h.logger.Error("product lookup failed", slog.String("code", code), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Product Lookup Failed", "")
		return
	}
	resp := LookupResponse{Found: found}
	if found {
		resp.Product = &product
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("product list failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Product List Failed", "")
		return
	}
	httpx.JSON(w, http.StatusOK, ListResponse{Count: len(products), Products: products})
}
