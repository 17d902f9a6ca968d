package purchase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/posapp/pos-backend/internal/platform/httpx"
)

// Purchaser is the service surface exposed over HTTP.
type Purchaser interface {
	Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error)
	Transaction(ctx context.Context, id int64) (Transaction, error)
}

// Handler serves purchase endpoints.
type Handler struct {
	logger  *slog.Logger
	service Purchaser
}

// NewHandler constructs the purchase HTTP handler.
func NewHandler(logger *slog.Logger, service Purchaser) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches purchase routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/purchase", h.purchase)
	r.Get("/transactions/{id}", h.showTransaction)
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, PurchaseResult{Success: false, Message: "request body must be a JSON purchase"})
		return
	}

	result, err := h.service.Purchase(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrValidation) {
			status = http.StatusBadRequest
		}
		httpx.JSON(w, status, result)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) showTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Transaction ID", "id must be an integer")
		return
	}

	txn, err := h.service.Transaction(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.logger.Error("transaction read failed", slog.Int64("id", id), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txn)
}
