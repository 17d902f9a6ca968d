package dailysales

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/posapp/pos-backend/internal/platform/httpx"
)

// Lister reads rollups.
type Lister interface {
	ListByStore(ctx context.Context, store string, from, to time.Time) ([]Rollup, error)
}

// Handler serves rollup reads.
type Handler struct {
	logger *slog.Logger
	repo   Lister
	now    func() time.Time
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, repo Lister) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, repo: repo, now: time.Now}
}

// MountRoutes attaches rollup routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stores/{storeCode}/daily-sales", h.list)
}

// ListResponse is the payload of a rollup query.
type ListResponse struct {
	StoreCode string   `json:"storeCode"`
	From      string   `json:"from"`
	To        string   `json:"to"`
	Days      []Rollup `json:"days"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	store := chi.URLParam(r, "storeCode")
	from, to, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"), h.now())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	days, err := h.repo.ListByStore(r.Context(), store, from, to)
	if err != nil {
		h.logger.Error("daily sales read failed", slog.String("store", store), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListResponse{
		StoreCode: store,
		From:      from.Format(dateLayout),
		To:        to.Format(dateLayout),
		Days:      days,
	})
}

// parseRange defaults to the seven days ending today.
func parseRange(fromRaw, toRaw string, now time.Time) (time.Time, time.Time, error) {
	to := BusinessDate(now)
	if toRaw != "" {
		parsed, err := time.Parse(dateLayout, toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: to must be YYYY-MM-DD", ErrInvalidRange)
		}
		to = parsed
	}
	from := to.AddDate(0, 0, -6)
	if fromRaw != "" {
		parsed, err := time.Parse(dateLayout, fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from must be YYYY-MM-DD", ErrInvalidRange)
		}
		from = parsed
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from is after to", ErrInvalidRange)
	}
	if inclusiveDays(from, to) > MaxRangeDays {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range exceeds %d days", ErrInvalidRange, MaxRangeDays)
	}
	return from, to, nil
}

// inclusiveDays counts calendar days from from to to, both included.
func inclusiveDays(from, to time.Time) int {
	return int(to.Sub(from)/(24*time.Hour)) + 1
}
